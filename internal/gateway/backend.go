// Package gateway provides a standardized interface for agent communication
// with language model backends. It handles backend selection, response
// caching, and context management, and it degrades to canned output when a
// provider is unreachable or unconfigured.
package gateway

import (
	"context"
)

// Source identifies where a generation result came from.
type Source string

const (
	// SourceLive marks output produced by a real provider call.
	SourceLive Source = "live"
	// SourceDegraded marks canned output used when no credential is
	// configured or the provider call failed.
	SourceDegraded Source = "degraded"
)

// Result is the outcome of a text generation. Degradation is part of the
// result, not an error.
type Result struct {
	Text   string
	Source Source
}

// StructuredResult is the outcome of a structured (JSON) generation.
type StructuredResult struct {
	Data   map[string]any
	Source Source
}

// Schema is a JSON schema describing the expected shape of a structured
// response. Only the "properties" map is inspected for degraded output.
type Schema map[string]any

// Params holds per-request generation parameters such as temperature and
// max_tokens. Unknown keys are passed through untouched where a provider
// supports them.
type Params map[string]any

// String returns the string value for key, or def if absent or not a string.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Float returns the numeric value for key as a float64, or def.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Int returns the numeric value for key as an int, or def.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Backend is a language model provider adapter. Implementations never return
// errors: a failed or unconfigured provider yields a degraded Result instead,
// so callers stay functional without credentials.
type Backend interface {
	// Kind identifies the provider family, e.g. "anthropic" or "openai".
	Kind() string
	// Model returns the provider model identifier in use.
	Model() string
	// Generate produces a text completion for prompt.
	Generate(ctx context.Context, prompt string, params Params, system string) Result
	// GenerateStructured produces a JSON object conforming to schema.
	GenerateStructured(ctx context.Context, prompt string, schema Schema, params Params, system string) StructuredResult
}
