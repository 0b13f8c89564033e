package gateway

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// AnthropicBackend generates completions through the Anthropic Messages API.
// Without an API key every call returns degraded canned output.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
	hasKey bool
	logger *zap.Logger
}

// NewAnthropicBackend creates an Anthropic adapter. An empty apiKey is
// allowed and puts the adapter in degraded mode.
//
// Precondition: logger must be non-nil.
func NewAnthropicBackend(apiKey, model string, logger *zap.Logger) *AnthropicBackend {
	if model == "" {
		model = "claude-3-opus-20240229"
	}
	b := &AnthropicBackend{model: model, logger: logger}
	if apiKey == "" {
		logger.Warn("no anthropic api key provided, responses will be degraded",
			zap.String("model", model),
		)
		return b
	}
	b.client = anthropic.NewClient(option.WithAPIKey(apiKey))
	b.hasKey = true
	return b
}

// Kind identifies the provider family.
func (b *AnthropicBackend) Kind() string { return "anthropic" }

// Model returns the configured model identifier.
func (b *AnthropicBackend) Model() string { return b.model }

// Generate produces a text completion. Provider failures degrade to canned
// output instead of returning an error.
func (b *AnthropicBackend) Generate(ctx context.Context, prompt string, params Params, system string) Result {
	if !b.hasKey {
		return Result{Text: mockText(prompt), Source: SourceDegraded}
	}

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(params.String("model", b.model)),
		MaxTokens:   int64(params.Int("max_tokens", 1000)),
		Temperature: anthropic.Float(params.Float("temperature", 0.7)),
		TopP:        anthropic.Float(params.Float("top_p", 1.0)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := b.client.Messages.New(ctx, req)
	if err != nil {
		b.logger.Error("anthropic call failed", zap.Error(err))
		return Result{Text: mockText(prompt), Source: SourceDegraded}
	}
	if len(msg.Content) == 0 {
		b.logger.Error("anthropic returned empty content")
		return Result{Text: mockText(prompt), Source: SourceDegraded}
	}
	return Result{Text: msg.Content[0].Text, Source: SourceLive}
}

// GenerateStructured produces a JSON object by appending the schema to the
// prompt; the Messages API has no native JSON mode.
func (b *AnthropicBackend) GenerateStructured(ctx context.Context, prompt string, schema Schema, params Params, system string) StructuredResult {
	if !b.hasKey {
		return StructuredResult{Data: mockStructured(prompt, schema), Source: SourceDegraded}
	}

	res := b.Generate(ctx, schemaPrompt(prompt, schema), params, system)
	if res.Source == SourceDegraded {
		return StructuredResult{Data: mockStructured(prompt, schema), Source: SourceDegraded}
	}

	data, err := extractJSON(res.Text)
	if err != nil {
		b.logger.Error("failed to parse JSON from anthropic response", zap.Error(err))
		return StructuredResult{Data: mockStructured(prompt, schema), Source: SourceDegraded}
	}
	return StructuredResult{Data: data, Source: SourceLive}
}
