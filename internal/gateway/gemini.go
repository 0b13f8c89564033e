package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiBackend generates completions through the Google Generative Language
// REST API. Without an API key every call returns degraded canned output.
type GeminiBackend struct {
	httpClient *http.Client
	apiKey     string
	model      string
	logger     *zap.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGeminiBackend creates a Gemini adapter. An empty apiKey is allowed and
// puts the adapter in degraded mode.
//
// Precondition: logger must be non-nil.
func NewGeminiBackend(apiKey, model string, logger *zap.Logger) *GeminiBackend {
	if model == "" {
		model = "gemini-1.5-flash-latest"
	}
	if apiKey == "" {
		logger.Warn("no google api key provided, gemini responses will be degraded",
			zap.String("model", model),
		)
	}
	return &GeminiBackend{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

// Kind identifies the provider family.
func (b *GeminiBackend) Kind() string { return "gemini" }

// Model returns the configured model identifier.
func (b *GeminiBackend) Model() string { return b.model }

func (b *GeminiBackend) call(ctx context.Context, req geminiRequest, model string) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, model, b.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, errBody)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// Generate produces a text completion. Provider failures degrade to canned
// output instead of returning an error.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string, params Params, system string) Result {
	if b.apiKey == "" {
		return Result{Text: fmt.Sprintf("Mock Gemini response for: %s", prompt), Source: SourceDegraded}
	}

	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: params.Int("max_tokens", 1000),
			Temperature:     params.Float("temperature", 0.7),
			TopP:            params.Float("top_p", 1.0),
		},
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	text, err := b.call(ctx, req, params.String("model", b.model))
	if err != nil {
		b.logger.Error("gemini call failed", zap.Error(err))
		return Result{Text: fmt.Sprintf("Mock Gemini response for: %s", prompt), Source: SourceDegraded}
	}
	return Result{Text: text, Source: SourceLive}
}

// GenerateStructured produces a JSON object using the API's JSON mime type
// plus the schema appended to the prompt.
func (b *GeminiBackend) GenerateStructured(ctx context.Context, prompt string, schema Schema, params Params, system string) StructuredResult {
	if b.apiKey == "" {
		return StructuredResult{Data: geminiPlaceholders(schema), Source: SourceDegraded}
	}

	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: schemaPrompt(prompt, schema)}}}},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens:  params.Int("max_tokens", 2048),
			Temperature:      params.Float("temperature", 0.5),
			TopP:             params.Float("top_p", 1.0),
			ResponseMimeType: "application/json",
		},
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	text, err := b.call(ctx, req, params.String("model", b.model))
	if err != nil {
		b.logger.Error("gemini call failed", zap.Error(err))
		return StructuredResult{Data: geminiPlaceholders(schema), Source: SourceDegraded}
	}

	data, err := extractJSON(text)
	if err != nil {
		b.logger.Error("failed to parse JSON from gemini response", zap.Error(err))
		return StructuredResult{Data: geminiPlaceholders(schema), Source: SourceDegraded}
	}
	return StructuredResult{Data: data, Source: SourceLive}
}

func geminiPlaceholders(schema Schema) map[string]any {
	out := map[string]any{}
	props, _ := schema["properties"].(map[string]any)
	for key := range props {
		out[key] = fmt.Sprintf("mock gemini value for %s", key)
	}
	return out
}
