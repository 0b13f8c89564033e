package gateway

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

// OpenAIBackend generates completions through the OpenAI chat completions
// API. Without an API key every call returns degraded canned output.
type OpenAIBackend struct {
	client openai.Client
	model  string
	hasKey bool
	logger *zap.Logger
}

// NewOpenAIBackend creates an OpenAI adapter. An empty apiKey is allowed and
// puts the adapter in degraded mode.
//
// Precondition: logger must be non-nil.
func NewOpenAIBackend(apiKey, model string, logger *zap.Logger) *OpenAIBackend {
	if model == "" {
		model = "gpt-4"
	}
	b := &OpenAIBackend{model: model, logger: logger}
	if apiKey == "" {
		logger.Warn("no openai api key provided, responses will be degraded",
			zap.String("model", model),
		)
		return b
	}
	b.client = openai.NewClient(option.WithAPIKey(apiKey))
	b.hasKey = true
	return b
}

// Kind identifies the provider family.
func (b *OpenAIBackend) Kind() string { return "openai" }

// Model returns the configured model identifier.
func (b *OpenAIBackend) Model() string { return b.model }

func (b *OpenAIBackend) chatParams(prompt string, params Params, system string) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	return openai.ChatCompletionNewParams{
		Model:            openai.ChatModel(params.String("model", b.model)),
		Messages:         messages,
		Temperature:      openai.Float(params.Float("temperature", 0.7)),
		MaxTokens:        openai.Int(int64(params.Int("max_tokens", 1000))),
		TopP:             openai.Float(params.Float("top_p", 1.0)),
		FrequencyPenalty: openai.Float(params.Float("frequency_penalty", 0.0)),
		PresencePenalty:  openai.Float(params.Float("presence_penalty", 0.0)),
	}
}

// Generate produces a text completion. Provider failures degrade to canned
// output instead of returning an error.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string, params Params, system string) Result {
	if !b.hasKey {
		return Result{Text: mockText(prompt), Source: SourceDegraded}
	}

	resp, err := b.client.Chat.Completions.New(ctx, b.chatParams(prompt, params, system))
	if err != nil {
		b.logger.Error("openai call failed", zap.Error(err))
		return Result{Text: mockText(prompt), Source: SourceDegraded}
	}
	if len(resp.Choices) == 0 {
		b.logger.Error("openai returned no choices")
		return Result{Text: mockText(prompt), Source: SourceDegraded}
	}
	return Result{Text: resp.Choices[0].Message.Content, Source: SourceLive}
}

// GenerateStructured produces a JSON object using the API's native JSON
// response mode.
func (b *OpenAIBackend) GenerateStructured(ctx context.Context, prompt string, schema Schema, params Params, system string) StructuredResult {
	if !b.hasKey {
		return StructuredResult{Data: mockStructured(prompt, schema), Source: SourceDegraded}
	}

	req := b.chatParams(schemaPrompt(prompt, schema), params, system)
	req.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
	}

	resp, err := b.client.Chat.Completions.New(ctx, req)
	if err != nil {
		b.logger.Error("openai call failed", zap.Error(err))
		return StructuredResult{Data: mockStructured(prompt, schema), Source: SourceDegraded}
	}
	if len(resp.Choices) == 0 {
		b.logger.Error("openai returned no choices")
		return StructuredResult{Data: mockStructured(prompt, schema), Source: SourceDegraded}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &data); err != nil {
		b.logger.Error("failed to parse JSON from openai response", zap.Error(err))
		return StructuredResult{Data: mockStructured(prompt, schema), Source: SourceDegraded}
	}
	return StructuredResult{Data: data, Source: SourceLive}
}
