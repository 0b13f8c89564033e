package gateway

import (
	"context"

	"go.uber.org/zap"
)

// LocalBackend is a stand-in for an in-process model. It always answers with
// the canned keyword output, which keeps the whole game loop playable with no
// network access at all.
type LocalBackend struct {
	modelPath string
	logger    *zap.Logger
}

// NewLocalBackend creates a local adapter. modelPath is recorded for future
// use; no model is actually loaded.
//
// Precondition: logger must be non-nil.
func NewLocalBackend(modelPath string, logger *zap.Logger) *LocalBackend {
	logger.Info("initializing local model backend",
		zap.String("model_path", modelPath),
	)
	return &LocalBackend{modelPath: modelPath, logger: logger}
}

// Kind identifies the provider family.
func (b *LocalBackend) Kind() string { return "local" }

// Model returns the local model path, or "local" when none is set.
func (b *LocalBackend) Model() string {
	if b.modelPath == "" {
		return "local"
	}
	return b.modelPath
}

// Generate returns canned keyword output.
func (b *LocalBackend) Generate(ctx context.Context, prompt string, params Params, system string) Result {
	return Result{Text: mockText(prompt), Source: SourceDegraded}
}

// GenerateStructured returns canned structured output.
func (b *LocalBackend) GenerateStructured(ctx context.Context, prompt string, schema Schema, params Params, system string) StructuredResult {
	return StructuredResult{Data: mockStructured(prompt, schema), Source: SourceDegraded}
}
