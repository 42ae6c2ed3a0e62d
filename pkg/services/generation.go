package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/llm"
	"github.com/uiforge/uiforge-engine/pkg/retry"
)

// GenerationService calls the model gateway to produce component code.
// Transient provider failures are retried with exponential backoff;
// permanent failures and malformed responses surface immediately.
type GenerationService interface {
	// Generate produces component code for the prompt. existingCode is
	// the live code buffer when refining an existing component; empty for
	// a first generation.
	Generate(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error)
}

// generationService implements GenerationService.
type generationService struct {
	client    llm.Client
	retryConf *retry.Config
	logger    *zap.Logger
}

// NewGenerationService creates a generation service over the given client.
// maxRetries caps retry attempts for retryable provider errors; zero or
// negative disables retries.
func NewGenerationService(client llm.Client, maxRetries int, logger *zap.Logger) GenerationService {
	conf := retry.DefaultConfig()
	if maxRetries >= 0 {
		conf.MaxRetries = maxRetries
	}
	return &generationService{
		client:    client,
		retryConf: conf,
		logger:    logger,
	}
}

// Generate produces component code for the prompt.
func (s *generationService) Generate(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error) {
	start := time.Now()

	result, err := retry.DoWithResult(ctx, s.retryConf, func() (*llm.GenerationResult, error) {
		return s.client.GenerateComponent(ctx, prompt, existingCode)
	})
	if err != nil {
		s.logger.Warn("Generation failed",
			zap.Error(err),
			zap.String("model", s.client.GetModel()),
			zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	s.logger.Info("Generation completed",
		zap.String("model", s.client.GetModel()),
		zap.Bool("changed", result.Changed),
		zap.Int("suggested_actions", len(result.Actions)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Ensure generationService implements GenerationService at compile time.
var _ GenerationService = (*generationService)(nil)
