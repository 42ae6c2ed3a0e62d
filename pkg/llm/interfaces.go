// Package llm provides the generation gateway for UI component code.
package llm

import "context"

// Client defines the interface for component generation.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// GenerateComponent asks the model for component source code.
	// existingCode carries the live edit buffer for refinement requests and
	// is empty for initial generations. The call is single-shot and
	// non-streaming.
	GenerateComponent(ctx context.Context, prompt string, existingCode string) (*GenerationResult, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// GenerationResult is the validated shape of a generation gateway response.
type GenerationResult struct {
	// Code is the candidate new or updated source.
	Code string `json:"code"`
	// Changed reports whether the model judged the request to have produced
	// a real modification.
	Changed bool `json:"changed"`
	// Actions lists suggested follow-up refinement prompts. Never nil after
	// validation; empty when the model offered none.
	Actions []string `json:"actions"`
}
