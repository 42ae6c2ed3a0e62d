package llm

import "context"

// MockClient is a configurable mock for testing generation functionality.
// Set the function field to control behavior in tests.
type MockClient struct {
	// GenerateComponentFunc is called when GenerateComponent is invoked.
	// If nil, returns an unchanged empty result and nil error.
	GenerateComponentFunc func(ctx context.Context, prompt string, existingCode string) (*GenerationResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification.
	GenerateComponentCalls int
	LastPrompt             string
	LastExistingCode       string
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{Model: "mock-model"}
}

// GenerateComponent implements Client.
func (m *MockClient) GenerateComponent(ctx context.Context, prompt string, existingCode string) (*GenerationResult, error) {
	m.GenerateComponentCalls++
	m.LastPrompt = prompt
	m.LastExistingCode = existingCode
	if m.GenerateComponentFunc != nil {
		return m.GenerateComponentFunc(ctx, prompt, existingCode)
	}
	return &GenerationResult{Actions: []string{}}, nil
}

// GetModel implements Client.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Reset clears call tracking.
func (m *MockClient) Reset() {
	m.GenerateComponentCalls = 0
	m.LastPrompt = ""
	m.LastExistingCode = ""
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)
