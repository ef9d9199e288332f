package driven

import "context"

// LLMService provides language model completions for re-rank scoring
// and answer generation.
//
// Implementations surface rate limiting as an error matching
// domain.ErrRateLimited, distinguishable from other failures.
type LLMService interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the model deployment name.
	ModelName() string
}

// GenerateOptions configures a generation call.
type GenerateOptions struct {
	// SystemPrompt is prepended as the system message when non-empty.
	SystemPrompt string

	// MaxTokens caps the completion length; 0 means model default.
	MaxTokens int

	// JSONOnly asks the model for a strict JSON response.
	JSONOnly bool
}
