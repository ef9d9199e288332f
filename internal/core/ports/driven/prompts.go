package driven

// Prompt names used by the retrieval services.
const (
	// PromptAnswerSystem is the system prompt for grounded answer
	// generation.
	PromptAnswerSystem = "answer_system"

	// PromptRerankSystem is the system prompt for batched relevance
	// scoring.
	PromptRerankSystem = "rerank_system"
)

// PromptStore loads LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads.
	Reload()
}
