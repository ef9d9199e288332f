package driven

// Tokenizer counts tokens the way the embedding model does.
//
// The count must be deterministic: the batch packer and the budget
// cost estimate share one Tokenizer, so a batch that packs under the
// ceiling is charged exactly what it packed.
type Tokenizer interface {
	CountTokens(text string) int
}
