// Package tokenizer provides deterministic token counting.
//
// One Tokenizer instance is shared between the batch packer and the
// budget tracker cost estimate so packed batches are charged exactly
// what was counted.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

// DefaultEncoding is the BPE used by the text-embedding-3-* models.
const DefaultEncoding = "cl100k_base"

// Ensure implementations satisfy the port.
var (
	_ driven.Tokenizer = (*Tiktoken)(nil)
	_ driven.Tokenizer = (*Estimator)(nil)
)

// Tiktoken counts tokens with the model's actual BPE.
type Tiktoken struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding ("" uses DefaultEncoding).
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// CountTokens returns the BPE token count for text.
func (t *Tiktoken) CountTokens(text string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// Estimator approximates token counts as ceil(len/4), the usual
// rule of thumb for English prose. Used in tests and anywhere the BPE
// tables are unavailable; still deterministic.
type Estimator struct{}

// CountTokens estimates the token count for text.
func (Estimator) CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
