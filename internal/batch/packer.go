// Package batch groups text units into API-sized batches.
package batch

import (
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

// Packer greedily packs texts into batches under a token ceiling.
// Batch order is stable and equals input order, so callers can zip
// returned embeddings back onto the inputs positionally.
type Packer struct {
	tok driven.Tokenizer
}

// NewPacker creates a packer that counts with tok.
func NewPacker(tok driven.Tokenizer) *Packer {
	return &Packer{tok: tok}
}

// PackByTokens iterates units in order, closing the current batch when
// adding the next unit would exceed maxTokensPerBatch and the batch is
// non-empty. A single unit over the ceiling gets its own batch - never
// dropped, never split.
func (p *Packer) PackByTokens(units []string, maxTokensPerBatch int) [][]string {
	if len(units) == 0 {
		return nil
	}

	var batches [][]string
	var current []string
	sum := 0

	for _, u := range units {
		n := p.tok.CountTokens(u)
		if len(current) > 0 && sum+n > maxTokensPerBatch {
			batches = append(batches, current)
			current = []string{u}
			sum = n
			continue
		}
		current = append(current, u)
		sum += n
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// CountTokens exposes the packer's tokenizer count so callers charge
// the budget tracker exactly what was packed.
func (p *Packer) CountTokens(texts []string) int {
	total := 0
	for _, t := range texts {
		total += p.tok.CountTokens(t)
	}
	return total
}

// GroupByCount partitions items into fixed-size groups, preserving
// order. Used by re-rank, which batches on item count rather than
// tokens.
func GroupByCount[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}

	groups := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		groups = append(groups, items[start:end])
	}
	return groups
}
