// Package stats computes per-book chunk statistics and the pooled
// collection fingerprint written after each ingestion run.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// ForBook computes the per-book aggregate over one book's uploaded
// chunks. All chunks must belong to the same book.
func ForBook(chunks []domain.Chunk, title string, configID int) (domain.BookChunkStats, error) {
	if len(chunks) == 0 {
		return domain.BookChunkStats{}, fmt.Errorf("%w: no chunks for stats", domain.ErrInvalidInput)
	}

	bookID := chunks[0].BookID
	charCount := 0
	counts := make([]int, len(chunks))
	for i := range chunks {
		if chunks[i].BookID != bookID {
			return domain.BookChunkStats{}, fmt.Errorf(
				"%w: mixed book ids %d and %d in stats input", domain.ErrInvalidInput, bookID, chunks[i].BookID)
		}
		charCount += len(chunks[i].Content)
		counts[i] = chunks[i].TokenCount
	}

	return domain.BookChunkStats{
		BookID:      bookID,
		ConfigID:    configID,
		Title:       title,
		CharCount:   charCount,
		ChunkCount:  len(chunks),
		TokenMean:   mean(counts),
		TokenMedian: median(counts),
		TokenMin:    minInt(counts),
		TokenMax:    maxInt(counts),
		TokenStd:    sampleStd(counts),
		TokenCounts: counts,
	}, nil
}

// Fingerprint summarises a whole collection: book-level medians and
// p90s plus pooled chunk-token percentiles and outlier rates. Used to
// tell corpora built under different hyperparameters apart.
type Fingerprint struct {
	ConfigID    int `json:"config_id_used"`
	BookCount   int `json:"book_count"`
	TotalChunks int `json:"total_chunks"`

	BookChunkCountMedian float64 `json:"book_chunk_count_median"`
	BookChunkCountP90    float64 `json:"book_chunk_count_p90"`

	BookTokenMeanMedian float64 `json:"book_token_mean_median"`
	BookTokenMeanP90    float64 `json:"book_token_mean_p90"`

	BookTokenStdMedian float64 `json:"book_token_std_median"`
	BookTokenStdP90    float64 `json:"book_token_std_p90"`

	BookTokenMaxMedian float64 `json:"book_token_max_median"`
	BookTokenMaxP90    float64 `json:"book_token_max_p90"`

	ChunkTokenP10 float64 `json:"chunk_token_p10"`
	ChunkTokenP50 float64 `json:"chunk_token_p50"`
	ChunkTokenP90 float64 `json:"chunk_token_p90"`
	ChunkTokenP99 float64 `json:"chunk_token_p99"`

	PctBooksTokenStdGtP90    float64 `json:"pct_books_token_std_gt_p90"`
	PctBooksTokenMaxGt2xP90  float64 `json:"pct_books_token_max_gt_2x_p90"`
	PctBooksChunkCountGtP99  float64 `json:"pct_books_chunk_count_gt_p99"`
}

// MakeFingerprint pools the given per-book stats. configID > 0
// filters to rows built under that config.
func MakeFingerprint(rows []domain.BookChunkStats, configID int) (Fingerprint, error) {
	if configID > 0 {
		filtered := rows[:0:0]
		for _, r := range rows {
			if r.ConfigID == configID {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	if len(rows) == 0 {
		return Fingerprint{}, fmt.Errorf("%w: no chunk stats rows", domain.ErrInvalidInput)
	}

	chunkCounts := make([]float64, len(rows))
	tokenMeans := make([]float64, len(rows))
	tokenStds := make([]float64, len(rows))
	tokenMaxs := make([]float64, len(rows))
	var pooled []float64
	totalChunks := 0

	for i, r := range rows {
		if len(r.TokenCounts) == 0 {
			return Fingerprint{}, fmt.Errorf(
				"%w: book %d missing token_counts for pooled percentiles", domain.ErrInvalidInput, r.BookID)
		}
		chunkCounts[i] = float64(r.ChunkCount)
		tokenMeans[i] = r.TokenMean
		tokenStds[i] = r.TokenStd
		tokenMaxs[i] = float64(r.TokenMax)
		for _, tc := range r.TokenCounts {
			pooled = append(pooled, float64(tc))
		}
		totalChunks += r.ChunkCount
	}

	stdP90 := percentile(tokenStds, 90)
	maxP90 := percentile(tokenMaxs, 90)
	ccP99 := percentile(chunkCounts, 99)

	return Fingerprint{
		ConfigID:    configID,
		BookCount:   len(rows),
		TotalChunks: totalChunks,

		BookChunkCountMedian: percentile(chunkCounts, 50),
		BookChunkCountP90:    percentile(chunkCounts, 90),

		BookTokenMeanMedian: percentile(tokenMeans, 50),
		BookTokenMeanP90:    percentile(tokenMeans, 90),

		BookTokenStdMedian: percentile(tokenStds, 50),
		BookTokenStdP90:    stdP90,

		BookTokenMaxMedian: percentile(tokenMaxs, 50),
		BookTokenMaxP90:    maxP90,

		ChunkTokenP10: percentile(pooled, 10),
		ChunkTokenP50: percentile(pooled, 50),
		ChunkTokenP90: percentile(pooled, 90),
		ChunkTokenP99: percentile(pooled, 99),

		PctBooksTokenStdGtP90:   pctAbove(tokenStds, stdP90),
		PctBooksTokenMaxGt2xP90: pctAbove(tokenMaxs, 2*maxP90),
		PctBooksChunkCountGtP99: pctAbove(chunkCounts, ccP99),
	}, nil
}

// percentile computes the p-th percentile with linear interpolation
// between closest ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func pctAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v > threshold {
			n++
		}
	}
	return float64(n) / float64(len(values)) * 100
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func median(values []int) float64 {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// sampleStd is the sample standard deviation; 0 for a single value.
func sampleStd(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := float64(v) - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func minInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
