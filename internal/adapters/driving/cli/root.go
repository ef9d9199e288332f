// Package cli implements the cobra command tree for bookrag.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/bookrag/internal/adapters/driven/config/file"
	ollamaembed "github.com/veldt-labs/bookrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/veldt-labs/bookrag/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/veldt-labs/bookrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/veldt-labs/bookrag/internal/adapters/driven/llm/openai"
	"github.com/veldt-labs/bookrag/internal/adapters/driven/source/filecache"
	"github.com/veldt-labs/bookrag/internal/adapters/driven/source/gutendex"
	"github.com/veldt-labs/bookrag/internal/adapters/driven/storage/sqlite"
	"github.com/veldt-labs/bookrag/internal/adapters/driven/vectorstore/azsearch"
	"github.com/veldt-labs/bookrag/internal/adapters/driven/vectorstore/memory"
	"github.com/veldt-labs/bookrag/internal/adapters/driven/vectorstore/qdrant"
	"github.com/veldt-labs/bookrag/internal/batch"
	"github.com/veldt-labs/bookrag/internal/budget"
	"github.com/veldt-labs/bookrag/internal/chunker"
	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
	"github.com/veldt-labs/bookrag/internal/core/ports/driving"
	"github.com/veldt-labs/bookrag/internal/core/services"
	"github.com/veldt-labs/bookrag/internal/logger"
	"github.com/veldt-labs/bookrag/internal/tokenizer"
)

var version = "0.1.0"

var (
	verbose   bool
	configDir string
)

// Services used by the commands. Wired on first use by ensureServices;
// tests inject their own implementations.
var (
	ingestService driving.Ingestor
	answerService driving.Answerer
)

var rootCmd = &cobra.Command{
	Use:   "bookrag",
	Short: "Ingest public-domain books and ask questions about them",
	Long: `bookrag downloads plain-text books from Project Gutenberg, chunks and
embeds them into a vector index, and answers natural-language questions
grounded on the indexed chunks.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default ~/.bookrag)")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// ensureServices wires the production adapters on first use. Commands
// that need no services (version) never trigger it.
func ensureServices() error {
	if ingestService != nil && answerService != nil {
		return nil
	}
	return buildServices()
}

func buildServices() error {
	base, err := resolveBaseDir()
	if err != nil {
		return err
	}

	configStore, err := file.NewStore(base)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := configStore.Config()
	logger.Debug("loaded config %s (config_id %d)", configStore.Path(), cfg.ConfigID)

	var counter driven.Tokenizer
	if tik, err := tokenizer.NewTiktoken(tokenizer.DefaultEncoding); err != nil {
		logger.Warn("tiktoken unavailable, falling back to estimator: %v", err)
		counter = tokenizer.Estimator{}
	} else {
		counter = tik
	}

	embedder, reranker, composer, err := buildProviders(cfg)
	if err != nil {
		return err
	}

	store, err := buildVectorStore(cfg, embedder.Dimension())
	if err != nil {
		return err
	}

	books, err := sqlite.NewStore(filepath.Join(base, "data"))
	if err != nil {
		return fmt.Errorf("metadata store: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(base, "prompts"))
	if err != nil {
		return fmt.Errorf("prompt store: %w", err)
	}

	source := filecache.New(gutendex.NewSource(gutendex.Config{}), filepath.Join(base, "cache"))
	chunk := chunker.NewFixedSize(counter,
		chunker.WithChunkSize(cfg.Ingestion.ChunkSize),
		chunker.WithOverlap(cfg.Ingestion.ChunkOverlap))
	packer := batch.NewPacker(counter)
	tracker := budget.NewTracker(cfg.Ingestion.TokensPerMin, cfg.Ingestion.RequestsPerMin)

	ingestService = services.NewIngestService(cfg, source, chunk, embedder, store, books,
		packer, tracker, filepath.Join(base, "stats"))
	answerService = services.NewAnswerService(cfg, embedder, store, reranker, composer,
		prompts, counter, tracker)
	return nil
}

// buildProviders returns the embedding service and the rerank and
// generation LLMs. BOOKRAG_PROVIDER=ollama selects a local Ollama
// server; anything else uses the OpenAI API (or a compatible endpoint
// via OPENAI_BASE_URL).
func buildProviders(cfg domain.Config) (driven.EmbeddingService, driven.LLMService, driven.LLMService, error) {
	if os.Getenv("BOOKRAG_PROVIDER") == "ollama" {
		baseURL := os.Getenv("OLLAMA_BASE_URL")
		embedder := ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:   baseURL,
			Model:     cfg.Ingestion.EmbedModel,
			Dimension: cfg.Ingestion.EmbedDim,
		})
		reranker := ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: baseURL,
			Model:   cfg.Rerank.Model,
		})
		composer := reranker
		if cfg.Generation.Model != cfg.Rerank.Model {
			composer = ollamallm.NewLLMService(ollamallm.Config{
				BaseURL: baseURL,
				Model:   cfg.Generation.Model,
			})
		}
		return embedder, reranker, composer, nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, nil, nil, errors.New("OPENAI_API_KEY is not set")
	}
	baseURL := os.Getenv("OPENAI_BASE_URL")

	embedder, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   cfg.Ingestion.EmbedModel,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("embedding service: %w", err)
	}

	reranker, err := openaillm.NewLLMService(openaillm.Config{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   cfg.Rerank.Model,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("rerank llm: %w", err)
	}
	var composer driven.LLMService = reranker
	if cfg.Generation.Model != cfg.Rerank.Model {
		composer, err = openaillm.NewLLMService(openaillm.Config{
			APIKey:  apiKey,
			BaseURL: baseURL,
			Model:   cfg.Generation.Model,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("generation llm: %w", err)
		}
	}
	return embedder, reranker, composer, nil
}

func buildVectorStore(cfg domain.Config, dim domain.Dimension) (driven.VectorStore, error) {
	switch cfg.Retrieval.Backend {
	case "qdrant":
		url := os.Getenv("QDRANT_URL")
		if url == "" {
			url = "http://localhost:6333"
		}
		return qdrant.NewStore(qdrant.Config{
			URL:        url,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			Collection: cfg.Retrieval.Collection,
			Dimension:  dim,
		})
	case "azsearch":
		return azsearch.NewStore(azsearch.Config{
			Endpoint:  os.Getenv("AZURE_SEARCH_ENDPOINT"),
			APIKey:    os.Getenv("AZURE_SEARCH_API_KEY"),
			Index:     cfg.Retrieval.Collection,
			Dimension: dim,
		})
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector store backend %q",
			domain.ErrInvalidInput, cfg.Retrieval.Backend)
	}
}

func resolveBaseDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".bookrag"), nil
}
