package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [book-id...]",
	Short: "Download, chunk, embed and index books",
	Long: `Fetches the given Project Gutenberg book ids, chunks and embeds their
text under the configured rate budget, and upserts the chunks into the
vector index. Books already present in the index are skipped.

Without arguments, the default corpus is ingested.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	bookIDs, err := parseBookIDs(args)
	if err != nil {
		return err
	}
	if len(bookIDs) == 0 {
		bookIDs = domain.DefaultBookIDs
	}

	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	cmd.Printf("Ingesting %d books...\n", len(bookIDs))

	report, err := ingestService.Ingest(ctx, bookIDs)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if report.Message != "" {
		cmd.Println(report.Message)
	}
	cmd.Printf("Uploaded %d of %d requested books.\n", len(report.Uploaded), len(bookIDs))
	return nil
}

// parseBookIDs converts positional args to positive Gutenberg ids.
func parseBookIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid book id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
