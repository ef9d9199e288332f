package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

var missingCmd = &cobra.Command{
	Use:   "missing [book-id...]",
	Short: "List requested books absent from the vector index",
	Long: `Scans the vector index and reports which of the requested book ids have
no chunks stored. Without arguments, the default corpus is checked.`,
	RunE: runMissing,
}

func init() {
	rootCmd.AddCommand(missingCmd)
}

func runMissing(cmd *cobra.Command, args []string) error {
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
	missing, err := ingestService.MissingBookIDs(ctx, bookIDs)
	if err != nil {
		return fmt.Errorf("missing check failed: %w", err)
	}

	if len(missing) == 0 {
		cmd.Println("All requested books are already indexed.")
		return nil
	}

	ids := make([]string, len(missing))
	for i, id := range missing {
		ids[i] = fmt.Sprintf("%d", id)
	}
	cmd.Printf("Missing from index: %s\n", strings.Join(ids, ", "))
	return nil
}
