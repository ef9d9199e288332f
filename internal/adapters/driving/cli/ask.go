package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/bookrag/internal/core/ports/driving"
)

var (
	askTopK int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed books",
	Long: `Embeds the question, searches the vector index, re-ranks the hits and
composes an answer grounded on the best chunks, with citations.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0,
		"number of context chunks (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	ctx := context.Background()
	resp, err := answerService.Answer(ctx, args[0], askTopK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, resp)
	}
	return outputAnswerText(cmd, resp)
}

func outputAnswerJSON(cmd *cobra.Command, resp driving.QueryResponse) error {
	type citation struct {
		ChunkID string `json:"chunk_id"`
		BookID  int    `json:"book_id"`
	}
	out := struct {
		Answer    string     `json:"answer"`
		Citations []citation `json:"citations"`
	}{Answer: resp.Answer}
	for _, c := range resp.Citations {
		out.Citations = append(out.Citations, citation{ChunkID: c.ID, BookID: c.BookID})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, resp driving.QueryResponse) error {
	cmd.Println(resp.Answer)
	if len(resp.Citations) == 0 {
		return nil
	}

	cmd.Println()
	cmd.Println("Sources:")
	for _, c := range resp.Citations {
		cmd.Printf("  [book %d] %s\n", c.BookID, c.ID)
	}
	return nil
}
