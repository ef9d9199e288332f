package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driving"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [book-id...]", ingestCmd.Use)
}

func TestIngestCmd_RejectsNonNumericID(t *testing.T) {
	cleanup := setupTestServices(&stubIngestor{}, &stubAnswerer{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "moby-dick"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid book id "moby-dick"`)
}

func TestIngestCmd_ExecutesWithIDs(t *testing.T) {
	ingestor := &stubIngestor{report: driving.IngestReport{
		Uploaded: []domain.Book{
			{ID: 84, Title: "Frankenstein", IngestedAt: time.Now()},
		},
		Message: "Inserted book 84 (Frankenstein).",
	}}
	cleanup := setupTestServices(ingestor, &stubAnswerer{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "84", "42"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []int{84, 42}, ingestor.gotBookIDs)
	assert.Contains(t, buf.String(), "Inserted book 84 (Frankenstein).")
	assert.Contains(t, buf.String(), "Uploaded 1 of 2 requested books.")
}

func TestIngestCmd_DefaultsToKnownCorpus(t *testing.T) {
	ingestor := &stubIngestor{}
	cleanup := setupTestServices(ingestor, &stubAnswerer{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBookIDs, ingestor.gotBookIDs)
}
