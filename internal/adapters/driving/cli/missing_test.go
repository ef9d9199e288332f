package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingCmd_Use(t *testing.T) {
	assert.Equal(t, "missing [book-id...]", missingCmd.Use)
}

func TestMissingCmd_ListsMissingIDs(t *testing.T) {
	ingestor := &stubIngestor{missing: []int{2701, 1661}}
	cleanup := setupTestServices(ingestor, &stubAnswerer{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"missing", "84", "2701", "1661"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []int{84, 2701, 1661}, ingestor.gotBookIDs)
	assert.Contains(t, buf.String(), "Missing from index: 2701, 1661")
}

func TestMissingCmd_AllPresent(t *testing.T) {
	cleanup := setupTestServices(&stubIngestor{}, &stubAnswerer{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"missing", "84"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "All requested books are already indexed.")
}
