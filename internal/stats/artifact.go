package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// RunArtifact is the JSON statistics record written once per
// ingestion run. Stable format, not wire-versioned.
type RunArtifact struct {
	ConfigID    int                     `json:"config_id"`
	StartedAt   time.Time               `json:"started_at"`
	BookStats   []domain.BookChunkStats `json:"book_stats"`
	Fingerprint *Fingerprint            `json:"fingerprint,omitempty"`
}

// WriteRunArtifact writes the artifact under dir, named by config id
// and start timestamp, and returns the file path.
func WriteRunArtifact(dir string, artifact RunArtifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create stats dir: %w", err)
	}

	name := fmt.Sprintf("ingest_cfg%d_%s.json", artifact.ConfigID, artifact.StartedAt.Format("2006-01-02_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal stats artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write stats artifact: %w", err)
	}
	return path, nil
}
