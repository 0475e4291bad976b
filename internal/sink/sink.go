// Package sink persists analysis result envelopes. Two implementations:
// local pretty-printed JSON files for standalone runs, and the
// authenticated API for connected runs.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"socialpulse/internal/apiclient"
	"socialpulse/pkg/models"
)

// Sink persists one module's result envelope. Writes are idempotent: a
// repeat write for the same module overwrites the previous one.
type Sink interface {
	Persist(ctx context.Context, module, slug string, result *models.AnalysisResult) error
}

// FileSink writes <outputs_dir>/<module>_<slug>.json with indented JSON.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Persist(_ context.Context, module, slug string, result *models.AnalysisResult) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating outputs dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", module, slug))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// APISink upserts the envelope through the API, keyed by (client, module).
type APISink struct {
	client   apiclient.Client
	clientID string
}

func NewAPISink(client apiclient.Client, clientID string) *APISink {
	return &APISink{client: client, clientID: clientID}
}

func (s *APISink) Persist(ctx context.Context, module, _ string, result *models.AnalysisResult) error {
	if err := s.client.PutInsight(ctx, s.clientID, module, result); err != nil {
		return fmt.Errorf("persisting %s via api: %w", module, err)
	}
	return nil
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*APISink)(nil)
)
