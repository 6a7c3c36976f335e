// Package ingest loads snippet collection files into the store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nitobe/mitsukeru/internal/models"
	"github.com/nitobe/mitsukeru/internal/storage"
)

// Loader reads JSON snippet files and upserts their contents.
type Loader struct {
	store  storage.Store
	logger *zap.Logger
}

// NewLoader creates a snippet loader.
func NewLoader(store storage.Store, logger *zap.Logger) *Loader {
	return &Loader{store: store, logger: logger}
}

// LoadFile parses one snippet collection file and upserts its snippets.
// Returns the number of snippets loaded.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file models.SnippetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i, snippet := range file.Snippets {
		if snippet.ID == "" {
			return 0, fmt.Errorf("%s: snippet %d has no id", path, i)
		}
		if snippet.Code == "" {
			return 0, fmt.Errorf("%s: snippet %q has no code", path, snippet.ID)
		}
	}

	if err := l.store.BatchUpsertSnippets(ctx, file.Snippets); err != nil {
		return 0, fmt.Errorf("failed to store snippets from %s: %w", path, err)
	}

	l.logger.Info("loaded snippet file",
		zap.String("path", path),
		zap.Int("snippets", len(file.Snippets)))

	return len(file.Snippets), nil
}

// LoadDir loads every .json file in dir (non-recursive). Returns the total
// number of snippets loaded.
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read snippets directory: %w", err)
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		n, err := l.LoadFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
