// Package metastore persists merged extraction documents as pretty-printed
// JSON files on the local filesystem, one file per repository.
package metastore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gitmeta/internal/domain/entity"
	pkgconfig "gitmeta/pkg/config"
)

// DefaultDir is where documents land when no directory is configured.
const DefaultDir = "extracted_metadata"

// FileStore writes one JSON document per repository under a base
// directory. Re-extracting the same repository overwrites the previous
// document.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, logger: logger}
}

// NewFileStoreFromEnv creates a file store rooted at METADATA_DIR.
func NewFileStoreFromEnv(logger *slog.Logger) *FileStore {
	return NewFileStore(pkgconfig.GetEnvString("METADATA_DIR", DefaultDir), logger)
}

// Save writes the document to {owner}_{repo}_metadata.json under the base
// directory and returns the written path.
func (s *FileStore) Save(ctx context.Context, document map[string]any, target, extractionID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	owner, repo, err := entity.ParseTarget(target)
	if err != nil {
		return "", fmt.Errorf("derive document name: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create metadata dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_metadata.json", sanitize(owner), sanitize(repo))
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	data = append(data, '\n')

	// Write via a temp file and rename so readers never observe a
	// partially written document.
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp document: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize document: %w", err)
	}

	s.logger.Debug("extraction document written",
		slog.String("path", path),
		slog.String("extraction_id", extractionID),
		slog.Int("bytes", len(data)))
	return path, nil
}

// sanitize keeps filenames safe for any filesystem.
func sanitize(part string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, part)
}
