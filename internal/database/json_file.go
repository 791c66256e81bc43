package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/example/ebbinghausbot/pkg/models"
	"go.uber.org/zap"
)

// DefaultDataFile is the data file used when none is configured
const DefaultDataFile = "user_data.json"

// FileStore persists topics in a single JSON document keyed by user ID
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a file-backed persister
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if path == "" {
		path = DefaultDataFile
	}
	return &FileStore{path: path, logger: logger}
}

// Load reads the data file. A missing file yields an empty mapping.
func (s *FileStore) Load(ctx context.Context) (map[models.UserID][]models.Topic, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("data file not found, starting fresh", zap.String("path", s.path))
		return map[models.UserID][]models.Topic{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var raw map[string][]topicRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	topics, err := decodeAll(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	s.logger.Info("data file loaded", zap.String("path", s.path), zap.Int("users", len(topics)))
	return topics, nil
}

// Save replaces the data file atomically
func (s *FileStore) Save(ctx context.Context, topics map[models.UserID][]models.Topic) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(encodeAll(topics)); err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	s.logger.Debug("data file saved", zap.String("path", s.path), zap.Int("users", len(topics)))
	return nil
}
