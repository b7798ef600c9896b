package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/alkoparse/alkoteka-crawler/internal/catalog"
)

// JSONL writes one JSON object per line to a local file.
type JSONL struct {
	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	logger *zap.Logger
}

// NewJSONL opens (or creates) the output file, creating parent directories
// as needed. Existing content is appended to.
func NewJSONL(path string, logger *zap.Logger) (*JSONL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create sink dir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open sink file %s: %w", path, err)
	}
	return &JSONL{
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger,
	}, nil
}

// Emit appends one item as a JSON line.
func (s *JSONL) Emit(ctx context.Context, item *catalog.Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(item); err != nil {
		return fmt.Errorf("encode item %s: %w", item.URL, err)
	}
	return nil
}

// Close flushes and closes the output file.
func (s *JSONL) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close sink file: %w", err)
	}
	return nil
}
