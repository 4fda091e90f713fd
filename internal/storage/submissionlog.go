package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/veranemoloko/magnet-dispatch/internal/domain"
)

// SubmissionLog is the append-only record of every raw submission,
// accepted or rejected. The pipeline only ever writes to it.
type SubmissionLog struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewSubmissionLog opens (or creates) the log at path.
func NewSubmissionLog(path string) (*SubmissionLog, error) {
	path = filepath.Clean(path)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission log: %w", err)
	}
	slog.Info("submission log initialized", "path", path)
	return &SubmissionLog{file: file, path: path}, nil
}

// Append writes one entry and flushes it before returning.
func (l *SubmissionLog) Append(entry *domain.SubmissionEntry) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal submission entry: %w", err)
	}
	encoded = append(encoded, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(encoded); err != nil {
		return fmt.Errorf("failed to append submission entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync submission log: %w", err)
	}
	return nil
}

// Close releases the underlying log file.
func (l *SubmissionLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
