// Package storage holds the append-only JSONL logs: the job store with its
// rebuildable lookup index, and the write-only submission log.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/veranemoloko/magnet-dispatch/internal/domain"
)

// ErrJobNotFound is returned by Get for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobStore is an append-only, newline-delimited log of job records plus an
// in-memory index from job id to the byte offset of its latest record. The
// log is the source of truth; the index is rebuilt from it at startup.
// Records are never rewritten in place.
type JobStore struct {
	path string

	mu   sync.Mutex // serializes appends; single-writer discipline
	file *os.File
	size int64

	indexMu sync.RWMutex
	index   map[string]int64
}

// NewJobStore opens (or creates) the log at path and rebuilds the index by
// a single sequential scan. The last record per job id wins.
func NewJobStore(path string) (*JobStore, error) {
	path = filepath.Clean(path)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open job log: %w", err)
	}

	store := &JobStore{
		path:  path,
		file:  file,
		index: make(map[string]int64),
	}

	if err := store.rebuildIndex(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to rebuild job index: %w", err)
	}

	slog.Info("job store initialized", "path", path, "jobs_count", len(store.index))
	return store, nil
}

func (s *JobStore) rebuildIndex() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var offset int64
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			var rec domain.JobRecord
			if jsonErr := json.Unmarshal(line, &rec); jsonErr == nil && rec.JobID != "" {
				s.index[rec.JobID] = offset
			}
			offset += int64(len(line))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	s.size = offset
	return nil
}

// Append writes one record and flushes it to stable storage before
// returning. Appends are serialized; a failed append never corrupts
// records already on disk.
func (s *JobStore) Append(rec *domain.JobRecord) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}
	encoded = append(encoded, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	offset := s.size
	if _, err := s.file.Write(encoded); err != nil {
		return fmt.Errorf("failed to append job record: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync job log: %w", err)
	}
	s.size += int64(len(encoded))

	s.indexMu.Lock()
	s.index[rec.JobID] = offset
	s.indexMu.Unlock()

	slog.Debug("job record appended", "job_id", rec.JobID, "status", rec.Status)
	return nil
}

// Get returns the latest record for jobID, or ErrJobNotFound. Lookups run
// concurrently with appends and observe either the pre- or post-append
// state, never a partial record.
func (s *JobStore) Get(jobID string) (*domain.JobRecord, error) {
	s.indexMu.RLock()
	offset, ok := s.index[jobID]
	s.indexMu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job log: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek job log: %w", err)
	}

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read job record: %w", err)
	}

	var rec domain.JobRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode job record: %w", err)
	}
	return &rec, nil
}

// Close releases the underlying log file.
func (s *JobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
