// Package storage persists the collection files and offers typed
// repositories over them. Each collection is one JSON array on disk;
// writes replace the whole file atomically.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fintrack/internal/apperr"
)

const defaultLockTimeout = 5 * time.Second

// FileStoreConfig configures a FileStore.
type FileStoreConfig struct {
	// Dir is the directory holding the collection files.
	Dir string
	// LenientReads degrades corrupt-but-present files to an empty
	// collection (with an error log) instead of failing. Missing files
	// read as empty collections in both modes.
	LenientReads bool
	// LockTimeout bounds the wait for a per-file write lock.
	LockTimeout time.Duration
}

// FileStore reads and writes named JSON array files with per-file mutual
// exclusion between writers. Readers never take the lock: writes go
// through a temp sibling plus atomic rename, so a concurrent reader sees
// either the old or the new complete file.
type FileStore struct {
	dir         string
	lenient     bool
	lockTimeout time.Duration

	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewFileStore creates the data directory if needed.
func NewFileStore(cfg FileStoreConfig) (*FileStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	timeout := cfg.LockTimeout
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	return &FileStore{
		dir:         cfg.Dir,
		lenient:     cfg.LenientReads,
		lockTimeout: timeout,
		locks:       make(map[string]chan struct{}),
	}, nil
}

func (s *FileStore) path(file string) string {
	return filepath.Join(s.dir, file)
}

// sem returns the binary semaphore guarding one file.
func (s *FileStore) sem(file string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[file]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[file] = ch
	}
	return ch
}

// acquire takes the file's write lock, bounded by the configured timeout
// and the caller's context. The returned release function must be called
// exactly once.
func (s *FileStore) acquire(ctx context.Context, file string) (func(), error) {
	ch := s.sem(file)
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, &apperr.StorageError{File: file, Op: "lock", Err: ctx.Err()}
	case <-timer.C:
		return nil, &apperr.StorageError{File: file, Op: "lock", Err: apperr.ErrLockTimeout}
	}
}

// Read parses the file into v, which must point at a slice. A missing
// file yields an empty collection; a corrupt or non-array file is a
// StorageError unless lenient reads are configured.
func (s *FileStore) Read(file string, v any) error {
	data, err := os.ReadFile(s.path(file))
	if os.IsNotExist(err) {
		slog.Debug("collection file absent, starting empty", "file", file)
		return json.Unmarshal([]byte("[]"), v)
	}
	if err != nil {
		return &apperr.StorageError{File: file, Op: "read", Err: err}
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return s.corrupt(file, fmt.Errorf("content is not a JSON array"), v)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return s.corrupt(file, err, v)
	}
	return nil
}

func (s *FileStore) corrupt(file string, cause error, v any) error {
	if s.lenient {
		slog.Error("corrupt collection file, degrading to empty collection",
			"file", file, "error", cause)
		return json.Unmarshal([]byte("[]"), v)
	}
	return &apperr.StorageError{File: file, Op: "read", Err: cause}
}

// Write serializes v and replaces the file, holding the file's lock for
// the duration of the write.
func (s *FileStore) Write(ctx context.Context, file string, v any) error {
	release, err := s.acquire(ctx, file)
	if err != nil {
		return err
	}
	defer release()
	return s.writeLocked(file, v)
}

// writeLocked performs the temp-write-then-rename dance. Callers must
// hold the file's lock. The temp sibling never survives: it is renamed on
// success and removed on failure.
func (s *FileStore) writeLocked(file string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &apperr.StorageError{File: file, Op: "write", Err: err}
	}
	target := s.path(file)
	tmp := target + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &apperr.StorageError{File: file, Op: "write", Err: err}
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		os.Remove(tmp)
		return &apperr.StorageError{File: file, Op: "write", Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return &apperr.StorageError{File: file, Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &apperr.StorageError{File: file, Op: "write", Err: err}
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return &apperr.StorageError{File: file, Op: "write", Err: err}
	}
	return nil
}
