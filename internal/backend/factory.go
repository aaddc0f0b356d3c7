package backend

import (
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/storage"
)

// Config holds what the factory needs to build a backend.
type Config struct {
	Type Type

	// json backend
	DataDir      string
	LenientReads bool
	LockTimeout  time.Duration

	// sqlite backend
	SQLiteDBPath string
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type %q: must be one of %v", c.Type, Types())
	}
	switch c.Type {
	case JSONBackend:
		if c.DataDir == "" {
			return fmt.Errorf("data directory is required for the json backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("database path is required for the sqlite backend")
		}
	}
	return nil
}

// New constructs the configured Store.
func New(cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case JSONBackend:
		fs, err := storage.NewFileStore(storage.FileStoreConfig{
			Dir:          cfg.DataDir,
			LenientReads: cfg.LenientReads,
			LockTimeout:  cfg.LockTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize file store: %w", err)
		}
		logger.Info("initialized json backend",
			"data_dir", cfg.DataDir,
			"lenient_reads", cfg.LenientReads)
		return storage.NewRepository(fs), nil

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		logger.Info("initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil

	case MemoryBackend:
		logger.Info("initialized memory backend")
		return storage.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
