// The fintrack-worker consumes change events from the bus and appends
// them as JSON lines to an audit log. It is the out-of-process side of
// the change-event pipeline; the API server keeps working without it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

// auditWriter appends one JSON line per change event.
type auditWriter struct {
	mu   sync.Mutex
	file *os.File
}

func newAuditWriter(path string) (*auditWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &auditWriter{file: f}, nil
}

func (a *auditWriter) Record(event *amqp.ChangeEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

func (a *auditWriter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.DefaultConfig().Level,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	cfg := config.Load()
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL must be set for the worker")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	audit, err := newAuditWriter(cfg.AuditLogPath)
	if err != nil {
		logger.Error("failed to open audit log", log.FieldError, err, log.FieldFile, cfg.AuditLogPath)
		os.Exit(1)
	}
	defer audit.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started",
		"queue", cfg.AMQPQueue,
		log.FieldFile, cfg.AuditLogPath)

	err = client.ConsumeChanges(ctx, func(event *amqp.ChangeEvent) error {
		if err := audit.Record(event); err != nil {
			return err
		}
		logger.InfoContext(ctx, "change event recorded",
			log.FieldCollection, event.Collection,
			"action", event.Action,
			log.FieldEntityID, event.EntityID)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("worker stopped gracefully")
}
