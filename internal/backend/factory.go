package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"canteen/internal/amqp"
	"canteen/internal/log"
	"canteen/internal/storage"
	"canteen/internal/store/file"
	"canteen/internal/store/memory"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case FileBackend:
		res = f.createFileBackend(config)
	default:
		res = f.createMemoryBackend()
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change notifications",
				log.FieldError, err.Error())
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange, "queue", config.AMQPQueue)
			res.Publisher = client
			res.Cleanup = chainCleanup(res.Cleanup, client.Close)
		}
	}
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{
		Store:   repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) *Result {
	f.logger.Info("Initialized file backend", "path", config.DataFile)
	return &Result{
		Store: file.New(config.DataFile),
		Ready: func(context.Context) error {
			_, err := os.Stat(config.DataFile)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat ledger file: %w", err)
			}
			return nil
		},
	}
}

func (f *DefaultFactory) createMemoryBackend() *Result {
	f.logger.Info("Initialized memory backend")
	return &Result{Store: memory.New()}
}

// chainCleanup runs both cleanups and joins their errors.
func chainCleanup(first, second CleanupFunc) CleanupFunc {
	return func() error {
		var errs []error
		if first != nil {
			errs = append(errs, first())
		}
		if second != nil {
			errs = append(errs, second())
		}
		return errors.Join(errs...)
	}
}
