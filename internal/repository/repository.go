// Package repository defines the session store contract and opens the
// backend selected in configuration.
package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/config"
	"github.com/mamadbah2/incubator/internal/domain/models"
	"github.com/mamadbah2/incubator/internal/metrics"
	"github.com/mamadbah2/incubator/internal/repository/mongodb"
	"github.com/mamadbah2/incubator/internal/repository/sqlstore"
)

// SessionRepository is the durable collection of incubation sessions.
type SessionRepository interface {
	// Initialize creates the backing structure if it is missing.
	Initialize(ctx context.Context) error
	// Insert persists a session without id and returns the assigned id.
	Insert(ctx context.Context, session models.IncubationSession) (int64, error)
	// ListAll returns every session ordered by start date, newest first.
	ListAll(ctx context.Context) ([]models.IncubationSession, error)
	// Delete removes a session. Unknown ids are not an error.
	Delete(ctx context.Context, id int64) error
	Close(ctx context.Context) error
}

var (
	_ SessionRepository = (*sqlstore.Store)(nil)
	_ SessionRepository = (*mongodb.MongoDBRepository)(nil)
)

// Open connects to the configured backend and initialises it. Every error
// wraps models.ErrStorageUnavailable.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger, m *metrics.Metrics) (SessionRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		repo SessionRepository
		err  error
	)
	switch cfg.Driver {
	case config.DriverSQLite, "":
		repo, err = sqlstore.Open(ctx, sqlstore.SQLite, cfg.SQLitePath, logger, m)
	case config.DriverPostgres:
		repo, err = sqlstore.Open(ctx, sqlstore.Postgres, cfg.PostgresDSN, logger, m)
	case config.DriverMongoDB:
		repo, err = mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger, m)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", models.ErrStorageUnavailable, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(ctx); err != nil {
		_ = repo.Close(ctx)
		return nil, err
	}
	logger.Info("session store ready", zap.String("driver", cfg.Driver))
	return repo, nil
}
