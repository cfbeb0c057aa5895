// Package sqlstore persists incubation sessions in a single SQL table, one row
// per session with the batch list kept as an encoded text blob.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/domain/models"
	"github.com/mamadbah2/incubator/internal/metrics"
	"github.com/mamadbah2/incubator/internal/repository/codec"
)

// Store is a database/sql backed session store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Open connects to dsn with the dialect's driver and verifies the connection.
// For SQLite, dsn is a file path whose parent directories are created.
func Open(ctx context.Context, dialect Dialect, dsn string, logger *zap.Logger, m *metrics.Metrics) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty %s dsn", models.ErrStorageUnavailable, dialect.Name)
	}
	if dialect.DriverName == SQLite.DriverName {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: create dirs: %w", models.ErrStorageUnavailable, err)
		}
	}
	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", models.ErrStorageUnavailable, dialect.Name, err)
	}
	if dialect.DriverName == SQLite.DriverName {
		// One connection keeps the single-writer model of the file simple.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", models.ErrStorageUnavailable, dialect.Name, err)
	}
	return New(db, dialect, logger, m)
}

// New wraps an existing handle.
func New(db *sql.DB, dialect Dialect, logger *zap.Logger, m *metrics.Metrics) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db is nil", models.ErrStorageUnavailable)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, dialect: dialect, logger: logger, metrics: m}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Initialize creates the sessions table when it does not exist yet.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.CreateDDL); err != nil {
		return fmt.Errorf("%w: create sessions table: %w", models.ErrStorageUnavailable, err)
	}
	s.logger.Debug("sessions table ready", zap.String("dialect", s.dialect.Name))
	return nil
}

// Insert stores a new session and returns the identifier assigned by the database.
// The row and its id are produced by one statement inside one transaction.
func (s *Store) Insert(ctx context.Context, session models.IncubationSession) (id int64, retErr error) {
	defer s.metrics.ObserveStore("insert")()

	blob, err := codec.EncodeBatches(session.Batches)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", models.ErrStorageWrite, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin insert: %w", models.ErrStorageWrite, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	startDate := models.DateOf(session.StartDate).Format(models.DateLayout)
	if err := tx.QueryRowContext(ctx, s.dialect.InsertSQL, session.Name, startDate, blob).Scan(&id); err != nil {
		return 0, fmt.Errorf("%w: insert session: %w", models.ErrStorageWrite, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit insert: %w", models.ErrStorageWrite, err)
	}

	s.metrics.SessionCreated()
	s.logger.Info("session stored", zap.Int64("id", id), zap.String("name", session.Name), zap.Int("batches", len(session.Batches)))
	return id, nil
}

// ListAll returns every session, newest start date first. A row whose batch
// blob cannot be decoded is still returned, with no batches and LoadWarning set.
func (s *Store) ListAll(ctx context.Context) ([]models.IncubationSession, error) {
	defer s.metrics.ObserveStore("list")()

	rows, err := s.db.QueryContext(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: select sessions: %w", models.ErrStorageRead, err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]models.IncubationSession, 0)
	for rows.Next() {
		var (
			session   models.IncubationSession
			startDate any
			blob      string
		)
		if err := rows.Scan(&session.ID, &session.Name, &startDate, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan session: %w", models.ErrStorageRead, err)
		}
		session.StartDate, err = scanDate(startDate)
		if err != nil {
			return nil, fmt.Errorf("%w: session %d: %w", models.ErrStorageRead, session.ID, err)
		}

		batches, err := codec.DecodeBatches(blob)
		if err != nil {
			s.metrics.DecodeFailed()
			s.logger.Warn("session batches could not be decoded, loading it empty",
				zap.Int64("id", session.ID),
				zap.String("blob", blob),
				zap.Error(err))
			batches = []models.Batch{}
			session.LoadWarning = err.Error()
		}
		session.Batches = batches
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %w", models.ErrStorageRead, err)
	}
	return sessions, nil
}

// Delete removes the session with id. Unknown ids are not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	defer s.metrics.ObserveStore("delete")()

	res, err := s.db.ExecContext(ctx, s.dialect.DeleteSQL, id)
	if err != nil {
		return fmt.Errorf("%w: delete session %d: %w", models.ErrStorageWrite, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		s.logger.Debug("rows affected unavailable", zap.Error(err))
		return nil
	}
	if affected > 0 {
		s.metrics.SessionDeleted()
		s.logger.Info("session deleted", zap.Int64("id", id))
	} else {
		s.logger.Debug("delete of unknown session ignored", zap.Int64("id", id))
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// scanDate accepts the shapes drivers hand back for a DATE column: pgx and
// modernc return time.Time, plain text columns return strings or bytes.
func scanDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return models.DateOf(v), nil
	case string:
		return models.ParseDate(v)
	case []byte:
		return models.ParseDate(string(v))
	case nil:
		return time.Time{}, errors.New("start_date is null")
	default:
		return time.Time{}, fmt.Errorf("unsupported start_date type %T", value)
	}
}
