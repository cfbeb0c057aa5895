// Package sessions is the entry point presentation layers use to create,
// list and delete incubation sessions and to read their derived timelines.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/domain/models"
	"github.com/mamadbah2/incubator/internal/service/schedule"
)

// ErrSessionNotFound is returned when an id does not match any stored session.
var ErrSessionNotFound = errors.New("session not found")

// Store is the persistence the service needs.
type Store interface {
	Insert(ctx context.Context, session models.IncubationSession) (int64, error)
	ListAll(ctx context.Context) ([]models.IncubationSession, error)
	Delete(ctx context.Context, id int64) error
}

// Service validates user intents, forwards them to the store and derives the
// schedule for today.
type Service struct {
	store    Store
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the timezone whose calendar date counts as today.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService constructs the session service.
func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:    store,
		logger:   logger,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date in the configured location.
func (s *Service) Today() time.Time {
	return models.DateOf(s.now().In(s.location))
}

// Create validates and persists a new session starting today.
func (s *Service) Create(ctx context.Context, name string, batches []models.Batch) (models.IncubationSession, error) {
	draft := &models.Draft{Name: name, Batches: batches}
	return s.commit(ctx, draft)
}

// CreateFromDraft commits a creation buffer. The draft is reset only when the
// session was stored; on any error it is left as the caller filled it.
func (s *Service) CreateFromDraft(ctx context.Context, draft *models.Draft) (models.IncubationSession, error) {
	if draft == nil {
		return models.IncubationSession{}, &models.ValidationError{Field: "draft", Reason: "must not be nil"}
	}
	session, err := s.commit(ctx, draft)
	if err != nil {
		return models.IncubationSession{}, err
	}
	draft.Reset()
	return session, nil
}

func (s *Service) commit(ctx context.Context, draft *models.Draft) (models.IncubationSession, error) {
	session, err := draft.Build(s.Today())
	if err != nil {
		s.logger.Debug("session rejected", zap.Error(err))
		return models.IncubationSession{}, err
	}

	id, err := s.store.Insert(ctx, session)
	if err != nil {
		s.logger.Error("failed to store session", zap.String("name", session.Name), zap.Error(err))
		return models.IncubationSession{}, fmt.Errorf("create session: %w", err)
	}

	// Re-read so callers see exactly what was persisted. The row is committed
	// once Insert returns an id; a failed reload falls back to the built value.
	stored, err := s.find(ctx, id)
	if err != nil {
		s.logger.Warn("created session could not be reloaded", zap.Int64("id", id), zap.Error(err))
		stored = session
		stored.ID = id
	}
	s.logger.Info("session created", zap.Int64("id", id), zap.String("name", stored.Name), zap.Int("batches", len(stored.Batches)))
	return stored, nil
}

// Delete removes a session. Unknown ids succeed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete session", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns every stored session, newest first, as of now.
func (s *Service) List(ctx context.Context) ([]models.IncubationSession, error) {
	sessions, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Views derives today's timeline for every session.
func (s *Service) Views(ctx context.Context) ([]schedule.View, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.BuildAll(sessions, s.Today()), nil
}

// View derives today's timeline for one session.
func (s *Service) View(ctx context.Context, id int64) (schedule.View, error) {
	session, err := s.find(ctx, id)
	if err != nil {
		return schedule.View{}, err
	}
	return schedule.Build(session, s.Today()), nil
}

func (s *Service) find(ctx context.Context, id int64) (models.IncubationSession, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return models.IncubationSession{}, err
	}
	for _, session := range sessions {
		if session.ID == id {
			return session, nil
		}
	}
	return models.IncubationSession{}, fmt.Errorf("%w: %d", ErrSessionNotFound, id)
}
