// Package ratelimit enforces the rolling-window creation limit per creator.
// This window is independent of the ledger's lifetime cap; a creator can be
// under one and over the other.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tokengate/internal/ratelimit/ports"
	dErrors "tokengate/pkg/domainerrors"
)

type Service struct {
	store  ports.WindowStore
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store ports.WindowStore, limit int, window time.Duration, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("window store is required")
	}
	if limit < 1 {
		return nil, fmt.Errorf("creation limit must be positive, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("creation window must be positive, got %s", window)
	}

	svc := &Service{
		store:  store,
		limit:  limit,
		window: window,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Allow checks the creator's event count in the rolling window. It returns a
// rate-limited error once the limit is reached; a store failure fails closed.
func (s *Service) Allow(ctx context.Context, creatorID string) error {
	cutoff := s.now().Add(-s.window)

	count, err := s.store.CountSince(ctx, creatorID, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "window store unavailable, denying request",
			"creator", creatorID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "creation rate limiter unavailable")
	}

	if count >= s.limit {
		s.logger.InfoContext(ctx, "creation rate limit reached",
			"creator", creatorID,
			"count", count,
			"limit", s.limit,
		)
		return dErrors.New(dErrors.CodeRateLimited, "weekly token creation limit reached")
	}

	return nil
}

// RecordCreation appends a window event for the creator. Call it only after
// the creation has been committed to the ledger.
func (s *Service) RecordCreation(ctx context.Context, creatorID string) error {
	if err := s.store.RecordEvent(ctx, creatorID, s.now()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record creation event")
	}
	return nil
}
