// Package store persists the manually-set nice/naughty status per handle.
// Records are durable and independent of the verdict cache lifecycle.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sleighlabs/nicelist/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrStoreUnavailable indicates the durable store could not be reached.
	ErrStoreUnavailable = errors.New("status store unavailable")
	// ErrInvalidStatus indicates a status value outside {nice, naughty}.
	ErrInvalidStatus = errors.New("invalid status value")
	// ErrInvalidDirection indicates an unknown swipe direction.
	ErrInvalidDirection = errors.New("invalid swipe direction")
)

// Status values for a stored record. StatusUnknown is never persisted; it is
// the default reported for handles without a record.
const (
	StatusUnknown = "unknown"
	StatusNice    = "nice"
	StatusNaughty = "naughty"
)

// Swipe directions exposed to the dashboard.
const (
	SwipeLeft  = "left"
	SwipeRight = "right"
)

// SwipeStep is how far one swipe moves the score.
const SwipeStep = 5

// NiceThreshold is the score at or above which a handle counts as nice.
const NiceThreshold = 50

// Record is one durable status entry. ID is an opaque identifier owned by
// the backend and required for patches.
type Record struct {
	ID     string  `json:"id"`
	Handle string  `json:"handle"`
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

// StatusStore is the narrow persistence contract both backends implement.
// Find returns nil without error when no record exists for the handle.
type StatusStore interface {
	Find(ctx context.Context, handle string) (*Record, error)
	Create(ctx context.Context, record *Record) (string, error)
	Patch(ctx context.Context, id, status string, score float64) error
}

// Service wraps a StatusStore with the update rules: score clamping, the
// create-or-patch flow, and swipe derivation.
type Service struct {
	store  StatusStore
	logger *zap.Logger
}

// NewService creates a status service over the given backend.
func NewService(store StatusStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.Named("status"),
	}
}

// Current returns the stored status and score for a handle, or the
// {unknown, 0} default when no record exists. Store failures degrade to the
// default after a short retry so a down store never fails a read request.
func (s *Service) Current(ctx context.Context, handle string) (string, float64) {
	record, err := utils.WithRetry(ctx, func() (*Record, error) {
		return s.store.Find(ctx, handle)
	}, utils.GetStoreRetryOptions())
	if err != nil {
		s.logger.Warn("Status lookup failed, using default",
			zap.String("handle", handle),
			zap.Error(err))

		return StatusUnknown, 0
	}

	if record == nil {
		return StatusUnknown, 0
	}

	return record.Status, record.Score
}

// Set persists a status and score for a handle, creating the record on first
// write and patching it in place afterwards. The score is clamped at zero;
// there is deliberately no upper clamp.
func (s *Service) Set(ctx context.Context, handle, status string, score float64) (*Record, error) {
	if status != StatusNice && status != StatusNaughty {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	if score < 0 {
		score = 0
	}

	record, err := s.store.Find(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if record != nil {
		if err := s.store.Patch(ctx, record.ID, status, score); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}

		record.Status = status
		record.Score = score

		s.logger.Info("Updated status record",
			zap.String("handle", handle),
			zap.String("status", status),
			zap.Float64("score", score))

		return record, nil
	}

	record = &Record{
		Handle: handle,
		Status: status,
		Score:  score,
	}

	id, err := s.store.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	record.ID = id

	s.logger.Info("Created status record",
		zap.String("handle", handle),
		zap.String("status", status),
		zap.Float64("score", score))

	return record, nil
}

// Swipe moves the stored score by SwipeStep in the given direction and derives
// the status from NiceThreshold. It reads the current stored score, never the
// cached classification, and does not re-run classification.
func (s *Service) Swipe(ctx context.Context, handle, direction string) (*Record, error) {
	var delta float64

	switch direction {
	case SwipeRight:
		delta = SwipeStep
	case SwipeLeft:
		delta = -SwipeStep
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	record, err := s.store.Find(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var current float64
	if record != nil {
		current = record.Score
	}

	newScore := current + delta

	status := StatusNice
	if newScore < NiceThreshold {
		status = StatusNaughty
	}

	return s.Set(ctx, handle, status, newScore)
}
