package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/openparks/corral/schema"
)

// ConfirmBooking moves a booking from "in progress" to "completed".
//
// The transition is gated on the stored session id matching sessionID and
// the stored status still being "in progress". A mismatch means either a
// replayed confirmation or a stale client; both fail loudly with no write
// attempted and must not be retried.
func (s *Store) ConfirmBooking(ctx context.Context, key Key, sessionID string) error {
	return s.transitionBooking(ctx, key, sessionID, schema.BookingCompleted)
}

// CancelBooking moves a booking from "in progress" to "cancelled", under
// the same session gate as ConfirmBooking.
func (s *Store) CancelBooking(ctx context.Context, key Key, sessionID string) error {
	return s.transitionBooking(ctx, key, sessionID, schema.BookingCancelled)
}

func (s *Store) transitionBooking(ctx context.Context, key Key, sessionID, target string) error {
	item, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if status := item.StringAttr("bookingStatus"); status != schema.BookingInProgress {
		s.logger.Warn("booking transition from wrong status",
			zap.String("key", key.String()),
			zap.String("status", status),
			zap.String("target", target),
		)
		return ErrInvalidBookingState
	}
	if stored := item.StringAttr("sessionId"); stored != sessionID {
		s.logger.Warn("booking session mismatch",
			zap.String("key", key.String()),
		)
		return ErrSessionMismatch
	}

	intents, err := Compile(schema.BookingUpdate, OpUpdate, Record{
		Key:             key,
		Attributes:      map[string]any{"bookingStatus": target},
		ExpectedVersion: item.Version,
	})
	if err != nil {
		return err
	}

	_, err = s.Commit(ctx, intents)
	return err
}
