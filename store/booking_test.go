package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/openparks/corral/schema"
	"github.com/openparks/corral/store"
)

func openBooking(t *testing.T, s *store.Store, key store.Key, sessionID string) {
	t.Helper()
	intents, err := store.Compile(schema.BookingCreate, store.OpCreate, store.Record{
		Key: key,
		Attributes: map[string]any{
			"bookingStatus": schema.BookingInProgress,
			"sessionId":     sessionID,
			"activity":      "frontcountry camp::1",
			"partySize":     4,
			"startDate":     "2026-07-01",
			"endDate":       "2026-07-04",
		},
	})
	if err != nil {
		t.Fatalf("compile booking: %v", err)
	}
	if _, err := s.Commit(context.Background(), intents); err != nil {
		t.Fatalf("commit booking: %v", err)
	}
}

func TestConfirmBooking_Success(t *testing.T) {
	s, _ := newTestStore(store.DefaultConfig())
	ctx := context.Background()
	key := store.Key{PK: "booking::bcparks_1", SK: "booking::1"}
	openBooking(t, s, key, "S1")

	if err := s.ConfirmBooking(ctx, key, "S1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	item, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got := item.StringAttr("bookingStatus"); got != schema.BookingCompleted {
		t.Errorf("expected status completed, got %q", got)
	}
	if item.Version != 2 {
		t.Errorf("expected version 2 after confirmation, got %d", item.Version)
	}
}

func TestConfirmBooking_SessionMismatch(t *testing.T) {
	s, _ := newTestStore(store.DefaultConfig())
	ctx := context.Background()
	key := store.Key{PK: "booking::bcparks_1", SK: "booking::1"}
	openBooking(t, s, key, "S1")

	err := s.ConfirmBooking(ctx, key, "S2")
	if !errors.Is(err, store.ErrSessionMismatch) {
		t.Fatalf("expected ErrSessionMismatch, got %v", err)
	}

	// Hard rejection: nothing was written.
	item, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got := item.StringAttr("bookingStatus"); got != schema.BookingInProgress {
		t.Errorf("stored status changed to %q", got)
	}
	if item.Version != 1 {
		t.Errorf("version changed to %d", item.Version)
	}
}

func TestConfirmBooking_WrongStatus(t *testing.T) {
	s, _ := newTestStore(store.DefaultConfig())
	ctx := context.Background()
	key := store.Key{PK: "booking::bcparks_1", SK: "booking::1"}
	openBooking(t, s, key, "S1")

	if err := s.ConfirmBooking(ctx, key, "S1"); err != nil {
		t.Fatal(err)
	}

	// A replayed confirmation finds the booking already completed.
	err := s.ConfirmBooking(ctx, key, "S1")
	if !errors.Is(err, store.ErrInvalidBookingState) {
		t.Errorf("expected ErrInvalidBookingState, got %v", err)
	}
}

func TestConfirmBooking_NotFound(t *testing.T) {
	s, _ := newTestStore(store.DefaultConfig())

	err := s.ConfirmBooking(context.Background(), store.Key{PK: "booking::bcparks_1", SK: "booking::404"}, "S1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelBooking(t *testing.T) {
	s, _ := newTestStore(store.DefaultConfig())
	ctx := context.Background()
	key := store.Key{PK: "booking::bcparks_1", SK: "booking::1"}
	openBooking(t, s, key, "S1")

	if err := s.CancelBooking(ctx, key, "S1"); err != nil {
		t.Fatal(err)
	}

	item, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got := item.StringAttr("bookingStatus"); got != schema.BookingCancelled {
		t.Errorf("expected status cancelled, got %q", got)
	}
}
