package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/armoirecommune/armoire/internal/model"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func activeRes(start, end time.Time) model.Reservation {
	return model.Reservation{Status: model.StatusActive, StartsAt: start, EndsAt: end}
}

func TestOverlapsHalfOpen(t *testing.T) {
	end := t0.Add(DefaultLoanDuration)

	// Identical intervals overlap.
	if !Overlaps(t0, end, t0, end) {
		t.Error("identical intervals should overlap")
	}

	// Touching endpoints do not.
	if Overlaps(t0, end, end, end.Add(DefaultLoanDuration)) {
		t.Error("interval starting at another's end should not overlap")
	}

	// One second before the boundary does.
	almostEnd := end.Add(-time.Second)
	if !Overlaps(t0, end, almostEnd, almostEnd.Add(DefaultLoanDuration)) {
		t.Error("interval starting one second before the end should overlap")
	}
}

func TestCountActiveIgnoresTerminalStatuses(t *testing.T) {
	end := t0.Add(DefaultLoanDuration)
	reservations := []model.Reservation{
		activeRes(t0, end),
		{Status: model.StatusReturned, StartsAt: t0, EndsAt: end},
		{Status: model.StatusCancelled, StartsAt: t0, EndsAt: end},
	}

	if got := CountActive(reservations, t0, end); got != 1 {
		t.Errorf("expected 1 active overlap, got %d", got)
	}
}

func TestCountActiveEmpty(t *testing.T) {
	if got := CountActive(nil, t0, t0.Add(time.Hour)); got != 0 {
		t.Errorf("expected 0 overlaps for empty set, got %d", got)
	}
}

func TestCanBookQuantityThreshold(t *testing.T) {
	item := &model.Item{Quantity: 2, Available: true}
	end := t0.Add(DefaultLoanDuration)
	reservations := []model.Reservation{
		activeRes(t0, end),
		activeRes(t0, end),
	}

	// Both units committed: third overlapping request is rejected.
	if err := CanBook(item, reservations, t0, end); !errors.Is(err, ErrFullyBooked) {
		t.Errorf("expected ErrFullyBooked, got %v", err)
	}

	// Returning one frees a unit.
	reservations[0].Status = model.StatusReturned
	if err := CanBook(item, reservations, t0, end); err != nil {
		t.Errorf("expected booking allowed after return, got %v", err)
	}
}

func TestCanBookBoundary(t *testing.T) {
	item := &model.Item{Quantity: 1, Available: true}
	end := t0.Add(DefaultLoanDuration)
	reservations := []model.Reservation{activeRes(t0, end)}

	// Starting exactly at the existing end is allowed.
	if err := CanBook(item, reservations, end, end.Add(DefaultLoanDuration)); err != nil {
		t.Errorf("expected booking at boundary allowed, got %v", err)
	}

	// One second earlier is not.
	start := end.Add(-time.Second)
	if err := CanBook(item, reservations, start, start.Add(DefaultLoanDuration)); !errors.Is(err, ErrFullyBooked) {
		t.Errorf("expected ErrFullyBooked just inside boundary, got %v", err)
	}
}

func TestCanBookMaintenanceWinsOverCapacity(t *testing.T) {
	item := &model.Item{Quantity: 5, Available: false}

	err := CanBook(item, nil, t0, t0.Add(DefaultLoanDuration))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestCanBookMissingItem(t *testing.T) {
	if err := CanBook(nil, nil, t0, t0.Add(time.Hour)); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestAvailableAt(t *testing.T) {
	item := &model.Item{Quantity: 1, Available: true}
	end := t0.Add(DefaultLoanDuration)
	reservations := []model.Reservation{activeRes(t0, end)}

	if AvailableAt(item, reservations, t0, DefaultLoanDuration) {
		t.Error("expected unavailable during existing reservation")
	}
	if !AvailableAt(item, reservations, end, DefaultLoanDuration) {
		t.Error("expected available starting at existing end")
	}
}

func TestCanTransition(t *testing.T) {
	active := &model.Reservation{Status: model.StatusActive}
	if err := CanTransition(active, model.StatusReturned); err != nil {
		t.Errorf("expected active -> terminee allowed, got %v", err)
	}
	if err := CanTransition(active, model.StatusCancelled); err != nil {
		t.Errorf("expected active -> annulee allowed, got %v", err)
	}

	returned := &model.Reservation{Status: model.StatusReturned}
	if err := CanTransition(returned, model.StatusCancelled); !errors.Is(err, ErrNotActive) {
		t.Errorf("expected ErrNotActive for terminal reservation, got %v", err)
	}

	if err := CanTransition(nil, model.StatusReturned); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("expected ErrReservationNotFound, got %v", err)
	}

	// Active is not a valid target.
	if err := CanTransition(active, model.StatusActive); err == nil {
		t.Error("expected error transitioning to active")
	}
}
