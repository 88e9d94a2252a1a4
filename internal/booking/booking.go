// Package booking holds the availability and overlap-control rules for
// reservations. Everything here is pure: callers load the state, booking
// decides. Capacity is always derived from the live count of active
// overlapping reservations, never stored, so returns and cancellations
// take effect without compensating writes.
package booking

import (
	"errors"
	"time"

	"github.com/armoirecommune/armoire/internal/model"
)

// DefaultLoanDuration is the fixed reservation length when none is
// configured: a requested start time always yields
// end = start + duration; the end is never user-supplied.
const DefaultLoanDuration = 7 * 24 * time.Hour

// Business errors. All are expected outcomes of normal flow and must stay
// distinguishable to callers.
var (
	ErrItemNotFound        = errors.New("item not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrUnavailable         = errors.New("item unavailable (maintenance)")
	ErrFullyBooked         = errors.New("item fully booked for this window")
	ErrNotActive           = errors.New("reservation is not active")
)

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Touching endpoints do not overlap: a loan ending at T and
// one starting at T share no instant.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// CountActive returns how many reservations are active and overlap the
// candidate window [start, end). Terminated and cancelled reservations
// never count.
func CountActive(reservations []model.Reservation, start, end time.Time) int {
	count := 0
	for _, r := range reservations {
		if r.Status != model.StatusActive {
			continue
		}
		if Overlaps(r.StartsAt, r.EndsAt, start, end) {
			count++
		}
	}
	return count
}

// CanBook decides whether a new reservation of item for [start, end) may
// be created, given the item's reservations. The maintenance flag is
// checked first and wins over capacity. The capacity check is strict:
// when the overlap count equals the quantity, every unit is committed.
func CanBook(item *model.Item, reservations []model.Reservation, start, end time.Time) error {
	if item == nil {
		return ErrItemNotFound
	}
	if !item.Available {
		return ErrUnavailable
	}
	if CountActive(reservations, start, end) >= item.Quantity {
		return ErrFullyBooked
	}
	return nil
}

// AvailableAt reports whether at least one unit of item is free during
// the probe window. Same rule as CanBook, shaped for catalog filtering.
func AvailableAt(item *model.Item, reservations []model.Reservation, probeStart time.Time, duration time.Duration) bool {
	return CanBook(item, reservations, probeStart, probeStart.Add(duration)) == nil
}

// CanTransition decides whether a reservation may move to target status.
// Only active reservations transition; terminal states are immutable.
func CanTransition(r *model.Reservation, target string) error {
	if r == nil {
		return ErrReservationNotFound
	}
	if r.Status != model.StatusActive {
		return ErrNotActive
	}
	if !model.IsTerminal(target) {
		return ErrNotActive
	}
	return nil
}
