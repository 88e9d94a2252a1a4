package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/armoirecommune/armoire/internal/booking"
	"github.com/armoirecommune/armoire/internal/db"
	"github.com/armoirecommune/armoire/internal/model"
)

// seedBooking creates a user, a place and an item with the given quantity.
func seedBooking(t *testing.T, database *sql.DB, quantity int) (itemID, userID, placeID int64) {
	t.Helper()
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "Alice", "Martin", "alice@example.com", "hash", model.RoleMember)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	place, err := CreatePlace(ctx, database, "Garage", 48.85, 2.35, "12 rue des Lilas")
	if err != nil {
		t.Fatalf("CreatePlace: %v", err)
	}
	item, err := CreateItem(ctx, database, "Drill", "Cordless drill", quantity, nil, nil)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item.ID, user.ID, place.ID
}

func TestCreateReservationBasic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 1)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	r, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration)
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if r.Status != model.StatusActive {
		t.Errorf("expected status 'active', got %q", r.Status)
	}
	if !r.EndsAt.Equal(start.Add(booking.DefaultLoanDuration)) {
		t.Errorf("expected ends_at %v, got %v", start.Add(booking.DefaultLoanDuration), r.EndsAt)
	}
	if r.ItemName != "Drill" || r.UserEmail != "alice@example.com" {
		t.Errorf("expected joined display fields, got item=%q user=%q", r.ItemName, r.UserEmail)
	}
}

func TestCreateReservationItemNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	_, userID, placeID := seedBooking(t, database, 1)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	_, err := CreateReservation(ctx, database, 999, userID, placeID, start, booking.DefaultLoanDuration)
	if !errors.Is(err, booking.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCreateReservationDeletedItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 1)

	DeleteItem(ctx, database, itemID)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	_, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration)
	if !errors.Is(err, booking.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound for deleted item, got %v", err)
	}
}

func TestCreateReservationMaintenanceBlocked(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 3)

	// Flag the item broken. Capacity is irrelevant while the flag is down.
	if err := SetItemAvailability(ctx, database, itemID, false); err != nil {
		t.Fatalf("SetItemAvailability: %v", err)
	}

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	_, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration)
	if !errors.Is(err, booking.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	// Back in service, booking works again.
	if err := SetItemAvailability(ctx, database, itemID, true); err != nil {
		t.Fatalf("SetItemAvailability: %v", err)
	}
	if _, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration); err != nil {
		t.Errorf("expected booking to succeed after repair, got %v", err)
	}
}

func TestCreateReservationQuantityThreshold(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 2)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	first, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration)
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration); err != nil {
		t.Fatalf("second booking: %v", err)
	}

	// Both units taken for this window.
	_, err = CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration)
	if !errors.Is(err, booking.ErrFullyBooked) {
		t.Fatalf("expected ErrFullyBooked, got %v", err)
	}

	// Returning one frees a unit immediately.
	if _, err := UpdateReservationStatus(ctx, database, first.ID, model.StatusReturned); err != nil {
		t.Fatalf("UpdateReservationStatus: %v", err)
	}
	if _, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration); err != nil {
		t.Errorf("expected booking to succeed after return, got %v", err)
	}
}

func TestCreateReservationBoundary(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 1)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	if _, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Starting exactly when the previous loan ends is allowed: windows are
	// half-open, the unit changes hands at the boundary instant.
	atEnd := start.Add(booking.DefaultLoanDuration)
	if _, err := CreateReservation(ctx, database, itemID, userID, placeID, atEnd, booking.DefaultLoanDuration); err != nil {
		t.Errorf("expected back-to-back booking to succeed, got %v", err)
	}

	// One second earlier still collides.
	_, err := CreateReservation(ctx, database, itemID, userID, placeID, atEnd.Add(-time.Second), booking.DefaultLoanDuration)
	if !errors.Is(err, booking.ErrFullyBooked) {
		t.Errorf("expected ErrFullyBooked one second before the boundary, got %v", err)
	}
}

func TestCreateReservationDisjointWindows(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 1)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	if _, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// A window a month later never touches the first one.
	later := start.AddDate(0, 1, 0)
	if _, err := CreateReservation(ctx, database, itemID, userID, placeID, later, booking.DefaultLoanDuration); err != nil {
		t.Errorf("expected disjoint booking to succeed, got %v", err)
	}
}

func TestConcurrentLastUnit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 1)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	// Two goroutines race for the single unit. The booking transaction
	// takes the write lock before counting, so exactly one must win.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration)
		}(i)
	}
	wg.Wait()

	var successes, fullyBooked int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, booking.ErrFullyBooked):
			fullyBooked++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || fullyBooked != 1 {
		t.Errorf("expected exactly one success and one ErrFullyBooked, got %d/%d", successes, fullyBooked)
	}

	active, err := ListActiveOverlapping(ctx, database, itemID, start, start.Add(booking.DefaultLoanDuration))
	if err != nil {
		t.Fatalf("ListActiveOverlapping: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("expected 1 active reservation, got %d", len(active))
	}
}

func TestUpdateReservationStatusTerminal(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 1)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	r, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration)
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	returned, err := UpdateReservationStatus(ctx, database, r.ID, model.StatusReturned)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != model.StatusReturned {
		t.Errorf("expected status 'terminee', got %q", returned.Status)
	}

	// Terminal states are final: no cancelling a returned reservation,
	// no returning it twice.
	if _, err := UpdateReservationStatus(ctx, database, r.ID, model.StatusCancelled); !errors.Is(err, booking.ErrNotActive) {
		t.Errorf("expected ErrNotActive cancelling a returned reservation, got %v", err)
	}
	if _, err := UpdateReservationStatus(ctx, database, r.ID, model.StatusReturned); !errors.Is(err, booking.ErrNotActive) {
		t.Errorf("expected ErrNotActive returning twice, got %v", err)
	}
}

func TestUpdateReservationStatusNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := UpdateReservationStatus(ctx, database, 42, model.StatusCancelled)
	if !errors.Is(err, booking.ErrReservationNotFound) {
		t.Errorf("expected ErrReservationNotFound, got %v", err)
	}
}

func TestUpdateReservationStatusRejectsNonTerminal(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := UpdateReservationStatus(ctx, database, 1, model.StatusActive); err == nil {
		t.Error("expected error for non-terminal target status")
	}
}

func TestCancelledReservationFreesUnit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 1)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	r, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration)
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if _, err := UpdateReservationStatus(ctx, database, r.ID, model.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration); err != nil {
		t.Errorf("expected booking to succeed after cancellation, got %v", err)
	}
}

func TestListReservationsByUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 5)

	other, err := CreateUser(ctx, database, "Bob", "Durand", "bob@example.com", "hash", model.RoleMember)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration)
	CreateReservation(ctx, database, itemID, userID, placeID, start.AddDate(0, 1, 0), booking.DefaultLoanDuration)
	CreateReservation(ctx, database, itemID, other.ID, placeID, start, booking.DefaultLoanDuration)

	all, err := ListReservations(ctx, database, 0)
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 reservations, got %d", len(all))
	}

	mine, _ := ListReservations(ctx, database, userID)
	if len(mine) != 2 {
		t.Errorf("expected 2 reservations for alice, got %d", len(mine))
	}
}

func TestListAvailableItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID, userID, placeID := seedBooking(t, database, 1)

	free, err := CreateItem(ctx, database, "Ladder", "", 1, nil, nil)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	broken, err := CreateItem(ctx, database, "Mower", "", 1, nil, nil)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	SetItemAvailability(ctx, database, broken.ID, false)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	if _, err := CreateReservation(ctx, database, itemID, userID, placeID, start, booking.DefaultLoanDuration); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	// Probing the booked window: only the free item shows up. The drill's
	// single unit is taken, the mower is flagged broken.
	items, err := ListAvailableItems(ctx, database, "", 0, start, booking.DefaultLoanDuration)
	if err != nil {
		t.Fatalf("ListAvailableItems: %v", err)
	}
	if len(items) != 1 || items[0].ID != free.ID {
		t.Errorf("expected only the ladder to be available, got %v", items)
	}

	// The probe is a pure read: asking twice changes nothing.
	again, err := ListAvailableItems(ctx, database, "", 0, start, booking.DefaultLoanDuration)
	if err != nil {
		t.Fatalf("ListAvailableItems: %v", err)
	}
	if len(again) != len(items) {
		t.Errorf("expected identical result on repeated probe, got %d then %d", len(items), len(again))
	}

	// Probing after the loan ends, the drill is free again.
	afterLoan, err := ListAvailableItems(ctx, database, "", 0, start.Add(booking.DefaultLoanDuration), booking.DefaultLoanDuration)
	if err != nil {
		t.Fatalf("ListAvailableItems: %v", err)
	}
	if len(afterLoan) != 2 {
		t.Errorf("expected drill and ladder available after the loan, got %d", len(afterLoan))
	}
}

func TestListAvailableItemsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tag, err := CreateTag(ctx, database, "garden")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	CreateItem(ctx, database, "Hedge trimmer", "", 1, &tag.ID, nil)
	CreateItem(ctx, database, "Projector", "", 1, nil, nil)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	byTag, err := ListAvailableItems(ctx, database, "", tag.ID, start, booking.DefaultLoanDuration)
	if err != nil {
		t.Fatalf("ListAvailableItems: %v", err)
	}
	if len(byTag) != 1 || byTag[0].Name != "Hedge trimmer" {
		t.Errorf("expected only the trimmer for tag filter, got %v", byTag)
	}

	byName, err := ListAvailableItems(ctx, database, "Proj", 0, start, booking.DefaultLoanDuration)
	if err != nil {
		t.Fatalf("ListAvailableItems: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Projector" {
		t.Errorf("expected only the projector for name filter, got %v", byName)
	}
}
