package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/armoirecommune/armoire/internal/booking"
	"github.com/armoirecommune/armoire/internal/model"
)

// queryer is satisfied by *sql.DB and *sql.Tx, so read helpers can run
// both standalone and inside the booking transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateReservation books one unit of an item for [startsAt, startsAt+duration),
// enforcing the availability policy. The whole check-then-insert runs in a
// single transaction that takes the write lock before counting overlaps,
// so two concurrent bookings for the last unit serialize: one succeeds,
// the other gets booking.ErrFullyBooked.
//
// Returns booking.ErrItemNotFound, booking.ErrUnavailable or
// booking.ErrFullyBooked as business outcomes.
func CreateReservation(ctx context.Context, db *sql.DB, itemID, userID, placeID int64, startsAt time.Time, duration time.Duration) (*model.Reservation, error) {
	startsAt = startsAt.UTC()
	endsAt := startsAt.Add(duration)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Touch the item row first: this upgrades the transaction to a writer
	// before the overlap count, so a concurrent booking cannot read the
	// same count and both insert.
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET updated_at = updated_at WHERE id = ?`, itemID,
	); err != nil {
		return nil, fmt.Errorf("locking item: %w", err)
	}

	item := &model.Item{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, quantity, available FROM items WHERE id = ? AND deleted_at IS NULL`,
		itemID,
	).Scan(&item.ID, &item.Name, &item.Quantity, &item.Available)
	if err == sql.ErrNoRows {
		return nil, booking.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	overlapping, err := listActiveOverlapping(ctx, tx, itemID, startsAt, endsAt)
	if err != nil {
		return nil, err
	}

	if err := booking.CanBook(item, overlapping, startsAt, endsAt); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (item_id, user_id, place_id, starts_at, ends_at, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		itemID, userID, placeID, startsAt, endsAt, model.StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reservation: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetReservation(ctx, db, id)
}

// GetReservation returns a reservation by ID with joined display fields.
func GetReservation(ctx context.Context, q queryer, id int64) (*model.Reservation, error) {
	r := &model.Reservation{}
	err := q.QueryRowContext(ctx,
		`SELECT r.id, r.item_id, r.user_id, r.place_id, r.starts_at, r.ends_at, r.status, r.created_at,
		        i.name AS item_name, p.name AS place_name, u.email AS user_email
		 FROM reservations r
		 JOIN items i ON i.id = r.item_id
		 JOIN places p ON p.id = r.place_id
		 JOIN users u ON u.id = r.user_id
		 WHERE r.id = ?`, id,
	).Scan(&r.ID, &r.ItemID, &r.UserID, &r.PlaceID, &r.StartsAt, &r.EndsAt, &r.Status, &r.CreatedAt,
		&r.ItemName, &r.PlaceName, &r.UserEmail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}
	return r, nil
}

// ListActiveOverlapping returns the active reservations of an item whose
// window intersects [start, end). The half-open overlap predicate is
// pushed into SQL and served by the (item_id, status, starts_at, ends_at)
// index instead of scanning the item's whole history.
func ListActiveOverlapping(ctx context.Context, db *sql.DB, itemID int64, start, end time.Time) ([]model.Reservation, error) {
	return listActiveOverlapping(ctx, db, itemID, start.UTC(), end.UTC())
}

func listActiveOverlapping(ctx context.Context, q queryer, itemID int64, start, end time.Time) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, item_id, user_id, place_id, starts_at, ends_at, status, created_at
		 FROM reservations
		 WHERE item_id = ? AND status = ? AND starts_at < ? AND ends_at > ?`,
		itemID, model.StatusActive, end, start,
	)
	if err != nil {
		return nil, fmt.Errorf("listing overlapping reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.ItemID, &r.UserID, &r.PlaceID, &r.StartsAt, &r.EndsAt, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

// ListReservations returns reservations with joined display fields,
// newest first. userID 0 means all users.
func ListReservations(ctx context.Context, db *sql.DB, userID int64) ([]model.Reservation, error) {
	query := `SELECT r.id, r.item_id, r.user_id, r.place_id, r.starts_at, r.ends_at, r.status, r.created_at,
	                 i.name AS item_name, p.name AS place_name, u.email AS user_email
	          FROM reservations r
	          JOIN items i ON i.id = r.item_id
	          JOIN places p ON p.id = r.place_id
	          JOIN users u ON u.id = r.user_id`
	var args []any

	if userID > 0 {
		query += ` WHERE r.user_id = ?`
		args = append(args, userID)
	}

	query += ` ORDER BY r.starts_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.ItemID, &r.UserID, &r.PlaceID, &r.StartsAt, &r.EndsAt, &r.Status, &r.CreatedAt,
			&r.ItemName, &r.PlaceName, &r.UserEmail); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

// UpdateReservationStatus transitions a reservation from active to a
// terminal status (terminee on return, annulee on cancellation). The
// status check and update share a transaction so a transition cannot race
// another one for the same reservation.
//
// Returns booking.ErrReservationNotFound or booking.ErrNotActive as
// business outcomes.
func UpdateReservationStatus(ctx context.Context, db *sql.DB, id int64, target string) (*model.Reservation, error) {
	if !model.IsTerminal(target) {
		return nil, fmt.Errorf("invalid target status %q", target)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r := &model.Reservation{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, item_id, user_id, place_id, starts_at, ends_at, status, created_at
		 FROM reservations WHERE id = ?`, id,
	).Scan(&r.ID, &r.ItemID, &r.UserID, &r.PlaceID, &r.StartsAt, &r.EndsAt, &r.Status, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, booking.ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}

	if err := booking.CanTransition(r, target); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, target, id,
	); err != nil {
		return nil, fmt.Errorf("updating reservation status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status update: %w", err)
	}

	return GetReservation(ctx, db, id)
}

// ListAvailableItems returns non-deleted items with at least one free unit
// during [probeStart, probeStart+duration): globally available, and with
// fewer active overlapping reservations than quantity. The capacity count
// is derived in SQL; nothing is decremented or cached. Name and tag
// filters mirror ListItems.
func ListAvailableItems(ctx context.Context, db *sql.DB, name string, tagID int64, probeStart time.Time, duration time.Duration) ([]model.Item, error) {
	probeStart = probeStart.UTC()
	probeEnd := probeStart.Add(duration)

	query := `SELECT i.id, i.name, i.description, i.image_mime, i.quantity, i.available,
	                 i.tag_id, t.name AS tag_name, i.created_at, i.updated_at, i.deleted_at
	          FROM items i
	          LEFT JOIN tags t ON t.id = i.tag_id
	          WHERE i.deleted_at IS NULL AND i.available = 1
	            AND i.quantity > (
	                SELECT COUNT(*) FROM reservations r
	                WHERE r.item_id = i.id AND r.status = ?
	                  AND r.starts_at < ? AND r.ends_at > ?
	            )`
	args := []any{model.StatusActive, probeEnd, probeStart}

	if name != "" {
		query += ` AND i.name LIKE ?`
		args = append(args, "%"+name+"%")
	}
	if tagID > 0 {
		query += ` AND i.tag_id = ?`
		args = append(args, tagID)
	}

	query += ` ORDER BY i.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing available items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}
