package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/armoirecommune/armoire/internal/model"
)

// CreatePlace creates a new pickup/drop-off place.
func CreatePlace(ctx context.Context, db *sql.DB, name string, lat, lng float64, address string) (*model.Place, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO places (name, lat, lng, address) VALUES (?, ?, ?, ?)`,
		name, lat, lng, address,
	)
	if err != nil {
		return nil, fmt.Errorf("creating place: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting place id: %w", err)
	}

	return GetPlace(ctx, db, id)
}

// GetPlace returns a place by ID.
func GetPlace(ctx context.Context, db *sql.DB, id int64) (*model.Place, error) {
	p := &model.Place{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, lat, lng, address, created_at, deleted_at
		 FROM places WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Lat, &p.Lng, &p.Address, &p.CreatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting place: %w", err)
	}
	return p, nil
}

// ListPlaces returns all non-deleted places.
func ListPlaces(ctx context.Context, db *sql.DB) ([]model.Place, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, lat, lng, address, created_at, deleted_at
		 FROM places WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing places: %w", err)
	}
	defer rows.Close()

	var places []model.Place
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Lat, &p.Lng, &p.Address, &p.CreatedAt, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}
