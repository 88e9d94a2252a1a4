package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/armoirecommune/armoire/internal/model"
)

// CreateConsumable creates a new consumable supply.
func CreateConsumable(ctx context.Context, db *sql.DB, name, description string, quantity int, price float64) (*model.Consumable, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO consumables (name, description, quantity, price) VALUES (?, ?, ?, ?)`,
		name, description, quantity, price,
	)
	if err != nil {
		return nil, fmt.Errorf("creating consumable: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting consumable id: %w", err)
	}

	return GetConsumable(ctx, db, id)
}

// GetConsumable returns a consumable by ID.
func GetConsumable(ctx context.Context, db *sql.DB, id int64) (*model.Consumable, error) {
	c := &model.Consumable{}
	var description sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, description, quantity, price, created_at, deleted_at
		 FROM consumables WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &description, &c.Quantity, &c.Price, &c.CreatedAt, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting consumable: %w", err)
	}
	c.Description = description.String
	return c, nil
}

// ListConsumables returns all non-deleted consumables.
func ListConsumables(ctx context.Context, db *sql.DB) ([]model.Consumable, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description, quantity, price, created_at, deleted_at
		 FROM consumables WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing consumables: %w", err)
	}
	defer rows.Close()

	return scanConsumables(rows)
}

// ListItemConsumables returns the consumables linked to an item.
func ListItemConsumables(ctx context.Context, db *sql.DB, itemID int64) ([]model.Consumable, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.name, c.description, c.quantity, c.price, c.created_at, c.deleted_at
		 FROM consumables c
		 JOIN item_consumables ic ON ic.consumable_id = c.id
		 WHERE ic.item_id = ? AND c.deleted_at IS NULL
		 ORDER BY c.name`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item consumables: %w", err)
	}
	defer rows.Close()

	return scanConsumables(rows)
}

func scanConsumables(rows *sql.Rows) ([]model.Consumable, error) {
	var consumables []model.Consumable
	for rows.Next() {
		var c model.Consumable
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description, &c.Quantity, &c.Price, &c.CreatedAt, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning consumable: %w", err)
		}
		c.Description = description.String
		consumables = append(consumables, c)
	}
	return consumables, rows.Err()
}
