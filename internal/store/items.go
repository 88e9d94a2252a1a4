package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/armoirecommune/armoire/internal/model"
)

// CreateItem creates a new borrowable item and links its consumables.
func CreateItem(ctx context.Context, db *sql.DB, name, description string, quantity int, tagID *int64, consumableIDs []int64) (*model.Item, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (name, description, quantity, tag_id) VALUES (?, ?, ?, ?)`,
		name, description, quantity, tagID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	for _, cid := range consumableIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO item_consumables (item_id, consumable_id) VALUES (?, ?)`,
			id, cid,
		); err != nil {
			return nil, fmt.Errorf("linking consumable %d: %w", cid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, with its tag name if any.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description, imageMime, tagName sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT i.id, i.name, i.description, i.image_mime, i.quantity, i.available,
		        i.tag_id, t.name AS tag_name, i.created_at, i.updated_at, i.deleted_at
		 FROM items i
		 LEFT JOIN tags t ON t.id = i.tag_id
		 WHERE i.id = ?`, id,
	).Scan(&item.ID, &item.Name, &description, &imageMime, &item.Quantity, &item.Available,
		&item.TagID, &tagName, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.ImageMime = imageMime.String
	item.TagName = tagName.String
	return item, nil
}

// ListItems returns all non-deleted items, optionally filtered by a name
// substring and/or tag.
func ListItems(ctx context.Context, db *sql.DB, name string, tagID int64) ([]model.Item, error) {
	query := `SELECT i.id, i.name, i.description, i.image_mime, i.quantity, i.available,
	                 i.tag_id, t.name AS tag_name, i.created_at, i.updated_at, i.deleted_at
	          FROM items i
	          LEFT JOIN tags t ON t.id = i.tag_id
	          WHERE i.deleted_at IS NULL`
	var args []any

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
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description, imageMime, tagName sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &description, &imageMime, &item.Quantity, &item.Available,
			&item.TagID, &tagName, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.ImageMime = imageMime.String
		item.TagName = tagName.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's metadata and quantity.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, name, description string, quantity int, tagID *int64) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, quantity = ?, tag_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, description, quantity, tagID, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// SetItemAvailability flips the global availability flag. false means the
// item is broken or under maintenance; it blocks all new bookings but
// leaves existing reservations untouched.
func SetItemAvailability(ctx context.Context, db *sql.DB, id int64, available bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET available = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		available, id,
	)
	if err != nil {
		return fmt.Errorf("setting item availability: %w", err)
	}
	return nil
}

// SetItemConsumables replaces an item's consumable links.
func SetItemConsumables(ctx context.Context, db *sql.DB, itemID int64, consumableIDs []int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_consumables WHERE item_id = ?`, itemID,
	); err != nil {
		return fmt.Errorf("clearing consumable links: %w", err)
	}

	for _, cid := range consumableIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO item_consumables (item_id, consumable_id) VALUES (?, ?)`,
			itemID, cid,
		); err != nil {
			return fmt.Errorf("linking consumable %d: %w", cid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing consumable links: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
