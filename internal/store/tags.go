package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/armoirecommune/armoire/internal/model"
)

// CreateTag creates a new tag.
func CreateTag(ctx context.Context, db *sql.DB, name string) (*model.Tag, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO tags (name) VALUES (?)`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting tag id: %w", err)
	}

	return GetTag(ctx, db, id)
}

// GetTag returns a tag by ID.
func GetTag(ctx context.Context, db *sql.DB, id int64) (*model.Tag, error) {
	t := &model.Tag{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag: %w", err)
	}
	return t, nil
}

// ListTags returns all non-deleted tags.
func ListTags(ctx context.Context, db *sql.DB) ([]model.Tag, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM tags WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
