package model

import "time"

// Item represents a borrowable item type (quantity-based, not per-unit tracking).
// Available is the global flag: false means the item is broken or under
// maintenance and blocks all bookings regardless of quantity.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ImageMime   string     `json:"image_mime,omitempty"`
	Quantity    int        `json:"quantity"`
	Available   bool       `json:"available"`
	TagID       *int64     `json:"tag_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	TagName string `json:"tag_name,omitempty"`
}
