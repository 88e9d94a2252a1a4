package model

import "time"

// Tag is a category label on items.
type Tag struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Consumable is a supply associated with items (e.g. sandpaper for a
// sander). Not reservation-tracked; quantity is a plain stock counter.
type Consumable struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Quantity    int        `json:"quantity"`
	Price       float64    `json:"price"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}
