package model

import "time"

// Place represents a pickup/drop-off site (lieu). Orthogonal to
// availability logic; reservations reference one for logistics only.
type Place struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Address   string     `json:"address"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
