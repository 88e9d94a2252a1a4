package model

import "time"

// Reservation represents a fixed-length loan of one unit of an item,
// picked up at a place. The window is half-open: [StartsAt, EndsAt).
type Reservation struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	UserID    int64     `json:"user_id"`
	PlaceID   int64     `json:"place_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ItemName  string `json:"item_name,omitempty"`
	PlaceName string `json:"place_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// Reservation statuses. Only active reservations count against capacity;
// terminee and annulee are terminal and never re-entered.
const (
	StatusActive    = "active"
	StatusReturned  = "terminee"
	StatusCancelled = "annulee"
)

// IsTerminal reports whether a status can no longer change.
func IsTerminal(status string) bool {
	return status == StatusReturned || status == StatusCancelled
}
