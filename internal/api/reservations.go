package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/armoirecommune/armoire/internal/booking"
	"github.com/armoirecommune/armoire/internal/model"
	"github.com/armoirecommune/armoire/internal/store"
)

// ReservationsHandler handles booking lifecycle endpoints.
type ReservationsHandler struct {
	DB *sql.DB

	// LoanDuration is the fixed reservation length: ends_at is always
	// starts_at + LoanDuration, never client-supplied.
	LoanDuration time.Duration
}

type createReservationRequest struct {
	ItemID   int64     `json:"item_id"`
	PlaceID  int64     `json:"place_id"`
	StartsAt time.Time `json:"starts_at"`
}

// Create handles POST /api/reservations. Maintenance and fully-booked are
// distinct client-visible rejections.
func (h *ReservationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ItemID <= 0 || req.PlaceID <= 0 || req.StartsAt.IsZero() {
		jsonError(w, http.StatusBadRequest, "item_id, place_id and starts_at are required")
		return
	}

	place, err := store.GetPlace(r.Context(), h.DB, req.PlaceID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if place == nil || place.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "place not found")
		return
	}

	reservation, err := store.CreateReservation(r.Context(), h.DB, req.ItemID, claims.UserID, req.PlaceID, req.StartsAt, h.LoanDuration)
	switch {
	case errors.Is(err, booking.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, booking.ErrUnavailable):
		jsonError(w, http.StatusBadRequest, "item currently unavailable (broken/maintenance)")
		return
	case errors.Is(err, booking.ErrFullyBooked):
		jsonError(w, http.StatusBadRequest, "item not available for this date")
		return
	case err != nil:
		jsonError(w, http.StatusInternalServerError, "failed to create reservation")
		return
	}

	slog.Info("reservation created", "user", claims.Email,
		"item", reservation.ItemName, "place", reservation.PlaceName,
		"from", reservation.StartsAt, "to", reservation.EndsAt)
	jsonResponse(w, http.StatusCreated, reservation)
}

// ListMine handles GET /api/reservations/me.
func (h *ReservationsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	reservations, err := store.ListReservations(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// ListAll handles GET /api/admin/reservations.
func (h *ReservationsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	reservations, err := store.ListReservations(r.Context(), h.DB, 0)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// Return handles POST /api/admin/reservations/{id}/return: the item came
// back, the reservation stops counting against capacity.
func (h *ReservationsHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusReturned, nil)
}

// Cancel handles POST /api/reservations/{id}/cancel. Members may cancel
// their own reservations, administrators anyone's.
func (h *ReservationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var owner *int64
	if !model.IsAdmin(claims.Role) {
		owner = &claims.UserID
	}
	h.transition(w, r, model.StatusCancelled, owner)
}

// transition moves a reservation to a terminal status. If owner is
// non-nil the reservation must belong to that user.
func (h *ReservationsHandler) transition(w http.ResponseWriter, r *http.Request, target string, owner *int64) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	if owner != nil {
		existing, err := store.GetReservation(r.Context(), h.DB, id)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if existing == nil {
			jsonError(w, http.StatusNotFound, "reservation not found")
			return
		}
		if existing.UserID != *owner {
			jsonError(w, http.StatusForbidden, "not your reservation")
			return
		}
	}

	reservation, err := store.UpdateReservationStatus(r.Context(), h.DB, id, target)
	switch {
	case errors.Is(err, booking.ErrReservationNotFound):
		jsonError(w, http.StatusNotFound, "reservation not found")
		return
	case errors.Is(err, booking.ErrNotActive):
		jsonError(w, http.StatusBadRequest, "reservation is not active")
		return
	case err != nil:
		jsonError(w, http.StatusInternalServerError, "failed to update reservation")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("reservation transitioned", "by", claims.Email,
		"reservation", reservation.ID, "item", reservation.ItemName, "status", reservation.Status)
	jsonResponse(w, http.StatusOK, reservation)
}
