package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/armoirecommune/armoire/internal/imaging"
	"github.com/armoirecommune/armoire/internal/model"
	"github.com/armoirecommune/armoire/internal/store"
)

// ItemsHandler handles item catalog endpoints.
type ItemsHandler struct {
	DB *sql.DB

	// LoanDuration is the fixed reservation length, used as the probe
	// window size when filtering the catalog by availability.
	LoanDuration time.Duration
}

type createItemRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Quantity      int     `json:"quantity"`
	TagID         *int64  `json:"tag_id"`
	ConsumableIDs []int64 `json:"consumable_ids"`
}

type updateItemRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Quantity      int     `json:"quantity"`
	TagID         *int64  `json:"tag_id"`
	ConsumableIDs []int64 `json:"consumable_ids"`
}

type setAvailabilityRequest struct {
	Available bool `json:"available"`
}

// List handles GET /api/items. By default only items with at least one
// free unit during [date, date+loanDuration) are returned; pass
// ?available=false for the raw catalog. ?date=RFC3339 moves the probe
// start (default now), ?name= and ?tag_id= filter the catalog.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	var tagID int64
	if v := r.URL.Query().Get("tag_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid tag_id")
			return
		}
		tagID = id
	}

	availableOnly := true
	if v := r.URL.Query().Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid available flag")
			return
		}
		availableOnly = b
	}

	var items []model.Item
	var err error

	if availableOnly {
		probeStart := time.Now()
		if v := r.URL.Query().Get("date"); v != "" {
			probeStart, err = time.Parse(time.RFC3339, v)
			if err != nil {
				jsonError(w, http.StatusBadRequest, "invalid date, expected RFC 3339")
				return
			}
		}
		items, err = store.ListAvailableItems(r.Context(), h.DB, name, tagID, probeStart, h.LoanDuration)
	} else {
		items, err = store.ListItems(r.Context(), h.DB, name, tagID)
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		jsonError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.Name, req.Description, req.Quantity, req.TagID, req.ConsumableIDs)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	consumables, err := store.ListItemConsumables(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item consumables")
		return
	}
	if consumables == nil {
		consumables = []model.Consumable{}
	}

	// How many units are committed right now.
	now := time.Now()
	active, err := store.ListActiveOverlapping(r.Context(), h.DB, id, now, now.Add(h.LoanDuration))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to count reservations")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":         item,
		"consumables":  consumables,
		"active_count": len(active),
	})
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Quantity < 1 {
		jsonError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, id, req.Name, req.Description, req.Quantity, req.TagID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	if req.ConsumableIDs != nil {
		if err := store.SetItemConsumables(r.Context(), h.DB, id, req.ConsumableIDs); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to update item consumables")
			return
		}
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// SetAvailability handles PUT /api/admin/items/{id}/available. It flips
// the global flag (broken / back in service); existing reservations are
// untouched, returns go through the reservation endpoints.
func (h *ItemsHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req setAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := store.SetItemAvailability(r.Context(), h.DB, id, req.Available); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to set availability")
		return
	}

	item, _ = store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, result.Data, result.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
