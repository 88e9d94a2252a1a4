package api

import (
	"database/sql"
	"net/http"

	"github.com/armoirecommune/armoire/internal/model"
	"github.com/armoirecommune/armoire/internal/store"
)

// MetaHandler handles tag, place and consumable metadata endpoints.
// Creation is admin-only, listing is open to all members.
type MetaHandler struct {
	DB *sql.DB
}

type createTagRequest struct {
	Name string `json:"name"`
}

type createPlaceRequest struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type createConsumableRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// CreateTag handles POST /api/tags.
func (h *MetaHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	tag, err := store.CreateTag(r.Context(), h.DB, req.Name)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}
	jsonResponse(w, http.StatusCreated, tag)
}

// ListTags handles GET /api/tags.
func (h *MetaHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := store.ListTags(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	jsonResponse(w, http.StatusOK, tags)
}

// CreatePlace handles POST /api/places.
func (h *MetaHandler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var req createPlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	place, err := store.CreatePlace(r.Context(), h.DB, req.Name, req.Lat, req.Lng, req.Address)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create place")
		return
	}
	jsonResponse(w, http.StatusCreated, place)
}

// ListPlaces handles GET /api/places.
func (h *MetaHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := store.ListPlaces(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list places")
		return
	}
	if places == nil {
		places = []model.Place{}
	}
	jsonResponse(w, http.StatusOK, places)
}

// CreateConsumable handles POST /api/consumables.
func (h *MetaHandler) CreateConsumable(w http.ResponseWriter, r *http.Request) {
	var req createConsumableRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	consumable, err := store.CreateConsumable(r.Context(), h.DB, req.Name, req.Description, req.Quantity, req.Price)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create consumable")
		return
	}
	jsonResponse(w, http.StatusCreated, consumable)
}

// ListConsumables handles GET /api/consumables.
func (h *MetaHandler) ListConsumables(w http.ResponseWriter, r *http.Request) {
	consumables, err := store.ListConsumables(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list consumables")
		return
	}
	if consumables == nil {
		consumables = []model.Consumable{}
	}
	jsonResponse(w, http.StatusOK, consumables)
}
