package api

import (
	"crypto/subtle"
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/armoirecommune/armoire/internal/model"
	"github.com/armoirecommune/armoire/internal/store"
)

// UsersHandler handles user administration endpoints.
type UsersHandler struct {
	DB *sql.DB

	// SuperPassword guards the super-promote endpoint: a bootstrap path
	// to mint the first administrator without an existing one. Empty
	// disables the endpoint.
	SuperPassword string
}

type promoteRequest struct {
	IsAdmin bool `json:"is_admin"`
}

type superPromoteRequest struct {
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Promote handles PUT /api/admin/users/{id}/promote.
func (h *UsersHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req promoteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.setAdmin(w, r, id, req.IsAdmin)
}

// SuperPromote handles POST /api/admin/users/{id}/super-promote. Unlike
// Promote it is not behind the admin guard; the configured password is
// the credential.
func (h *UsersHandler) SuperPromote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req superPromoteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.SuperPassword == "" || subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.SuperPassword)) != 1 {
		jsonError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	h.setAdmin(w, r, id, req.IsAdmin)
}

func (h *UsersHandler) setAdmin(w http.ResponseWriter, r *http.Request, id int64, isAdmin bool) {
	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	role := model.RoleMember
	if isAdmin {
		role = model.RoleAdmin
	}

	if err := store.SetUserRole(r.Context(), h.DB, id, role); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update user role")
		return
	}

	slog.Info("user role changed", "user", user.Email, "role", role)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user " + user.Email + " role set to " + role})
}
