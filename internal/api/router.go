package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/armoirecommune/armoire/internal/booking"
)

// Config carries the runtime configuration injected at startup.
type Config struct {
	JWTSecret string

	// LoanDuration is the fixed reservation length. Zero means
	// booking.DefaultLoanDuration.
	LoanDuration time.Duration

	// SuperPassword guards the super-promote bootstrap endpoint.
	// Empty disables it.
	SuperPassword string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, cfg Config) http.Handler {
	if cfg.LoanDuration <= 0 {
		cfg.LoanDuration = booking.DefaultLoanDuration
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: cfg.JWTSecret}
	usersHandler := &UsersHandler{DB: db, SuperPassword: cfg.SuperPassword}
	metaHandler := &MetaHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, LoanDuration: cfg.LoanDuration}
	reservationsHandler := &ReservationsHandler{DB: db, LoanDuration: cfg.LoanDuration}

	authMW := AuthMiddleware(cfg.JWTSecret, db)
	requireAdmin := RequireAdmin

	// Public: signup, login and the password-guarded bootstrap promotion.
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/admin/users/{id}/super-promote", usersHandler.SuperPromote)

	// Authenticated account routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /api/users/me", authMW(http.HandlerFunc(authHandler.Me)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("PUT /api/admin/users/{id}/promote", authMW(requireAdmin(http.HandlerFunc(usersHandler.Promote))))

	// Metadata: read (all members), write (admin).
	mux.Handle("GET /api/tags", authMW(http.HandlerFunc(metaHandler.ListTags)))
	mux.Handle("POST /api/tags", authMW(requireAdmin(http.HandlerFunc(metaHandler.CreateTag))))
	mux.Handle("GET /api/places", authMW(http.HandlerFunc(metaHandler.ListPlaces)))
	mux.Handle("POST /api/places", authMW(requireAdmin(http.HandlerFunc(metaHandler.CreatePlace))))
	mux.Handle("GET /api/consumables", authMW(http.HandlerFunc(metaHandler.ListConsumables)))
	mux.Handle("POST /api/consumables", authMW(requireAdmin(http.HandlerFunc(metaHandler.CreateConsumable))))

	// Items: read (all members), write (admin).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/admin/items/{id}/available", authMW(requireAdmin(http.HandlerFunc(itemsHandler.SetAvailability))))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireAdmin(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Reservations.
	mux.Handle("POST /api/reservations", authMW(http.HandlerFunc(reservationsHandler.Create)))
	mux.Handle("GET /api/reservations/me", authMW(http.HandlerFunc(reservationsHandler.ListMine)))
	mux.Handle("POST /api/reservations/{id}/cancel", authMW(http.HandlerFunc(reservationsHandler.Cancel)))
	mux.Handle("GET /api/admin/reservations", authMW(requireAdmin(http.HandlerFunc(reservationsHandler.ListAll))))
	mux.Handle("POST /api/admin/reservations/{id}/return", authMW(requireAdmin(http.HandlerFunc(reservationsHandler.Return))))

	return mux
}
