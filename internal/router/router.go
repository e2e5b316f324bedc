package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lascala-dine/api/internal/cart"
	"github.com/lascala-dine/api/internal/config"
	"github.com/lascala-dine/api/internal/database"
	"github.com/lascala-dine/api/internal/enum"
	"github.com/lascala-dine/api/internal/feed"
	"github.com/lascala-dine/api/internal/handler"
	mw "github.com/lascala-dine/api/internal/middleware"
	"github.com/lascala-dine/api/internal/service"
	"github.com/lascala-dine/api/internal/tracker"
	"github.com/lascala-dine/api/internal/ws"
)

// New creates a Chi router with all application routes wired up: the public
// QR scan entry point, table-session (diner) routes, staff routes, and the
// websocket endpoints.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, f *feed.Feed, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Staff auth (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Shared state
	carts := cart.NewStore()
	newStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, queries, newStore, f)
	orderTracker := tracker.New(queries, f)

	// QR scan entry point (public; issues the table-session token)
	tableHandler := handler.NewTableHandler(queries, cfg.JWTSecret)
	tableHandler.RegisterSessionRoute(r)

	// WebSocket routes (auth via query param)
	r.Get("/ws/restaurants/{rid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeStaffWS(hub, cfg.JWTSecret, w, r)
	})
	r.Get("/ws/restaurants/{rid}/orders/{oid}/track", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeTrackWS(orderTracker, cfg.JWTSecret, w, r)
	})

	// Table-session routes (diner)
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthenticateTable(cfg.JWTSecret))

		menuHandler := handler.NewMenuHandler(queries, carts)
		menuHandler.RegisterDinerRoutes(r)

		cartHandler := handler.NewCartHandler(queries, carts)
		cartHandler.RegisterRoutes(r)

		orderHandler := handler.NewOrderHandler(orderService, queries, carts)
		orderHandler.RegisterDinerRoutes(r)
	})

	// Staff routes, restaurant-scoped
	r.Route("/restaurants/{rid}", func(r chi.Router) {
		r.Use(mw.AuthenticateStaff(cfg.JWTSecret))
		r.Use(mw.RequireRestaurant)

		r.Route("/menu-items", func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleManager))
			menuHandler := handler.NewMenuHandler(queries, carts)
			menuHandler.RegisterStaffRoutes(r)
		})

		r.Route("/tables", func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleManager))
			tableHandler.RegisterStaffRoutes(r)
		})

		r.Route("/orders", func(r chi.Router) {
			orderHandler := handler.NewOrderHandler(orderService, queries, carts)
			orderHandler.RegisterStaffRoutes(r)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
