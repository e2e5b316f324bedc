package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/lascala-dine/api/internal/cart"
	"github.com/lascala-dine/api/internal/database"
	"github.com/lascala-dine/api/internal/middleware"
	"github.com/lascala-dine/api/internal/service"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, arg database.DeleteMenuItemParams) (uuid.UUID, error)
}

// MenuHandler serves the diner-facing menu and staff menu management.
type MenuHandler struct {
	store MenuStore
	carts *cart.Store
}

func NewMenuHandler(store MenuStore, carts *cart.Store) *MenuHandler {
	return &MenuHandler{store: store, carts: carts}
}

// RegisterDinerRoutes registers the browsing endpoint inside the
// table-session subrouter: GET /restaurants/{rid}/menu?category=
func (h *MenuHandler) RegisterDinerRoutes(r chi.Router) {
	r.Get("/menu", h.Browse)
}

// RegisterStaffRoutes registers menu management endpoints inside the
// restaurant-scoped staff subrouter.
func (h *MenuHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type menuResponse struct {
	Categories []string           `json:"categories"`
	Items      []menuItemResponse `json:"items"`
}

// Browse handles GET /restaurants/{rid}/menu. Items the diner already has
// in their cart sort first within the selected category, matching the
// in-cart-first ordering the menu screen renders.
func (h *MenuHandler) Browse(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	rows, err := h.store.ListMenuItems(r.Context(), claims.RestaurantID)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	byID := make(map[uuid.UUID]database.MenuItem, len(rows))
	menu := make([]cart.Item, len(rows))
	for i, m := range rows {
		byID[m.ID] = m
		menu[i] = menuToCartItem(m)
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		category = cart.AllCategories
	}

	var filtered []cart.Item
	h.carts.View(claims.TableID, func(c *cart.Cart) {
		filtered = cart.FilterByCategory(menu, category, c)
	})

	items := make([]menuItemResponse, len(filtered))
	for i, it := range filtered {
		items[i] = toMenuItemResponse(byID[it.ID])
	}

	writeJSON(w, http.StatusOK, menuResponse{
		Categories: cart.Categories(menu),
		Items:      items,
	})
}

type menuItemRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Price       string `json:"price"`
}

func (req menuItemRequest) validate() (decimal.Decimal, string) {
	if req.Name == "" {
		return decimal.Zero, "name is required"
	}
	if req.Category == "" {
		return decimal.Zero, "category is required"
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return decimal.Zero, "price must be a non-negative decimal string"
	}
	return price, ""
}

// Create handles POST /restaurants/{rid}/menu-items (staff).
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	price, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Category:     req.Category,
		Description:  optionalText(req.Description),
		ImageURL:     optionalText(req.ImageURL),
		Price:        priceNumeric(price),
	})
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update handles PUT /restaurants/{rid}/menu-items/{id} (staff).
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	price, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:           itemID,
		RestaurantID: restaurantID,
		Name:         req.Name,
		Category:     req.Category,
		Description:  optionalText(req.Description),
		ImageURL:     optionalText(req.ImageURL),
		Price:        priceNumeric(price),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete handles DELETE /restaurants/{rid}/menu-items/{id} (staff).
// Items are taken off the menu, not erased: order lines keep their
// snapshots.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	if _, err := h.store.DeleteMenuItem(r.Context(), database.DeleteMenuItemParams{
		ID:           itemID,
		RestaurantID: restaurantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func menuToCartItem(m database.MenuItem) cart.Item {
	return cart.Item{
		ID:          m.ID,
		Name:        m.Name,
		Category:    m.Category,
		Description: m.Description.String,
		ImageURL:    m.ImageURL.String,
		Price:       service.NumericToDecimal(m.Price),
	}
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func priceNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
