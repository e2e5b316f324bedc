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

	"github.com/lascala-dine/api/internal/cart"
	"github.com/lascala-dine/api/internal/database"
	"github.com/lascala-dine/api/internal/middleware"
)

// CartMenuStore is the read access cart handlers need to snapshot menu
// items into cart lines. Satisfied by *database.Queries.
type CartMenuStore interface {
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
}

// CartHandler manages the table session's in-memory cart.
type CartHandler struct {
	store CartMenuStore
	carts *cart.Store
}

func NewCartHandler(store CartMenuStore, carts *cart.Store) *CartHandler {
	return &CartHandler{store: store, carts: carts}
}

// RegisterRoutes registers cart endpoints inside the table-session
// subrouter.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Delete("/cart", h.Clear)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/{id}", h.AdjustItem)
	r.Delete("/cart/items/{id}", h.RemoveItem)
}

type cartResponse struct {
	Lines []cart.Line `json:"lines"`
	Count int         `json:"count"`
	Total string      `json:"total"`
}

func snapshotCart(c *cart.Cart) cartResponse {
	lines := c.Lines()
	if lines == nil {
		lines = []cart.Line{}
	}
	return cartResponse{
		Lines: lines,
		Count: c.Len(),
		Total: c.Total().StringFixed(2),
	}
}

// Get handles GET /cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var resp cartResponse
	h.carts.View(claims.TableID, func(c *cart.Cart) {
		resp = snapshotCart(c)
	})
	writeJSON(w, http.StatusOK, resp)
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	h.carts.Drop(claims.TableID)
	w.WriteHeader(http.StatusNoContent)
}

type addItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
}

// AddItem handles POST /cart/items. The menu row is snapshotted into the
// cart line, so price edits after this point do not move the selection.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu_item_id"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), database.GetMenuItemParams{
		ID:           menuItemID,
		RestaurantID: claims.RestaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if !item.IsAvailable {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item is not available"})
		return
	}

	var resp cartResponse
	h.carts.Update(claims.TableID, func(c *cart.Cart) {
		c.Add(menuToCartItem(item))
		resp = snapshotCart(c)
	})
	writeJSON(w, http.StatusOK, resp)
}

type adjustItemRequest struct {
	Delta int32 `json:"delta"`
}

// AdjustItem handles PATCH /cart/items/{id}. A negative delta that empties
// the line removes it; adjusting an item not in the cart is a no-op.
func (h *CartHandler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req adjustItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be non-zero"})
		return
	}

	var resp cartResponse
	h.carts.Update(claims.TableID, func(c *cart.Cart) {
		c.Adjust(itemID, req.Delta)
		resp = snapshotCart(c)
	})
	writeJSON(w, http.StatusOK, resp)
}

// RemoveItem handles DELETE /cart/items/{id}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var resp cartResponse
	h.carts.Update(claims.TableID, func(c *cart.Cart) {
		c.Remove(itemID)
		resp = snapshotCart(c)
	})
	writeJSON(w, http.StatusOK, resp)
}
