package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lascala-dine/api/internal/cart"
	"github.com/lascala-dine/api/internal/database"
	"github.com/lascala-dine/api/internal/enum"
	"github.com/lascala-dine/api/internal/middleware"
	"github.com/lascala-dine/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	SubmitOrder(ctx context.Context, req service.SubmitOrderRequest) (*service.OrderResult, error)
	ReplaceItems(ctx context.Context, req service.ReplaceItemsRequest) (*service.OrderResult, error)
	Checkout(ctx context.Context, restaurantID, orderID uuid.UUID) (database.Order, error)
	SetStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status enum.OrderStatus) (database.Order, error)
}

// OrderReadStore defines the database methods needed by order read
// handlers. Satisfied by *database.Queries.
type OrderReadStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrdersForDay(ctx context.Context, arg database.ListOrdersForDayParams) ([]database.Order, error)
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
}

// OrderHandler handles diner order endpoints and staff status changes.
type OrderHandler struct {
	svc   OrderServicer
	store OrderReadStore
	carts *cart.Store
}

func NewOrderHandler(svc OrderServicer, store OrderReadStore, carts *cart.Store) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, carts: carts}
}

// RegisterDinerRoutes registers order endpoints inside the table-session
// subrouter.
func (h *OrderHandler) RegisterDinerRoutes(r chi.Router) {
	r.Post("/orders", h.Submit)
	r.Get("/orders/{oid}", h.Get)
	r.Put("/orders/{oid}/items", h.ReplaceItems)
	r.Post("/orders/{oid}/checkout", h.Checkout)
}

// RegisterStaffRoutes registers order endpoints inside the restaurant-scoped
// staff subrouter.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{oid}", h.StaffGet)
	r.Patch("/{oid}/status", h.UpdateStatus)
}

// --- Diner endpoints ---

type submitOrderRequest struct {
	Notes string `json:"notes"`
}

// Submit handles POST /orders: the session's cart becomes a persisted
// order. The cart is discarded only after the order commits, so a failed
// submission leaves the selection intact.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req submitOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	var lines []cart.Line
	h.carts.View(claims.TableID, func(c *cart.Cart) {
		lines = c.Lines()
	})

	result, err := h.svc.SubmitOrder(r.Context(), service.SubmitOrderRequest{
		RestaurantID: claims.RestaurantID,
		TableID:      claims.TableID,
		Notes:        req.Notes,
		Lines:        lines,
	})
	if err != nil {
		respondOrderError(w, "submit order", err)
		return
	}

	h.carts.Drop(claims.TableID)
	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// Get handles GET /orders/{oid} for the table session.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	h.respondOrderDetail(w, r, claims.RestaurantID)
}

type replaceItemsRequest struct {
	Notes string             `json:"notes"`
	Items []replaceItemEntry `json:"items"`
}

type replaceItemEntry struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

// ReplaceItems handles PUT /orders/{oid}/items: the edit flow's save.
// Items already on the order keep their captured prices; items added
// during the edit snapshot the current menu price.
func (h *OrderHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req replaceItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	lines, errMsg, err := h.resolveEditLines(r.Context(), claims.RestaurantID, orderID, req.Items)
	if err != nil {
		log.Printf("ERROR: resolve edit lines: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	result, err := h.svc.ReplaceItems(r.Context(), service.ReplaceItemsRequest{
		RestaurantID: claims.RestaurantID,
		OrderID:      orderID,
		Notes:        req.Notes,
		Lines:        lines,
	})
	if err != nil {
		respondOrderError(w, "replace order items", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(result.Order, result.Items))
}

// Checkout handles POST /orders/{oid}/checkout.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TableClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.svc.Checkout(r.Context(), claims.RestaurantID, orderID)
	if err != nil {
		respondOrderError(w, "checkout", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// --- Staff endpoints ---

// List handles GET /restaurants/{rid}/orders?date=YYYY-MM-DD (staff).
// Defaults to today.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	day := time.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		day, err = time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
			return
		}
	}

	orders, err := h.store.ListOrdersForDay(r.Context(), database.ListOrdersForDayParams{
		RestaurantID: restaurantID,
		OrderDate:    day,
	})
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": resp})
}

// StaffGet handles GET /restaurants/{rid}/orders/{oid} (staff).
func (h *OrderHandler) StaffGet(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	h.respondOrderDetail(w, r, restaurantID)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /restaurants/{rid}/orders/{oid}/status (staff).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.SetStatus(r.Context(), restaurantID, orderID, enum.OrderStatus(req.Status))
	if err != nil {
		respondOrderError(w, "update order status", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// --- Helpers ---

func (h *OrderHandler) respondOrderDetail(w http.ResponseWriter, r *http.Request, restaurantID uuid.UUID) {
	orderID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:           orderID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItems(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// resolveEditLines turns the edit payload into cart lines. Existing order
// items contribute their captured price and name; new menu item IDs are
// looked up and snapshotted.
func (h *OrderHandler) resolveEditLines(ctx context.Context, restaurantID, orderID uuid.UUID, entries []replaceItemEntry) ([]cart.Line, string, error) {
	existing, err := h.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("list order items: %w", err)
	}
	captured := make(map[uuid.UUID]database.OrderItem, len(existing))
	for _, it := range existing {
		captured[it.MenuItemID] = it
	}

	lines := make([]cart.Line, 0, len(entries))
	for i, e := range entries {
		menuItemID, err := uuid.Parse(e.MenuItemID)
		if err != nil {
			return nil, fmt.Sprintf("items[%d]: invalid menu_item_id", i), nil
		}
		if e.Quantity <= 0 {
			return nil, fmt.Sprintf("items[%d]: quantity must be > 0", i), nil
		}

		if prior, ok := captured[menuItemID]; ok {
			lines = append(lines, cart.Line{
				Item: cart.Item{
					ID:    menuItemID,
					Name:  prior.Name,
					Price: service.NumericToDecimal(prior.UnitPrice),
				},
				Quantity: e.Quantity,
			})
			continue
		}

		menuItem, err := h.store.GetMenuItem(ctx, database.GetMenuItemParams{
			ID:           menuItemID,
			RestaurantID: restaurantID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Sprintf("items[%d]: menu item not found", i), nil
			}
			return nil, "", fmt.Errorf("get menu item: %w", err)
		}
		if !menuItem.IsAvailable {
			return nil, fmt.Sprintf("items[%d]: menu item is not available", i), nil
		}

		lines = append(lines, cart.Line{
			Item:     menuToCartItem(menuItem),
			Quantity: e.Quantity,
		})
	}
	return lines, "", nil
}

// respondOrderError maps service errors onto HTTP statuses: validation
// failures to 400, missing rows to 404, gated transitions to 409, and
// everything else to a logged 500.
func respondOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyItems), errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrTableNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotEditable), errors.Is(err, service.ErrCheckoutNotReady):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
