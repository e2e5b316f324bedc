package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/lascala-dine/api/internal/database"
	"github.com/lascala-dine/api/internal/service"
)

// --- Shared response types ---

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url"`
	Price       string    `json:"price"`
	IsAvailable bool      `json:"is_available"`
}

type tableResponse struct {
	ID          uuid.UUID  `json:"id"`
	TableNumber int32      `json:"table_number"`
	IsActive    bool       `json:"is_active"`
	ActiveOrder *uuid.UUID `json:"active_order"`
}

type orderResponse struct {
	ID          uuid.UUID           `json:"id"`
	TableID     uuid.UUID           `json:"table_id"`
	OrderNumber int32               `json:"order_number"`
	OrderDate   string              `json:"order_date"`
	Status      string              `json:"status"`
	Message     string              `json:"message"`
	CanEdit     bool                `json:"can_edit"`
	CanCheckout bool                `json:"can_checkout"`
	Notes       *string             `json:"notes"`
	TotalPrice  string              `json:"total_price"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Items       []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	Subtotal   string    `json:"subtotal"`
}

// --- Converters ---

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Category:    m.Category,
		Description: textPtr(m.Description),
		ImageURL:    textPtr(m.ImageURL),
		Price:       priceString(m.Price),
		IsAvailable: m.IsAvailable,
	}
}

func toTableResponse(t database.Table) tableResponse {
	resp := tableResponse{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		IsActive:    t.IsActive,
	}
	if t.ActiveOrder.Valid {
		id := uuid.UUID(t.ActiveOrder.Bytes)
		resp.ActiveOrder = &id
	}
	return resp
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		TableID:     o.TableID,
		OrderNumber: o.OrderNumber,
		OrderDate:   o.OrderDate.Format("2006-01-02"),
		Status:      string(o.Status),
		Message:     o.Status.Message(),
		CanEdit:     o.Status.CanEdit(),
		CanCheckout: o.Status.CanCheckout(),
		Notes:       textPtr(o.Notes),
		TotalPrice:  priceString(o.TotalPrice),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(it))
	}
	return resp
}

func toOrderItemResponse(it database.OrderItem) orderItemResponse {
	unit := service.NumericToDecimal(it.UnitPrice)
	return orderItemResponse{
		ID:         it.ID,
		MenuItemID: it.MenuItemID,
		Name:       it.Name,
		Quantity:   it.Quantity,
		UnitPrice:  unit.StringFixed(2),
		Subtotal:   unit.Mul(decimal.NewFromInt32(it.Quantity)).StringFixed(2),
	}
}

// --- Helpers ---

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func priceString(n pgtype.Numeric) string {
	return service.NumericToDecimal(n).StringFixed(2)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}
