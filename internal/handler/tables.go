package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lascala-dine/api/internal/auth"
	"github.com/lascala-dine/api/internal/database"
)

// Session modes returned by the QR scan endpoint. A free table starts the
// ordering flow; an occupied one resumes tracking its active order.
const (
	ModeOrder = "order"
	ModeTrack = "track"
)

// TableStore defines the database methods needed by table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	GetTableByNumber(ctx context.Context, arg database.GetTableByNumberParams) (database.Table, error)
	ListTables(ctx context.Context, restaurantID uuid.UUID) ([]database.Table, error)
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
}

// TableHandler handles the QR scan session endpoint and staff table
// management.
type TableHandler struct {
	store     TableStore
	jwtSecret string
}

func NewTableHandler(store TableStore, jwtSecret string) *TableHandler {
	return &TableHandler{store: store, jwtSecret: jwtSecret}
}

// RegisterSessionRoute registers the public QR scan entry point.
// Mounted at the API root: POST /restaurants/{rid}/tables/{n}/session
func (h *TableHandler) RegisterSessionRoute(r chi.Router) {
	r.Post("/restaurants/{rid}/tables/{n}/session", h.StartSession)
}

// RegisterStaffRoutes registers table management endpoints.
// Mounted inside the restaurant-scoped staff subrouter.
func (h *TableHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

type sessionResponse struct {
	Table tableResponse `json:"table"`
	Mode  string        `json:"mode"`
	Token string        `json:"token"`
}

// StartSession resolves the scanned QR code into a table session. The mode
// tells the client which flow to enter: "order" for a free table, "track"
// when the table already has an active order.
func (h *TableHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	tableNumber, err := strconv.ParseInt(chi.URLParam(r, "n"), 10, 32)
	if err != nil || tableNumber <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	table, err := h.store.GetTableByNumber(r.Context(), database.GetTableByNumberParams{
		RestaurantID: restaurantID,
		TableNumber:  int32(tableNumber),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table by number: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	token, err := auth.GenerateTableToken(h.jwtSecret, restaurantID, table.ID)
	if err != nil {
		log.Printf("ERROR: generate table token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	mode := ModeOrder
	if table.IsActive && table.ActiveOrder.Valid {
		mode = ModeTrack
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Table: toTableResponse(table),
		Mode:  mode,
		Token: token,
	})
}

// List handles GET /restaurants/{rid}/tables (staff).
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	tables, err := h.store.ListTables(r.Context(), restaurantID)
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": resp})
}

type createTableRequest struct {
	TableNumber int32 `json:"table_number"`
}

// Create handles POST /restaurants/{rid}/tables (staff).
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.TableNumber <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number must be > 0"})
		return
	}

	table, err := h.store.CreateTable(r.Context(), database.CreateTableParams{
		RestaurantID: restaurantID,
		TableNumber:  req.TableNumber,
	})
	if err != nil {
		log.Printf("ERROR: create table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toTableResponse(table))
}
