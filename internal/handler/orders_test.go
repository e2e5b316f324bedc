package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lascala-dine/api/internal/cart"
	"github.com/lascala-dine/api/internal/database"
	"github.com/lascala-dine/api/internal/enum"
	"github.com/lascala-dine/api/internal/handler"
	"github.com/lascala-dine/api/internal/middleware"
	"github.com/lascala-dine/api/internal/service"
)

// --- Mock service ---

type mockOrderService struct {
	submitFn   func(ctx context.Context, req service.SubmitOrderRequest) (*service.OrderResult, error)
	replaceFn  func(ctx context.Context, req service.ReplaceItemsRequest) (*service.OrderResult, error)
	checkoutFn func(ctx context.Context, restaurantID, orderID uuid.UUID) (database.Order, error)
	statusFn   func(ctx context.Context, restaurantID, orderID uuid.UUID, status enum.OrderStatus) (database.Order, error)
}

func (m *mockOrderService) SubmitOrder(ctx context.Context, req service.SubmitOrderRequest) (*service.OrderResult, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, req)
	}
	return nil, service.ErrEmptyItems
}

func (m *mockOrderService) ReplaceItems(ctx context.Context, req service.ReplaceItemsRequest) (*service.OrderResult, error) {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, req)
	}
	return nil, service.ErrOrderNotFound
}

func (m *mockOrderService) Checkout(ctx context.Context, restaurantID, orderID uuid.UUID) (database.Order, error) {
	if m.checkoutFn != nil {
		return m.checkoutFn(ctx, restaurantID, orderID)
	}
	return database.Order{}, service.ErrOrderNotFound
}

func (m *mockOrderService) SetStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status enum.OrderStatus) (database.Order, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, restaurantID, orderID, status)
	}
	return database.Order{}, service.ErrOrderNotFound
}

// --- Mock read store ---

type mockOrderReadStore struct {
	orders     map[uuid.UUID]database.Order
	orderItems map[uuid.UUID][]database.OrderItem
	menuItems  map[uuid.UUID]database.MenuItem
}

func newMockOrderReadStore() *mockOrderReadStore {
	return &mockOrderReadStore{
		orders:     make(map[uuid.UUID]database.Order),
		orderItems: make(map[uuid.UUID][]database.OrderItem),
		menuItems:  make(map[uuid.UUID]database.MenuItem),
	}
}

func (m *mockOrderReadStore) GetOrder(_ context.Context, arg database.GetOrderParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok || o.RestaurantID != arg.RestaurantID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderReadStore) ListOrderItems(_ context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.orderItems[orderID], nil
}

func (m *mockOrderReadStore) ListOrdersForDay(_ context.Context, arg database.ListOrdersForDayParams) ([]database.Order, error) {
	var result []database.Order
	for _, o := range m.orders {
		if o.RestaurantID == arg.RestaurantID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockOrderReadStore) GetMenuItem(_ context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
	it, ok := m.menuItems[arg.ID]
	if !ok || it.RestaurantID != arg.RestaurantID {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return it, nil
}

// --- Helpers ---

func setupOrderRouter(svc *mockOrderService, store *mockOrderReadStore, carts *cart.Store) *chi.Mux {
	h := handler.NewOrderHandler(svc, store, carts)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthenticateTable(testJWTSecret))
		h.RegisterDinerRoutes(r)
	})
	r.Route("/restaurants/{rid}/orders", func(r chi.Router) {
		r.Use(middleware.AuthenticateStaff(testJWTSecret))
		r.Use(middleware.RequireRestaurant)
		h.RegisterStaffRoutes(r)
	})
	return r
}

func numeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func cartWithLines(tableID uuid.UUID, lines ...cart.Line) *cart.Store {
	s := cart.NewStore()
	s.Update(tableID, func(c *cart.Cart) {
		for _, ln := range lines {
			for i := int32(0); i < ln.Quantity; i++ {
				c.Add(ln.Item)
			}
		}
	})
	return s
}

// --- Submit tests ---

func TestSubmitSendsCartAndDropsIt(t *testing.T) {
	restaurantID := uuid.New()
	tableID := uuid.New()
	itemID := uuid.New()

	var gotReq service.SubmitOrderRequest
	svc := &mockOrderService{
		submitFn: func(_ context.Context, req service.SubmitOrderRequest) (*service.OrderResult, error) {
			gotReq = req
			return &service.OrderResult{
				Order: database.Order{
					ID:           uuid.New(),
					RestaurantID: req.RestaurantID,
					TableID:      req.TableID,
					OrderNumber:  1,
					Status:       enum.StatusNew,
					TotalPrice:   numeric("90.00"),
				},
			}, nil
		},
	}

	carts := cartWithLines(tableID, cart.Line{
		Item:     cart.Item{ID: itemID, Name: "Mixed Grill"},
		Quantity: 2,
	})
	router := setupOrderRouter(svc, newMockOrderReadStore(), carts)

	rr := doTableRequest(t, router, "POST", "/orders", map[string]string{"notes": "no onions"}, restaurantID, tableID)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	if gotReq.RestaurantID != restaurantID || gotReq.TableID != tableID {
		t.Errorf("request not scoped by session claims: %+v", gotReq)
	}
	if gotReq.Notes != "no onions" {
		t.Errorf("notes: got %q", gotReq.Notes)
	}
	if len(gotReq.Lines) != 1 || gotReq.Lines[0].Quantity != 2 {
		t.Errorf("lines: got %+v, want one line qty 2", gotReq.Lines)
	}

	// Cart is gone after a successful submission.
	carts.View(tableID, func(c *cart.Cart) {
		if c.Len() != 0 {
			t.Errorf("cart not dropped after submit: %d lines", c.Len())
		}
	})
}

func TestSubmitEmptyCart(t *testing.T) {
	restaurantID := uuid.New()
	tableID := uuid.New()
	svc := &mockOrderService{
		submitFn: func(_ context.Context, req service.SubmitOrderRequest) (*service.OrderResult, error) {
			return nil, service.ErrEmptyItems
		},
	}
	router := setupOrderRouter(svc, newMockOrderReadStore(), cart.NewStore())

	rr := doTableRequest(t, router, "POST", "/orders", nil, restaurantID, tableID)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSubmitFailureKeepsCart(t *testing.T) {
	restaurantID := uuid.New()
	tableID := uuid.New()
	svc := &mockOrderService{
		submitFn: func(_ context.Context, req service.SubmitOrderRequest) (*service.OrderResult, error) {
			return nil, context.DeadlineExceeded
		},
	}

	carts := cartWithLines(tableID, cart.Line{
		Item:     cart.Item{ID: uuid.New(), Name: "Hummus"},
		Quantity: 1,
	})
	router := setupOrderRouter(svc, newMockOrderReadStore(), carts)

	rr := doTableRequest(t, router, "POST", "/orders", nil, restaurantID, tableID)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}

	carts.View(tableID, func(c *cart.Cart) {
		if c.Len() != 1 {
			t.Errorf("failed submit must keep the cart, got %d lines", c.Len())
		}
	})
}

// --- Detail tests ---

func TestGetOrderDetail(t *testing.T) {
	restaurantID := uuid.New()
	tableID := uuid.New()
	orderID := uuid.New()

	store := newMockOrderReadStore()
	store.orders[orderID] = database.Order{
		ID:           orderID,
		RestaurantID: restaurantID,
		TableID:      tableID,
		OrderNumber:  7,
		Status:       enum.StatusDelivered,
		TotalPrice:   numeric("120.00"),
	}
	store.orderItems[orderID] = []database.OrderItem{
		{ID: uuid.New(), OrderID: orderID, MenuItemID: uuid.New(), Name: "Mixed Grill", Quantity: 2, UnitPrice: numeric("45.00")},
	}
	router := setupOrderRouter(&mockOrderService{}, store, cart.NewStore())

	rr := doTableRequest(t, router, "GET", "/orders/"+orderID.String(), nil, restaurantID, tableID)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	if resp["status"] != "delivered" {
		t.Errorf("status: got %v", resp["status"])
	}
	if resp["can_checkout"] != true {
		t.Error("delivered order should be checkout-able")
	}
	if resp["can_edit"] != false {
		t.Error("delivered order must not be editable")
	}
	items := resp["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("items: got %d, want 1", len(items))
	}
	if items[0].(map[string]interface{})["subtotal"] != "90.00" {
		t.Errorf("subtotal: got %v, want 90.00", items[0].(map[string]interface{})["subtotal"])
	}
}

func TestGetOrderOtherRestaurant(t *testing.T) {
	orderID := uuid.New()
	store := newMockOrderReadStore()
	store.orders[orderID] = database.Order{ID: orderID, RestaurantID: uuid.New()}
	router := setupOrderRouter(&mockOrderService{}, store, cart.NewStore())

	rr := doTableRequest(t, router, "GET", "/orders/"+orderID.String(), nil, uuid.New(), uuid.New())
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Edit tests ---

func TestReplaceItemsKeepsCapturedPrices(t *testing.T) {
	restaurantID := uuid.New()
	orderID := uuid.New()
	menuItemID := uuid.New()

	store := newMockOrderReadStore()
	// The order captured 45.00; the menu has since gone up to 50.00.
	store.orderItems[orderID] = []database.OrderItem{
		{ID: uuid.New(), OrderID: orderID, MenuItemID: menuItemID, Name: "Mixed Grill", Quantity: 2, UnitPrice: numeric("45.00")},
	}
	store.menuItems[menuItemID] = database.MenuItem{
		ID: menuItemID, RestaurantID: restaurantID, Name: "Mixed Grill", Price: numeric("50.00"), IsAvailable: true,
	}

	var gotReq service.ReplaceItemsRequest
	svc := &mockOrderService{
		replaceFn: func(_ context.Context, req service.ReplaceItemsRequest) (*service.OrderResult, error) {
			gotReq = req
			return &service.OrderResult{
				Order: database.Order{ID: req.OrderID, RestaurantID: req.RestaurantID, Status: enum.StatusNew},
			}, nil
		},
	}
	router := setupOrderRouter(svc, store, cart.NewStore())

	rr := doTableRequest(t, router, "PUT", "/orders/"+orderID.String()+"/items",
		map[string]interface{}{
			"items": []map[string]interface{}{
				{"menu_item_id": menuItemID.String(), "quantity": 3},
			},
		}, restaurantID, uuid.New())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	if len(gotReq.Lines) != 1 {
		t.Fatalf("lines: got %d, want 1", len(gotReq.Lines))
	}
	if got := gotReq.Lines[0].Price.StringFixed(2); got != "45.00" {
		t.Errorf("existing item must keep its captured price: got %s, want 45.00", got)
	}
	if gotReq.Lines[0].Quantity != 3 {
		t.Errorf("quantity: got %d, want 3", gotReq.Lines[0].Quantity)
	}
}

func TestReplaceItemsSnapshotsNewMenuItems(t *testing.T) {
	restaurantID := uuid.New()
	orderID := uuid.New()
	newItemID := uuid.New()

	store := newMockOrderReadStore()
	store.menuItems[newItemID] = database.MenuItem{
		ID: newItemID, RestaurantID: restaurantID, Name: "Baklava", Price: numeric("18.00"), IsAvailable: true,
	}

	var gotReq service.ReplaceItemsRequest
	svc := &mockOrderService{
		replaceFn: func(_ context.Context, req service.ReplaceItemsRequest) (*service.OrderResult, error) {
			gotReq = req
			return &service.OrderResult{
				Order: database.Order{ID: req.OrderID, RestaurantID: req.RestaurantID, Status: enum.StatusNew},
			}, nil
		},
	}
	router := setupOrderRouter(svc, store, cart.NewStore())

	rr := doTableRequest(t, router, "PUT", "/orders/"+orderID.String()+"/items",
		map[string]interface{}{
			"items": []map[string]interface{}{
				{"menu_item_id": newItemID.String(), "quantity": 1},
			},
		}, restaurantID, uuid.New())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	if len(gotReq.Lines) != 1 || gotReq.Lines[0].Name != "Baklava" {
		t.Fatalf("lines: got %+v", gotReq.Lines)
	}
	if got := gotReq.Lines[0].Price.StringFixed(2); got != "18.00" {
		t.Errorf("new item price: got %s, want 18.00", got)
	}
}

func TestReplaceItemsLockedOrder(t *testing.T) {
	restaurantID := uuid.New()
	orderID := uuid.New()
	menuItemID := uuid.New()

	store := newMockOrderReadStore()
	store.menuItems[menuItemID] = database.MenuItem{
		ID: menuItemID, RestaurantID: restaurantID, Name: "Soup", Price: numeric("30.00"), IsAvailable: true,
	}
	svc := &mockOrderService{
		replaceFn: func(_ context.Context, req service.ReplaceItemsRequest) (*service.OrderResult, error) {
			return nil, service.ErrOrderNotEditable
		},
	}
	router := setupOrderRouter(svc, store, cart.NewStore())

	rr := doTableRequest(t, router, "PUT", "/orders/"+orderID.String()+"/items",
		map[string]interface{}{
			"items": []map[string]interface{}{
				{"menu_item_id": menuItemID.String(), "quantity": 1},
			},
		}, restaurantID, uuid.New())

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestReplaceItemsEmptyPayload(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, newMockOrderReadStore(), cart.NewStore())

	rr := doTableRequest(t, router, "PUT", "/orders/"+uuid.New().String()+"/items",
		map[string]interface{}{"items": []map[string]interface{}{}}, uuid.New(), uuid.New())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Checkout tests ---

func TestCheckoutHappyPath(t *testing.T) {
	restaurantID := uuid.New()
	orderID := uuid.New()
	svc := &mockOrderService{
		checkoutFn: func(_ context.Context, rid, oid uuid.UUID) (database.Order, error) {
			return database.Order{ID: oid, RestaurantID: rid, Status: enum.StatusBillingRequested}, nil
		},
	}
	router := setupOrderRouter(svc, newMockOrderReadStore(), cart.NewStore())

	rr := doTableRequest(t, router, "POST", "/orders/"+orderID.String()+"/checkout", nil, restaurantID, uuid.New())
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	if resp["status"] != "billing-requested" {
		t.Errorf("status: got %v, want billing-requested", resp["status"])
	}
}

func TestCheckoutNotDeliveredYet(t *testing.T) {
	svc := &mockOrderService{
		checkoutFn: func(_ context.Context, rid, oid uuid.UUID) (database.Order, error) {
			return database.Order{}, service.ErrCheckoutNotReady
		},
	}
	router := setupOrderRouter(svc, newMockOrderReadStore(), cart.NewStore())

	rr := doTableRequest(t, router, "POST", "/orders/"+uuid.New().String()+"/checkout", nil, uuid.New(), uuid.New())
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

// --- Staff tests ---

func TestStaffUpdateStatus(t *testing.T) {
	restaurantID := uuid.New()
	orderID := uuid.New()

	var gotStatus enum.OrderStatus
	svc := &mockOrderService{
		statusFn: func(_ context.Context, rid, oid uuid.UUID, status enum.OrderStatus) (database.Order, error) {
			gotStatus = status
			return database.Order{ID: oid, RestaurantID: rid, Status: status}, nil
		},
	}
	router := setupOrderRouter(svc, newMockOrderReadStore(), cart.NewStore())

	rr := doStaffRequest(t, router, "PATCH",
		"/restaurants/"+restaurantID.String()+"/orders/"+orderID.String()+"/status",
		map[string]string{"status": "in-kitchen"}, restaurantID, enum.RoleKitchen)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if gotStatus != enum.StatusInKitchen {
		t.Errorf("service got status %s, want in-kitchen", gotStatus)
	}
}

func TestStaffUpdateStatusRejectsUnknown(t *testing.T) {
	restaurantID := uuid.New()
	svc := &mockOrderService{
		statusFn: func(_ context.Context, rid, oid uuid.UUID, status enum.OrderStatus) (database.Order, error) {
			return database.Order{}, service.ErrInvalidStatus
		},
	}
	router := setupOrderRouter(svc, newMockOrderReadStore(), cart.NewStore())

	rr := doStaffRequest(t, router, "PATCH",
		"/restaurants/"+restaurantID.String()+"/orders/"+uuid.New().String()+"/status",
		map[string]string{"status": "cancelled"}, restaurantID, enum.RoleKitchen)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestStaffUpdateStatusCrossRestaurant(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, newMockOrderReadStore(), cart.NewStore())

	rr := doStaffRequest(t, router, "PATCH",
		"/restaurants/"+uuid.New().String()+"/orders/"+uuid.New().String()+"/status",
		map[string]string{"status": "ready"}, uuid.New(), enum.RoleKitchen)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestStaffListOrders(t *testing.T) {
	restaurantID := uuid.New()
	store := newMockOrderReadStore()
	orderID := uuid.New()
	store.orders[orderID] = database.Order{
		ID:           orderID,
		RestaurantID: restaurantID,
		OrderNumber:  3,
		Status:       enum.StatusReady,
		TotalPrice:   numeric("60.00"),
	}
	router := setupOrderRouter(&mockOrderService{}, store, cart.NewStore())

	rr := doStaffRequest(t, router, "GET", "/restaurants/"+restaurantID.String()+"/orders",
		nil, restaurantID, enum.RoleCashier)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	orders := resp["orders"].([]interface{})
	if len(orders) != 1 {
		t.Fatalf("orders: got %d, want 1", len(orders))
	}
}
