package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/lascala-dine/api/internal/cart"
	"github.com/lascala-dine/api/internal/database"
	"github.com/lascala-dine/api/internal/enum"
	"github.com/lascala-dine/api/internal/feed"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems       = errors.New("order must contain at least one item")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrOrderNotFound    = errors.New("order not found")
	ErrTableNotFound    = errors.New("table not found")
	ErrOrderNotEditable = errors.New("order can no longer be edited")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrCheckoutNotReady = errors.New("checkout is only available once the order is delivered")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order transactions need.
// Satisfied by *database.Queries (pool- or tx-bound).
type OrderStore interface {
	LatestOrderNumberForDay(ctx context.Context, arg database.LatestOrderNumberForDayParams) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	GetTable(ctx context.Context, arg database.GetTableParams) (database.Table, error)
	SetTableActiveOrder(ctx context.Context, arg database.SetTableActiveOrderParams) (database.Table, error)
	ReleaseTable(ctx context.Context, arg database.ReleaseTableParams) (database.Table, error)
	UpdateOrderContents(ctx context.Context, arg database.UpdateOrderContentsParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderStatusIf(ctx context.Context, arg database.UpdateOrderStatusIfParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), letting the
// service bind stores to its own transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// SubmitOrderRequest carries a validated table session's cart to submission.
// Lines hold server-snapshotted prices; the client never supplies amounts.
type SubmitOrderRequest struct {
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	Notes        string
	Lines        []cart.Line
}

// ReplaceItemsRequest wholesale-replaces an order's line set.
type ReplaceItemsRequest struct {
	RestaurantID uuid.UUID
	OrderID      uuid.UUID
	Notes        string
	Lines        []cart.Line
}

// OrderResult is an order with its line items.
type OrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService owns every mutation of orders and their side effects on
// tables, and publishes a feed event after each commit.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore // pool-bound, for single-statement operations
	newStore NewOrderStore
	feed     *feed.Feed
}

func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore, f *feed.Feed) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore, feed: f}
}

// SubmitOrder turns a non-empty cart into a persisted order: it assigns the
// next day-scoped order number, inserts the order and its lines, and marks
// the table occupied, all in one transaction. Concurrent submissions that
// computed the same number collide on the unique index and are retried.
func (s *OrderService) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*OrderResult, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.submitOrderTx(ctx, req)
		if err == nil {
			s.feed.Publish(feed.Event{
				Type:         feed.EventOrderCreated,
				RestaurantID: result.Order.RestaurantID,
				OrderID:      result.Order.ID,
				Status:       string(result.Order.Status),
			})
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *OrderService) submitOrderTx(ctx context.Context, req SubmitOrderRequest) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetTable(ctx, database.GetTableParams{
		ID:           req.TableID,
		RestaurantID: req.RestaurantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	// Day-scoped sequential number: max existing for (restaurant, today) + 1,
	// so the first order of a day is 1.
	today := startOfDay(time.Now())
	latest, err := store.LatestOrderNumberForDay(ctx, database.LatestOrderNumberForDayParams{
		RestaurantID: req.RestaurantID,
		OrderDate:    today,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch latest order number: %w", err)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		RestaurantID: req.RestaurantID,
		TableID:      req.TableID,
		OrderNumber:  latest + 1,
		OrderDate:    today,
		Notes:        textOrNull(req.Notes),
		TotalPrice:   decimalToNumeric(linesTotal(req.Lines)),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items, err := insertLines(ctx, store, order.ID, req.Lines)
	if err != nil {
		return nil, fmt.Errorf("create order items: %w", err)
	}

	if _, err := store.SetTableActiveOrder(ctx, database.SetTableActiveOrderParams{
		ID:           req.TableID,
		RestaurantID: req.RestaurantID,
		ActiveOrder:  pgtype.UUID{Bytes: order.ID, Valid: true},
	}); err != nil {
		return nil, fmt.Errorf("mark table active: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Items: items}, nil
}

// ReplaceItems is the edit flow's save: while the order is still new, it
// replaces the whole line set, notes, and recomputed total in one
// transaction. Edits never leave the order with zero items.
func (s *OrderService) ReplaceItems(ctx context.Context, req ReplaceItemsRequest) (*OrderResult, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, database.GetOrderParams{
		ID:           req.OrderID,
		RestaurantID: req.RestaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !order.Status.CanEdit() {
		return nil, ErrOrderNotEditable
	}

	if err := store.DeleteOrderItems(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}

	items, err := insertLines(ctx, store, order.ID, req.Lines)
	if err != nil {
		return nil, fmt.Errorf("create order items: %w", err)
	}

	updated, err := store.UpdateOrderContents(ctx, database.UpdateOrderContentsParams{
		ID:           order.ID,
		RestaurantID: req.RestaurantID,
		Notes:        textOrNull(req.Notes),
		TotalPrice:   decimalToNumeric(linesTotal(req.Lines)),
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.feed.Publish(feed.Event{
		Type:         feed.EventOrderUpdated,
		RestaurantID: updated.RestaurantID,
		OrderID:      updated.ID,
		Status:       string(updated.Status),
	})
	return &OrderResult{Order: updated, Items: items}, nil
}

// Checkout is the single diner-triggered transition: delivered →
// billing-requested. The update is conditional on the current status, so a
// concurrent staff change surfaces as ErrCheckoutNotReady instead of
// clobbering it.
func (s *OrderService) Checkout(ctx context.Context, restaurantID, orderID uuid.UUID) (database.Order, error) {
	order, err := s.store.UpdateOrderStatusIf(ctx, database.UpdateOrderStatusIfParams{
		ID:           orderID,
		RestaurantID: restaurantID,
		Status:       enum.StatusBillingRequested,
		Expected:     enum.StatusDelivered,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the order doesn't exist or it isn't delivered yet.
			if _, getErr := s.store.GetOrder(ctx, database.GetOrderParams{
				ID:           orderID,
				RestaurantID: restaurantID,
			}); getErr != nil {
				if errors.Is(getErr, pgx.ErrNoRows) {
					return database.Order{}, ErrOrderNotFound
				}
				return database.Order{}, fmt.Errorf("get order: %w", getErr)
			}
			return database.Order{}, ErrCheckoutNotReady
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	s.feed.Publish(feed.Event{
		Type:         feed.EventStatusChanged,
		RestaurantID: order.RestaurantID,
		OrderID:      order.ID,
		Status:       string(order.Status),
	})
	return order, nil
}

// SetStatus applies a staff status change. Transitions are not sequenced,
// so kitchen and cashier tooling may set any valid status. Completing an
// order also releases its table so the next QR scan starts fresh.
func (s *OrderService) SetStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status enum.OrderStatus) (database.Order, error) {
	if !status.Valid() {
		return database.Order{}, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:           orderID,
		RestaurantID: restaurantID,
		Status:       status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if status.Terminal() {
		if _, err := store.ReleaseTable(ctx, database.ReleaseTableParams{
			ID:           order.TableID,
			RestaurantID: restaurantID,
		}); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("release table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.feed.Publish(feed.Event{
		Type:         feed.EventStatusChanged,
		RestaurantID: order.RestaurantID,
		OrderID:      order.ID,
		Status:       string(order.Status),
	})
	return order, nil
}

// --- Helpers ---

func validateLines(lines []cart.Line) error {
	if len(lines) == 0 {
		return ErrEmptyItems
	}
	for i, ln := range lines {
		if ln.Quantity <= 0 {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	return nil
}

func linesTotal(lines []cart.Line) decimal.Decimal {
	total := decimal.Zero
	for _, ln := range lines {
		total = total.Add(ln.Price.Mul(decimal.NewFromInt32(ln.Quantity)))
	}
	return total
}

func insertLines(ctx context.Context, store OrderStore, orderID uuid.UUID, lines []cart.Line) ([]database.OrderItem, error) {
	items := make([]database.OrderItem, 0, len(lines))
	for _, ln := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    orderID,
			MenuItemID: ln.ID,
			Name:       ln.Name,
			Quantity:   ln.Quantity,
			UnitPrice:  decimalToNumeric(ln.Price),
		})
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// isOrderNumberConflict reports a unique violation (23505) on the
// per-restaurant per-day order number index.
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_restaurant_day_number_key"
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// NumericToDecimal converts a stored amount back to a decimal for
// recomputation and display.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
