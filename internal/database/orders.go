package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lascala-dine/api/internal/enum"
)

const orderColumns = `id, restaurant_id, table_id, order_number, order_date, status, notes, total_price, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.RestaurantID, &o.TableID, &o.OrderNumber, &o.OrderDate,
		&o.Status, &o.Notes, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND restaurant_id = $2
`

type GetOrderParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, arg.ID, arg.RestaurantID))
}

const latestOrderNumberForDay = `
SELECT COALESCE(MAX(order_number), 0)
FROM orders
WHERE restaurant_id = $1 AND order_date = $2
`

type LatestOrderNumberForDayParams struct {
	RestaurantID uuid.UUID
	OrderDate    time.Time
}

// LatestOrderNumberForDay returns the highest order number issued for the
// restaurant on the given day, or 0 when none exists yet.
func (q *Queries) LatestOrderNumberForDay(ctx context.Context, arg LatestOrderNumberForDayParams) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, latestOrderNumberForDay, arg.RestaurantID, arg.OrderDate).Scan(&n)
	return n, err
}

const listOrdersForDay = `
SELECT ` + orderColumns + `
FROM orders
WHERE restaurant_id = $1 AND order_date = $2
ORDER BY order_number DESC
`

type ListOrdersForDayParams struct {
	RestaurantID uuid.UUID
	OrderDate    time.Time
}

// ListOrdersForDay returns the restaurant's orders for one day, newest
// number first. The staff dashboard refetches this after feed events.
func (q *Queries) ListOrdersForDay(ctx context.Context, arg ListOrdersForDayParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersForDay, arg.RestaurantID, arg.OrderDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const createOrder = `
INSERT INTO orders (restaurant_id, table_id, order_number, order_date, notes, total_price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	OrderNumber  int32
	OrderDate    time.Time
	Notes        pgtype.Text
	TotalPrice   pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.RestaurantID, arg.TableID, arg.OrderNumber, arg.OrderDate, arg.Notes, arg.TotalPrice))
}

const updateOrderContents = `
UPDATE orders
SET notes = $3, total_price = $4, updated_at = now()
WHERE id = $1 AND restaurant_id = $2
RETURNING ` + orderColumns

type UpdateOrderContentsParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Notes        pgtype.Text
	TotalPrice   pgtype.Numeric
}

func (q *Queries) UpdateOrderContents(ctx context.Context, arg UpdateOrderContentsParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderContents,
		arg.ID, arg.RestaurantID, arg.Notes, arg.TotalPrice))
}

const updateOrderStatus = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND restaurant_id = $2
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Status       enum.OrderStatus
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.RestaurantID, arg.Status))
}

const updateOrderStatusIf = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND status = $4
RETURNING ` + orderColumns

type UpdateOrderStatusIfParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Status       enum.OrderStatus
	Expected     enum.OrderStatus
}

// UpdateOrderStatusIf updates the status only when the current status matches
// Expected; pgx.ErrNoRows means the order moved on between read and write.
func (q *Queries) UpdateOrderStatusIf(ctx context.Context, arg UpdateOrderStatusIfParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatusIf,
		arg.ID, arg.RestaurantID, arg.Status, arg.Expected))
}

// --- Order items ---

const orderItemColumns = `id, order_id, menu_item_id, name, quantity, unit_price`

func scanOrderItem(row pgx.Row) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.UnitPrice)
	return it, err
}

const listOrderItems = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	Quantity   int32
	UnitPrice  pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.MenuItemID, arg.Name, arg.Quantity, arg.UnitPrice))
}

const deleteOrderItems = `
DELETE FROM order_items
WHERE order_id = $1
`

// DeleteOrderItems removes every line of an order; callers replace the set
// inside the same transaction.
func (q *Queries) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItems, orderID)
	return err
}
