package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, restaurant_id, table_number, is_active, active_order, created_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.IsActive, &t.ActiveOrder, &t.CreatedAt)
	return t, err
}

const getTable = `
SELECT ` + tableColumns + `
FROM tables
WHERE id = $1 AND restaurant_id = $2
`

type GetTableParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetTable(ctx context.Context, arg GetTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTable, arg.ID, arg.RestaurantID))
}

const getTableByNumber = `
SELECT ` + tableColumns + `
FROM tables
WHERE restaurant_id = $1 AND table_number = $2
`

type GetTableByNumberParams struct {
	RestaurantID uuid.UUID
	TableNumber  int32
}

func (q *Queries) GetTableByNumber(ctx context.Context, arg GetTableByNumberParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTableByNumber, arg.RestaurantID, arg.TableNumber))
}

const listTables = `
SELECT ` + tableColumns + `
FROM tables
WHERE restaurant_id = $1
ORDER BY table_number
`

func (q *Queries) ListTables(ctx context.Context, restaurantID uuid.UUID) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

const createTable = `
INSERT INTO tables (restaurant_id, table_number)
VALUES ($1, $2)
RETURNING ` + tableColumns

type CreateTableParams struct {
	RestaurantID uuid.UUID
	TableNumber  int32
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, createTable, arg.RestaurantID, arg.TableNumber))
}

const setTableActiveOrder = `
UPDATE tables
SET is_active = true, active_order = $3
WHERE id = $1 AND restaurant_id = $2
RETURNING ` + tableColumns

type SetTableActiveOrderParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	ActiveOrder  pgtype.UUID
}

// SetTableActiveOrder marks the table occupied and points it at the order.
func (q *Queries) SetTableActiveOrder(ctx context.Context, arg SetTableActiveOrderParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, setTableActiveOrder, arg.ID, arg.RestaurantID, arg.ActiveOrder))
}

const releaseTable = `
UPDATE tables
SET is_active = false, active_order = NULL
WHERE id = $1 AND restaurant_id = $2
RETURNING ` + tableColumns

type ReleaseTableParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

// ReleaseTable frees the table once its order cycle completes.
func (q *Queries) ReleaseTable(ctx context.Context, arg ReleaseTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, releaseTable, arg.ID, arg.RestaurantID))
}
