package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, restaurant_id, name, category, description, image_url, price, is_available, created_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Category, &m.Description,
		&m.ImageURL, &m.Price, &m.IsAvailable, &m.CreatedAt)
	return m, err
}

const listMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE restaurant_id = $1 AND is_available = true
ORDER BY created_at, id
`

// ListMenuItems returns the full available menu for a restaurant in stable
// (insertion) order.
func (q *Queries) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const getMenuItem = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE id = $1 AND restaurant_id = $2
`

type GetMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetMenuItem(ctx context.Context, arg GetMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, arg.ID, arg.RestaurantID))
}

const createMenuItem = `
INSERT INTO menu_items (restaurant_id, name, category, description, image_url, price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	RestaurantID uuid.UUID
	Name         string
	Category     string
	Description  pgtype.Text
	ImageURL     pgtype.Text
	Price        pgtype.Numeric
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.RestaurantID, arg.Name, arg.Category, arg.Description, arg.ImageURL, arg.Price))
}

const updateMenuItem = `
UPDATE menu_items
SET name = $3, category = $4, description = $5, image_url = $6, price = $7
WHERE id = $1 AND restaurant_id = $2
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Category     string
	Description  pgtype.Text
	ImageURL     pgtype.Text
	Price        pgtype.Numeric
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID, arg.RestaurantID, arg.Name, arg.Category, arg.Description, arg.ImageURL, arg.Price))
}

const deleteMenuItem = `
UPDATE menu_items
SET is_available = false
WHERE id = $1 AND restaurant_id = $2
RETURNING id
`

type DeleteMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

// DeleteMenuItem soft-deletes by flipping is_available; order items keep
// referencing the row for their snapshots.
func (q *Queries) DeleteMenuItem(ctx context.Context, arg DeleteMenuItemParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteMenuItem, arg.ID, arg.RestaurantID).Scan(&id)
	return id, err
}
