package database

import (
	"context"

	"github.com/google/uuid"
)

const getRestaurant = `
SELECT id, name, created_at
FROM restaurants
WHERE id = $1
`

func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	var r Restaurant
	err := q.db.QueryRow(ctx, getRestaurant, id).Scan(&r.ID, &r.Name, &r.CreatedAt)
	return r, err
}

const createRestaurant = `
INSERT INTO restaurants (name)
VALUES ($1)
RETURNING id, name, created_at
`

func (q *Queries) CreateRestaurant(ctx context.Context, name string) (Restaurant, error) {
	var r Restaurant
	err := q.db.QueryRow(ctx, createRestaurant, name).Scan(&r.ID, &r.Name, &r.CreatedAt)
	return r, err
}
