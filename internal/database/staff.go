package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const staffColumns = `id, restaurant_id, full_name, email, hashed_password, role, created_at`

func scanStaffUser(row pgx.Row) (StaffUser, error) {
	var u StaffUser
	err := row.Scan(&u.ID, &u.RestaurantID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

const getStaffUserByEmail = `
SELECT ` + staffColumns + `
FROM staff_users
WHERE email = $1
`

func (q *Queries) GetStaffUserByEmail(ctx context.Context, email string) (StaffUser, error) {
	return scanStaffUser(q.db.QueryRow(ctx, getStaffUserByEmail, email))
}

const getStaffUserByID = `
SELECT ` + staffColumns + `
FROM staff_users
WHERE id = $1
`

func (q *Queries) GetStaffUserByID(ctx context.Context, id uuid.UUID) (StaffUser, error) {
	return scanStaffUser(q.db.QueryRow(ctx, getStaffUserByID, id))
}

const createStaffUser = `
INSERT INTO staff_users (restaurant_id, full_name, email, hashed_password, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + staffColumns

type CreateStaffUserParams struct {
	RestaurantID   uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
}

func (q *Queries) CreateStaffUser(ctx context.Context, arg CreateStaffUserParams) (StaffUser, error) {
	return scanStaffUser(q.db.QueryRow(ctx, createStaffUser,
		arg.RestaurantID, arg.FullName, arg.Email, arg.HashedPassword, arg.Role))
}
