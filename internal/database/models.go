package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lascala-dine/api/internal/enum"
)

type Restaurant struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type MenuItem struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Category     string
	Description  pgtype.Text
	ImageURL     pgtype.Text
	Price        pgtype.Numeric
	IsAvailable  bool
	CreatedAt    time.Time
}

type Table struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	TableNumber  int32
	IsActive     bool
	ActiveOrder  pgtype.UUID
	CreatedAt    time.Time
}

type Order struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	OrderNumber  int32
	OrderDate    time.Time
	Status       enum.OrderStatus
	Notes        pgtype.Text
	TotalPrice   pgtype.Numeric
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	Quantity   int32
	UnitPrice  pgtype.Numeric
}

type StaffUser struct {
	ID             uuid.UUID
	RestaurantID   uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}
