package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StaffClaims authenticate restaurant staff for order lifecycle actions.
type StaffClaims struct {
	UserID       uuid.UUID `json:"user_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Role         string    `json:"role"`
	jwt.RegisteredClaims
}

// TableClaims authenticate a dining session started by scanning a table's
// QR code. They scope cart and order actions to one table of one restaurant.
type TableClaims struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	TableID      uuid.UUID `json:"table_id"`
	jwt.RegisteredClaims
}

func GenerateStaffToken(secret string, userID, restaurantID uuid.UUID, role string) (string, error) {
	claims := StaffClaims{
		UserID:       userID,
		RestaurantID: restaurantID,
		Role:         role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateTableToken issues a session token valid for one sitting. Long
// enough to cover a slow dinner, short enough that a stale QR scan expires.
func GenerateTableToken(secret string, restaurantID, tableID uuid.UUID) (string, error) {
	claims := TableClaims{
		RestaurantID: restaurantID,
		TableID:      tableID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(6 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateStaffToken(secret, tokenStr string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &StaffClaims{}, keyFunc(secret))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	// A table token signs with the same secret; the zero user ID tells
	// the two apart.
	if claims.UserID == uuid.Nil || claims.RestaurantID == uuid.Nil || claims.Role == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func ValidateTableToken(secret, tokenStr string) (*TableClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &TableClaims{}, keyFunc(secret))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*TableClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.RestaurantID == uuid.Nil || claims.TableID == uuid.Nil {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func keyFunc(secret string) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}
}
