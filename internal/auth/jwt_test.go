package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lascala-dine/api/internal/auth"
)

func TestGenerateAndValidateStaffToken(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()
	restaurantID := uuid.New()
	role := "KITCHEN"

	token, err := auth.GenerateStaffToken(secret, userID, restaurantID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateStaffToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
	}
	if claims.RestaurantID != restaurantID {
		t.Errorf("restaurant ID: got %v, want %v", claims.RestaurantID, restaurantID)
	}
	if claims.Role != role {
		t.Errorf("role: got %v, want %v", claims.Role, role)
	}
}

func TestGenerateAndValidateTableToken(t *testing.T) {
	secret := "test-secret"
	restaurantID := uuid.New()
	tableID := uuid.New()

	token, err := auth.GenerateTableToken(secret, restaurantID, tableID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateTableToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.RestaurantID != restaurantID {
		t.Errorf("restaurant ID: got %v, want %v", claims.RestaurantID, restaurantID)
	}
	if claims.TableID != tableID {
		t.Errorf("table ID: got %v, want %v", claims.TableID, tableID)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateTableToken("secret-a", uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err = auth.ValidateTableToken("secret-b", token); err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateStaffTokenAsTableToken(t *testing.T) {
	// A staff token has no table_id claim and must not open a table session.
	token, err := auth.GenerateStaffToken("secret", uuid.New(), uuid.New(), "CASHIER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err = auth.ValidateTableToken("secret", token); err == nil {
		t.Fatal("expected error validating staff token as table token")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	if _, err := auth.ValidateStaffToken("secret", "not-a-jwt"); err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}
