package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lascala-dine/api/internal/auth"
	"github.com/lascala-dine/api/internal/database"
	"github.com/lascala-dine/api/internal/enum"
	"github.com/lascala-dine/api/internal/handler"
)

const testJWTSecret = "test-secret"

// --- Shared request helpers ---

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// doTableRequest sends a request authenticated with a table-session token.
func doTableRequest(t *testing.T, router http.Handler, method, path string, body interface{}, restaurantID, tableID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateTableToken(testJWTSecret, restaurantID, tableID)
	if err != nil {
		t.Fatalf("generate table token: %v", err)
	}
	return doBearerRequest(t, router, method, path, body, token)
}

// doStaffRequest sends a request authenticated with a staff token.
func doStaffRequest(t *testing.T, router http.Handler, method, path string, body interface{}, restaurantID uuid.UUID, role string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateStaffToken(testJWTSecret, uuid.New(), restaurantID, role)
	if err != nil {
		t.Fatalf("generate staff token: %v", err)
	}
	return doBearerRequest(t, router, method, path, body, token)
}

func doBearerRequest(t *testing.T, router http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Mock store ---

type mockAuthStore struct {
	users map[string]database.StaffUser // keyed by email
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{users: make(map[string]database.StaffUser)}
}

func (m *mockAuthStore) GetStaffUserByEmail(_ context.Context, email string) (database.StaffUser, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return database.StaffUser{}, pgx.ErrNoRows
}

func (m *mockAuthStore) addUser(t *testing.T, email, password string) database.StaffUser {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := database.StaffUser{
		ID:             uuid.New(),
		RestaurantID:   uuid.New(),
		FullName:       "Test Manager",
		Email:          email,
		HashedPassword: string(hashed),
		Role:           enum.RoleManager,
	}
	m.users[email] = u
	return u
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Tests ---

func TestLoginSuccess(t *testing.T) {
	store := newMockAuthStore()
	user := store.addUser(t, "manager@lascala.test", "correct-horse")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "manager@lascala.test",
		"password": "correct-horse",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	tokenStr, _ := resp["token"].(string)
	if tokenStr == "" {
		t.Fatal("expected a token in the response")
	}

	claims, err := auth.ValidateStaffToken(testJWTSecret, tokenStr)
	if err != nil {
		t.Fatalf("returned token does not validate: %v", err)
	}
	if claims.UserID != user.ID || claims.RestaurantID != user.RestaurantID {
		t.Errorf("token claims do not identify the user: %+v", claims)
	}
	if claims.Role != enum.RoleManager {
		t.Errorf("role: got %s, want %s", claims.Role, enum.RoleManager)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMockAuthStore()
	store.addUser(t, "manager@lascala.test", "correct-horse")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "manager@lascala.test",
		"password": "wrong",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "nobody@lascala.test",
		"password": "whatever",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLoginMissingFields(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{"email": "x@y.test"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
