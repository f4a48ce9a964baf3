package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/laneboard/laneboard/internal/models"
)

func TestUserUpsertCreatesAndRefreshes(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)

	req := httptest.NewRequest(http.MethodPost, "/api/users",
		jsonBody(`{"external_id":"ext_1","email":"a@test.dev","first_name":"Ada"}`))
	w := httptest.NewRecorder()
	h.Upsert(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	var created models.User
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ExternalID != "ext_1" || created.Email != "a@test.dev" {
		t.Fatalf("unexpected user: %+v", created)
	}

	// Same external id again overwrites fields, no duplicate row.
	req2 := httptest.NewRequest(http.MethodPost, "/api/users",
		jsonBody(`{"external_id":"ext_1","email":"new@test.dev","last_name":"Lovelace"}`))
	w2 := httptest.NewRecorder()
	h.Upsert(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w2.Code, w2.Body.String())
	}
	var count int64
	conn.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 user got %d", count)
	}
	var updated models.User
	conn.Where("external_id = ?", "ext_1").First(&updated)
	if updated.Email != "new@test.dev" {
		t.Fatalf("email not refreshed: %s", updated.Email)
	}
	if updated.FirstName != nil {
		t.Fatalf("first_name should be overwritten to null, got %v", *updated.FirstName)
	}
}

func TestUserUpsertRejectsDuplicateEmail(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)
	seedUser(t, conn, "ext_a", "taken@test.dev")

	req := httptest.NewRequest(http.MethodPost, "/api/users",
		jsonBody(`{"external_id":"ext_b","email":"taken@test.dev"}`))
	w := httptest.NewRecorder()
	h.Upsert(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", w.Code, w.Body.String())
	}
}

func TestUserUpsertAllowsEmailOfDeletedUser(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)
	old := seedUser(t, conn, "ext_old", "free@test.dev")
	if err := conn.Delete(&old).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/users",
		jsonBody(`{"external_id":"ext_new","email":"free@test.dev"}`))
	w := httptest.NewRecorder()
	h.Upsert(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestUserUpsertValidation(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)

	req := httptest.NewRequest(http.MethodPost, "/api/users", jsonBody(`{"email":""}`))
	w := httptest.NewRecorder()
	h.Upsert(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestUserGetByExternalID(t *testing.T) {
	conn := setupTestDB(t)
	h := NewUserHandler(conn)
	seedUser(t, conn, "ext_1", "a@test.dev")

	req := authedRequest(http.MethodGet, "/api/users/ext_1", "ext_1", nil,
		map[string]string{"external_id": "ext_1"})
	w := httptest.NewRecorder()
	h.GetByExternalID(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	req2 := authedRequest(http.MethodGet, "/api/users/missing", "ext_1", nil,
		map[string]string{"external_id": "missing"})
	w2 := httptest.NewRecorder()
	h.GetByExternalID(w2, req2)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w2.Code)
	}
}
