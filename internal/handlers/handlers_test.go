package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/laneboard/laneboard/internal/auth"
	"github.com/laneboard/laneboard/internal/db"
	"github.com/laneboard/laneboard/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, externalID, email string) models.User {
	t.Helper()
	user := models.User{ExternalID: externalID, Email: email}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedProject(t *testing.T, conn *gorm.DB, owner models.User, name string, roles ...string) models.Project {
	t.Helper()
	project := models.Project{Name: name, OwnerID: owner.ID, Roles: roles}
	if err := conn.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func seedLane(t *testing.T, conn *gorm.DB, project models.Project, name string, order int) models.ProjectSwimLane {
	t.Helper()
	lane := models.ProjectSwimLane{ProjectID: project.ID, Name: name, Order: order}
	if err := conn.Create(&lane).Error; err != nil {
		t.Fatalf("seed lane: %v", err)
	}
	return lane
}

// authedRequest builds a request with a verified identity on the
// context and optional path vars, the way the router would deliver it.
func authedRequest(method, target, externalID string, body io.Reader, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if externalID != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), externalID))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }
