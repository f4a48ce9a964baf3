package policy

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/laneboard/laneboard/internal/apperr"
	"github.com/laneboard/laneboard/internal/db"
	"github.com/laneboard/laneboard/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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

func TestResolveUserUnknownIs404(t *testing.T) {
	conn := setupTestDB(t)
	_, err := ResolveUser(conn, "ghost")
	e, ok := apperr.As(err)
	if !ok || e.Status != 404 {
		t.Fatalf("expected 404 apperr, got %v", err)
	}
}

func TestResolveOwnedProject(t *testing.T) {
	conn := setupTestDB(t)
	owner := models.User{ExternalID: "ext_1", Email: "a@test.dev"}
	if err := conn.Create(&owner).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	stranger := models.User{ExternalID: "ext_2", Email: "b@test.dev"}
	if err := conn.Create(&stranger).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	project := models.Project{Name: "Mine", OwnerID: owner.ID}
	if err := conn.Create(&project).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, _, err := ResolveOwnedProject(conn, "ext_1", project.ID); err != nil {
		t.Fatalf("owner should resolve: %v", err)
	}

	// Non-owner and deleted project both come back as the same 404.
	_, _, err := ResolveOwnedProject(conn, "ext_2", project.ID)
	e, ok := apperr.As(err)
	if !ok || e.Status != 404 {
		t.Fatalf("expected opaque 404 for non-owner, got %v", err)
	}

	if err := conn.Delete(&project).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, _, err = ResolveOwnedProject(conn, "ext_1", project.ID)
	e, ok = apperr.As(err)
	if !ok || e.Status != 404 {
		t.Fatalf("expected 404 for deleted project, got %v", err)
	}
}
