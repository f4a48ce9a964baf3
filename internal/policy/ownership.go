// Package policy implements the single authorization rule the API
// has: a project may only be read or mutated by its owner. Failures
// are opaque 404s so callers cannot distinguish "does not exist" from
// "belongs to someone else".
package policy

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laneboard/laneboard/internal/apperr"
	"github.com/laneboard/laneboard/internal/models"
)

const (
	userNotFoundDetail    = "User not found. Please ensure your user is synced to the database."
	projectNotFoundDetail = "Project not found or you don't have access to it."
)

// ResolveUser maps an external identity to the local User row.
func ResolveUser(db *gorm.DB, externalID string) (models.User, error) {
	var user models.User
	err := db.Where("external_id = ?", externalID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperr.NotFound(userNotFoundDetail)
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ResolveOwnedProject resolves the caller and confirms it owns the
// non-deleted project. Soft-deleted projects are filtered by the
// store-level delete predicate.
func ResolveOwnedProject(db *gorm.DB, externalID string, projectID uuid.UUID) (models.User, models.Project, error) {
	user, err := ResolveUser(db, externalID)
	if err != nil {
		return models.User{}, models.Project{}, err
	}
	project, err := ownedProject(db, user.ID, projectID)
	if err != nil {
		return models.User{}, models.Project{}, err
	}
	return user, project, nil
}

// OwnedProject confirms that an already-resolved user owns the
// non-deleted project.
func OwnedProject(db *gorm.DB, ownerID, projectID uuid.UUID) (models.Project, error) {
	return ownedProject(db, ownerID, projectID)
}

func ownedProject(db *gorm.DB, ownerID, projectID uuid.UUID) (models.Project, error) {
	var project models.Project
	err := db.Where("id = ? AND owner_id = ?", projectID, ownerID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Project{}, apperr.NotFound(projectNotFoundDetail)
	}
	if err != nil {
		return models.Project{}, err
	}
	return project, nil
}
