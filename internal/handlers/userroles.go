package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laneboard/laneboard/internal/apperr"
	"github.com/laneboard/laneboard/internal/httpx"
	"github.com/laneboard/laneboard/internal/models"
	"github.com/laneboard/laneboard/internal/policy"
)

type UserRoleHandler struct {
	DB *gorm.DB
}

func NewUserRoleHandler(db *gorm.DB) *UserRoleHandler { return &UserRoleHandler{DB: db} }

// userRoleView is the list projection: the assignment plus the linked
// user's contact fields, flattened.
type userRoleView struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
}

// ListByProject returns the project's role assignments with user details.
func (h *UserRoleHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	projectID, ok := pathID(w, r, "project_id")
	if !ok {
		return
	}
	if _, _, err := policy.ResolveOwnedProject(h.DB, externalID, projectID); err != nil {
		httpx.Error(w, err)
		return
	}
	var roles []models.ProjectUserRole
	err := h.DB.Preload("User").Where("project_id = ?", projectID).Order("created_at").Find(&roles).Error
	if err != nil {
		httpx.Error(w, err)
		return
	}
	views := make([]userRoleView, 0, len(roles))
	for _, ur := range roles {
		views = append(views, userRoleView{
			ID:        ur.ID,
			ProjectID: ur.ProjectID,
			UserID:    ur.UserID,
			Role:      ur.Role,
			Email:     ur.User.Email,
			FirstName: ur.User.FirstName,
			LastName:  ur.User.LastName,
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}

// Create assigns a role to a user within a project. The role must be
// one of the project's defined roles when that set is non-empty, the
// user must exist, and the exact (user, role) pair must not already be
// assigned.
func (h *UserRoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	projectID, ok := pathID(w, r, "project_id")
	if !ok {
		return
	}
	var input struct {
		ProjectID uuid.UUID `json:"project_id"`
		UserID    uuid.UUID `json:"user_id"`
		Role      string    `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if input.ProjectID == uuid.Nil || input.ProjectID != projectID {
		httpx.JSONError(w, http.StatusBadRequest, "Project ID mismatch", nil)
		return
	}
	_, project, err := policy.ResolveOwnedProject(h.DB, externalID, projectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		httpx.JSONError(w, http.StatusBadRequest, "role is required", nil)
		return
	}
	// An empty role set means the project accepts any role string.
	if len(project.Roles) > 0 && !project.Roles.Contains(role) {
		httpx.JSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Role '%s' is not defined for this project", role), nil)
		return
	}

	var userCount int64
	if err := h.DB.Model(&models.User{}).Where("id = ?", input.UserID).Count(&userCount).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	if userCount == 0 {
		httpx.Error(w, apperr.NotFound("User not found"))
		return
	}

	var dup int64
	err = h.DB.Model(&models.ProjectUserRole{}).
		Where("project_id = ? AND user_id = ? AND role = ?", projectID, input.UserID, role).
		Count(&dup).Error
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if dup > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "This user already has this role for this project", nil)
		return
	}

	assignment := models.ProjectUserRole{ProjectID: projectID, UserID: input.UserID, Role: role}
	if err := h.DB.Create(&assignment).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, assignment)
}

// lookupOwnedUserRole finds a live assignment under the path's project
// and confirms the caller owns that project. An assignment that exists
// under a different project yields the same 404.
func (h *UserRoleHandler) lookupOwnedUserRole(externalID string, projectID, id uuid.UUID) (models.ProjectUserRole, models.Project, error) {
	user, err := policy.ResolveUser(h.DB, externalID)
	if err != nil {
		return models.ProjectUserRole{}, models.Project{}, err
	}
	var assignment models.ProjectUserRole
	err = h.DB.Where("id = ? AND project_id = ?", id, projectID).First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ProjectUserRole{}, models.Project{}, notFoundUserRole()
	}
	if err != nil {
		return models.ProjectUserRole{}, models.Project{}, err
	}
	project, err := policy.OwnedProject(h.DB, user.ID, assignment.ProjectID)
	if err != nil {
		return models.ProjectUserRole{}, models.Project{}, err
	}
	return assignment, project, nil
}

// Update changes only the role string of an existing assignment.
func (h *UserRoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	projectID, ok := pathID(w, r, "project_id")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	assignment, project, err := h.lookupOwnedUserRole(externalID, projectID, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var input struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		httpx.JSONError(w, http.StatusBadRequest, "role is required", nil)
		return
	}
	if len(project.Roles) > 0 && !project.Roles.Contains(role) {
		httpx.JSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Role '%s' is not defined for this project", role), nil)
		return
	}
	if role != assignment.Role {
		var dup int64
		err = h.DB.Model(&models.ProjectUserRole{}).
			Where("project_id = ? AND user_id = ? AND role = ? AND id <> ?",
				assignment.ProjectID, assignment.UserID, role, assignment.ID).
			Count(&dup).Error
		if err != nil {
			httpx.Error(w, err)
			return
		}
		if dup > 0 {
			httpx.JSONError(w, http.StatusBadRequest, "This user already has this role for this project", nil)
			return
		}
	}
	assignment.Role = role
	if err := h.DB.Save(&assignment).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignment)
}

func (h *UserRoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	projectID, ok := pathID(w, r, "project_id")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	assignment, _, err := h.lookupOwnedUserRole(externalID, projectID, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.DB.Delete(&assignment).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}
