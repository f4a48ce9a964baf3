package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laneboard/laneboard/internal/httpx"
	"github.com/laneboard/laneboard/internal/models"
	"github.com/laneboard/laneboard/internal/policy"
	"github.com/laneboard/laneboard/internal/services"
)

type ProjectHandler struct {
	DB  *gorm.DB
	Svc *services.TemplateService
}

func NewProjectHandler(db *gorm.DB, svc *services.TemplateService) *ProjectHandler {
	return &ProjectHandler{DB: db, Svc: svc}
}

// Create makes a new project owned by the caller and, in the same
// transaction, its three default swim lanes.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	var input struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	user, err := policy.ResolveUser(h.DB, externalID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	project := models.Project{Name: input.Name, OwnerID: user.ID}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		lanes := models.DefaultSwimLanes(project.ID)
		for i := range lanes {
			if err := tx.Create(&lanes[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

// List returns the caller's non-deleted projects, newest first.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	user, err := policy.ResolveUser(h.DB, externalID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var projects []models.Project
	if err := h.DB.Where("owner_id = ?", user.ID).Order("created_at desc").Find(&projects).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	_, project, err := policy.ResolveOwnedProject(h.DB, externalID, projectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Update partial-merges name and roles; fields not supplied stay untouched.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	_, project, err := policy.ResolveOwnedProject(h.DB, externalID, projectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var input struct {
		Name  *string          `json:"name"`
		Roles *models.RoleList `json:"roles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			httpx.JSONError(w, http.StatusBadRequest, "name cannot be empty", nil)
			return
		}
		project.Name = *input.Name
	}
	if input.Roles != nil {
		project.Roles = *input.Roles
	}
	if err := h.DB.Save(&project).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	_, project, err := policy.ResolveOwnedProject(h.DB, externalID, projectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.DB.Delete(&project).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

// CloneFromSource creates a new project by copying the selected parts
// of a caller-owned live project.
func (h *ProjectHandler) CloneFromSource(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	var input struct {
		Name            string    `json:"name"`
		SourceProjectID uuid.UUID `json:"source_project_id"`
		IncludeStatuses bool      `json:"include_statuses"`
		IncludeRoles    bool      `json:"include_roles"`
		IncludeUsers    bool      `json:"include_users"`
		IncludeTasks    bool      `json:"include_tasks"`
		KeepAssignees   bool      `json:"keep_assignees"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	user, source, err := policy.ResolveOwnedProject(h.DB, externalID, input.SourceProjectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	project, err := h.Svc.CloneProject(user, source, services.CloneInput{
		Name:            input.Name,
		IncludeStatuses: input.IncludeStatuses,
		IncludeRoles:    input.IncludeRoles,
		IncludeUsers:    input.IncludeUsers,
		IncludeTasks:    input.IncludeTasks,
		KeepAssignees:   input.KeepAssignees,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}
