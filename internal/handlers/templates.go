package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laneboard/laneboard/internal/apperr"
	"github.com/laneboard/laneboard/internal/httpx"
	"github.com/laneboard/laneboard/internal/models"
	"github.com/laneboard/laneboard/internal/policy"
	"github.com/laneboard/laneboard/internal/services"
)

type TemplateHandler struct {
	DB  *gorm.DB
	Svc *services.TemplateService
}

func NewTemplateHandler(db *gorm.DB, svc *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{DB: db, Svc: svc}
}

// List returns the caller's non-deleted templates, newest first.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	user, err := policy.ResolveUser(h.DB, externalID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var templates []models.ProjectTemplate
	if err := h.DB.Where("owner_id = ?", user.ID).Order("created_at desc").Find(&templates).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	templateID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	_, tpl, err := h.lookupOwnedTemplate(externalID, templateID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}

// CreateFromProject snapshots a caller-owned project into a template.
func (h *TemplateHandler) CreateFromProject(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	var input struct {
		Name            string    `json:"name"`
		Description     *string   `json:"description"`
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
	user, err := policy.ResolveUser(h.DB, externalID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	source, err := policy.OwnedProject(h.DB, user.ID, input.SourceProjectID)
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Status == http.StatusNotFound {
			err = apperr.NotFound("Source project not found or you don't have access to it.")
		}
		httpx.Error(w, err)
		return
	}
	tpl, err := h.Svc.SnapshotProject(user, source, services.SnapshotInput{
		Name:            input.Name,
		Description:     input.Description,
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
	httpx.JSON(w, http.StatusCreated, tpl)
}

// CreateProject expands a caller-owned template into a new project.
func (h *TemplateHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	var input struct {
		TemplateID    uuid.UUID `json:"template_id"`
		Name          string    `json:"name"`
		KeepAssignees bool      `json:"keep_assignees"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	user, tpl, err := h.lookupOwnedTemplate(externalID, input.TemplateID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	project, err := h.Svc.ExpandTemplate(user, tpl, input.Name, input.KeepAssignees)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	templateID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	_, tpl, err := h.lookupOwnedTemplate(externalID, templateID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.DB.Delete(&tpl).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

// lookupOwnedTemplate finds a live template owned by the caller. The
// same opaque 404 covers missing templates and templates owned by
// someone else.
func (h *TemplateHandler) lookupOwnedTemplate(externalID string, id uuid.UUID) (models.User, models.ProjectTemplate, error) {
	user, err := policy.ResolveUser(h.DB, externalID)
	if err != nil {
		return models.User{}, models.ProjectTemplate{}, err
	}
	var tpl models.ProjectTemplate
	err = h.DB.Where("id = ? AND owner_id = ?", id, user.ID).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, models.ProjectTemplate{}, notFoundTemplate()
	}
	if err != nil {
		return models.User{}, models.ProjectTemplate{}, err
	}
	return user, tpl, nil
}
