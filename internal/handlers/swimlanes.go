package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/laneboard/laneboard/internal/httpx"
	"github.com/laneboard/laneboard/internal/models"
	"github.com/laneboard/laneboard/internal/policy"
)

type SwimLaneHandler struct {
	DB *gorm.DB
}

func NewSwimLaneHandler(db *gorm.DB) *SwimLaneHandler { return &SwimLaneHandler{DB: db} }

func (h *SwimLaneHandler) Create(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	var input struct {
		ProjectID uuid.UUID `json:"project_id"`
		Name      string    `json:"name"`
		Order     int       `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if _, _, err := policy.ResolveOwnedProject(h.DB, externalID, input.ProjectID); err != nil {
		httpx.Error(w, err)
		return
	}
	lane := models.ProjectSwimLane{ProjectID: input.ProjectID, Name: input.Name, Order: input.Order}
	if err := h.DB.Create(&lane).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lane)
}

// lookupOwnedLane finds a non-deleted lane and confirms the caller
// owns its project. The lane 404 and the ownership 404 stay distinct
// messages, both opaque to the caller.
func (h *SwimLaneHandler) lookupOwnedLane(externalID string, laneID uuid.UUID) (models.ProjectSwimLane, error) {
	user, err := policy.ResolveUser(h.DB, externalID)
	if err != nil {
		return models.ProjectSwimLane{}, err
	}
	var lane models.ProjectSwimLane
	err = h.DB.Where("id = ?", laneID).First(&lane).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ProjectSwimLane{}, notFoundSwimLane()
	}
	if err != nil {
		return models.ProjectSwimLane{}, err
	}
	if _, err := policy.OwnedProject(h.DB, user.ID, lane.ProjectID); err != nil {
		return models.ProjectSwimLane{}, err
	}
	return lane, nil
}

func (h *SwimLaneHandler) Update(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	laneID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lane, err := h.lookupOwnedLane(externalID, laneID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var input struct {
		Name  *string `json:"name"`
		Order *int    `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if input.Name != nil {
		lane.Name = *input.Name
	}
	if input.Order != nil {
		lane.Order = *input.Order
	}
	if err := h.DB.Save(&lane).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lane)
}

func (h *SwimLaneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	laneID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lane, err := h.lookupOwnedLane(externalID, laneID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.DB.Delete(&lane).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

// ListByProject returns the project's non-deleted lanes in display order.
func (h *SwimLaneHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	projectID, ok := pathID(w, r, "project_id")
	if !ok {
		return
	}
	if _, _, err := policy.ResolveOwnedProject(h.DB, externalID, projectID); err != nil {
		httpx.Error(w, err)
		return
	}
	var lanes []models.ProjectSwimLane
	err := h.DB.Where("project_id = ?", projectID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
		Find(&lanes).Error
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lanes)
}
