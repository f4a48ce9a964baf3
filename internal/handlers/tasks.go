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
)

type TaskHandler struct {
	DB *gorm.DB
}

func NewTaskHandler(db *gorm.DB) *TaskHandler { return &TaskHandler{DB: db} }

// Create adds a task to a swim lane. The caller must own the project,
// the lane must belong to it, the title must survive trimming, and an
// assignee (when given) must be a live user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	var input struct {
		ProjectID         uuid.UUID  `json:"project_id"`
		ProjectSwimLaneID uuid.UUID  `json:"project_swim_lane_id"`
		Title             string     `json:"title"`
		Description       *string    `json:"description"`
		AssignedTo        *uuid.UUID `json:"assigned_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	user, _, err := policy.ResolveOwnedProject(h.DB, externalID, input.ProjectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	var lane models.ProjectSwimLane
	err = h.DB.Where("id = ? AND project_id = ?", input.ProjectSwimLaneID, input.ProjectID).First(&lane).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.Error(w, apperr.NotFound("Swim lane not found or does not belong to the specified project."))
		return
	}
	if err != nil {
		httpx.Error(w, err)
		return
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		httpx.JSONError(w, http.StatusBadRequest, "Title is required and cannot be empty.", nil)
		return
	}

	if input.AssignedTo != nil {
		if err := h.checkAssignee(*input.AssignedTo); err != nil {
			httpx.Error(w, err)
			return
		}
	}

	task := models.Task{
		ProjectID:         input.ProjectID,
		ProjectSwimLaneID: input.ProjectSwimLaneID,
		Title:             title,
		Description:       input.Description,
		AssignedTo:        input.AssignedTo,
		CreatedBy:         user.ID,
	}
	if err := h.DB.Create(&task).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

// Update partial-merges a task. assigned_to distinguishes absent
// (untouched) from explicit null (cleared), hence the raw message.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	taskID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := policy.ResolveUser(h.DB, externalID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	var task models.Task
	err = h.DB.Where("id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.Error(w, notFoundTask())
		return
	}
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if _, err := policy.OwnedProject(h.DB, user.ID, task.ProjectID); err != nil {
		httpx.Error(w, err)
		return
	}

	var input struct {
		ProjectSwimLaneID *uuid.UUID      `json:"project_swim_lane_id"`
		Title             *string         `json:"title"`
		Description       *string         `json:"description"`
		AssignedTo        json.RawMessage `json:"assigned_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	if input.ProjectSwimLaneID != nil {
		var lane models.ProjectSwimLane
		err := h.DB.Where("id = ? AND project_id = ?", *input.ProjectSwimLaneID, task.ProjectID).First(&lane).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusBadRequest, "Swim lane not found or does not belong to this project.", nil)
			return
		}
		if err != nil {
			httpx.Error(w, err)
			return
		}
		task.ProjectSwimLaneID = *input.ProjectSwimLaneID
	}

	if len(input.AssignedTo) > 0 {
		if string(input.AssignedTo) == "null" {
			task.AssignedTo = nil
		} else {
			var assignee uuid.UUID
			if err := json.Unmarshal(input.AssignedTo, &assignee); err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "invalid assigned_to", nil)
				return
			}
			if err := h.checkAssignee(assignee); err != nil {
				httpx.Error(w, err)
				return
			}
			task.AssignedTo = &assignee
		}
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			httpx.JSONError(w, http.StatusBadRequest, "Title cannot be empty.", nil)
			return
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = input.Description
	}

	if err := h.DB.Save(&task).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

// ListByProject returns the project's non-deleted tasks, oldest first.
func (h *TaskHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	externalID, _ := identity(r)
	projectID, ok := pathID(w, r, "project_id")
	if !ok {
		return
	}
	if _, _, err := policy.ResolveOwnedProject(h.DB, externalID, projectID); err != nil {
		httpx.Error(w, err)
		return
	}
	var tasks []models.Task
	if err := h.DB.Where("project_id = ?", projectID).Order("created_at").Find(&tasks).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tasks)
}

// checkAssignee requires the assignee to be a live (non-deleted) user.
func (h *TaskHandler) checkAssignee(id uuid.UUID) error {
	var count int64
	if err := h.DB.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.BadRequest("Assigned user not found.")
	}
	return nil
}
