package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/laneboard/laneboard/internal/httpx"
	"github.com/laneboard/laneboard/internal/models"
	"github.com/laneboard/laneboard/internal/validation"
)

// UserHandler serves the identity-provider sync endpoints. They are
// unauthenticated: the provider's frontend pushes account data here
// right after sign-up/sign-in.
type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler { return &UserHandler{DB: db} }

// Upsert creates or refreshes the local row for an external identity.
// An existing row gets its email and names overwritten; a new row is
// only created when the email is not already used by a live user.
func (h *UserHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ExternalID string  `json:"external_id"`
		Email      string  `json:"email"`
		FirstName  *string `json:"first_name"`
		LastName   *string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("external_id", input.ExternalID, v)
	validation.Required("email", input.Email, v)
	validation.MaxLen("external_id", input.ExternalID, 255, v)
	validation.MaxLen("email", input.Email, 255, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var existing models.User
	err := h.DB.Where("external_id = ?", input.ExternalID).First(&existing).Error
	if err == nil {
		existing.Email = input.Email
		existing.FirstName = input.FirstName
		existing.LastName = input.LastName
		if err := h.DB.Save(&existing).Error; err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, existing)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.Error(w, err)
		return
	}

	// Soft-deleted rows are excluded here, so their email is reusable.
	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	if count > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "user with this email already exists", nil)
		return
	}

	user := models.User{
		ExternalID: input.ExternalID,
		Email:      input.Email,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// GetByExternalID returns the local row for an external identity.
func (h *UserHandler) GetByExternalID(w http.ResponseWriter, r *http.Request) {
	externalID := mux.Vars(r)["external_id"]
	var user models.User
	err := h.DB.Where("external_id = ?", externalID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
