package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TemplateStatus is a snapshotted swim lane (name, order) pair.
type TemplateStatus struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// TemplateUser is a snapshotted (user, role) assignment. UserID stays
// a plain string: documents may outlive the user they point to, and
// expansion parses and silently skips anything that no longer resolves.
type TemplateUser struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// TemplateTask is a snapshotted task. StatusOrder records which lane
// (by order value) the task sat in at snapshot time. AssignedTo is a
// string for the same reason as TemplateUser.UserID.
type TemplateTask struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	StatusOrder int     `json:"status_order"`
	AssignedTo  *string `json:"assigned_to"`
}

type TemplateStatusList []TemplateStatus

type TemplateUserList []TemplateUser

type TemplateTaskList []TemplateTask

// ProjectTemplate is an immutable snapshot of a project's lanes,
// roles, user assignments and tasks, decoupled from the live project
// the moment it is written. Nil document fields mean "not captured".
type ProjectTemplate struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"template_id"`
	Name        string             `gorm:"size:255;not null" json:"name"`
	Description *string            `json:"description"`
	OwnerID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       User               `gorm:"foreignKey:OwnerID" json:"-"`
	Statuses    TemplateStatusList `gorm:"serializer:json" json:"statuses"`
	Roles       RoleList           `gorm:"serializer:json" json:"roles"`
	Users       TemplateUserList   `gorm:"serializer:json" json:"users"`
	Tasks       TemplateTaskList   `gorm:"serializer:json" json:"tasks"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"deleted_at"`
}

func (t *ProjectTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
