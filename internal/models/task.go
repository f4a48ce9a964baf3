package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"task_id"`
	ProjectID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Project           Project         `gorm:"foreignKey:ProjectID" json:"-"`
	ProjectSwimLaneID uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_swim_lane_id"`
	ProjectSwimLane   ProjectSwimLane `gorm:"foreignKey:ProjectSwimLaneID" json:"-"`
	Title             string          `gorm:"size:255;not null" json:"title"`
	Description       *string         `json:"description"`
	AssignedTo        *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_to"`
	Assignee          *User           `gorm:"foreignKey:AssignedTo" json:"-"`
	CreatedBy         uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
	Creator           User            `gorm:"foreignKey:CreatedBy" json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"deleted_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
