package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleList is the project's closed set of role names, stored as a JSON
// document. When non-empty it bounds the role strings accepted for
// ProjectUserRole rows.
type RoleList []string

func (r RoleList) Contains(role string) bool {
	for _, v := range r {
		if v == role {
			return true
		}
	}
	return false
}

type Project struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"project_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner     User           `gorm:"foreignKey:OwnerID" json:"-"`
	Roles     RoleList       `gorm:"serializer:json" json:"roles"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProjectSwimLane is a named, ordered status column within a project.
// Order is a display sequence and is not required to be unique.
type ProjectSwimLane struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"swim_lane_id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   Project        `gorm:"foreignKey:ProjectID" json:"-"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Order     int            `gorm:"not null" json:"order"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (s *ProjectSwimLane) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// DefaultSwimLanes are created for every project that is not expanded
// from a source carrying its own statuses.
func DefaultSwimLanes(projectID uuid.UUID) []ProjectSwimLane {
	return []ProjectSwimLane{
		{ProjectID: projectID, Name: "Backlog", Order: 0},
		{ProjectID: projectID, Name: "To Do", Order: 1},
		{ProjectID: projectID, Name: "Done", Order: 2},
	}
}

// ProjectUserRole links a user to a project with a role string. It is
// an intra-project assignment for display/reference, not an access
// grant: ownership remains the sole mutation gate.
type ProjectUserRole struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   Project        `gorm:"foreignKey:ProjectID" json:"-"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Role      string         `gorm:"size:255;not null" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (r *ProjectUserRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
