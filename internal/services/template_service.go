package services

import (
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/laneboard/laneboard/internal/models"
)

// TemplateService owns the two composite flows around project
// templates: snapshotting a live project into an immutable template
// document, and expanding a template or live project into a freshly
// created project. Each flow runs inside a single transaction.
type TemplateService struct{ DB *gorm.DB }

func NewTemplateService(db *gorm.DB) *TemplateService { return &TemplateService{DB: db} }

// SnapshotInput selects which parts of the source project are captured.
type SnapshotInput struct {
	Name            string
	Description     *string
	IncludeStatuses bool
	IncludeRoles    bool
	IncludeUsers    bool
	IncludeTasks    bool
	KeepAssignees   bool
}

// CloneInput selects which parts of a live source project are copied
// into the new project.
type CloneInput struct {
	Name            string
	IncludeStatuses bool
	IncludeRoles    bool
	IncludeUsers    bool
	IncludeTasks    bool
	KeepAssignees   bool
}

func orderAsc() clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: "order"}}
}

// SnapshotProject captures the selected parts of source into a new
// template owned by owner. Tasks are captured only when statuses are
// too (their position is recorded as the lane's order value), and task
// assignees survive only when both assignee retention and user capture
// were requested.
func (s *TemplateService) SnapshotProject(owner models.User, source models.Project, in SnapshotInput) (*models.ProjectTemplate, error) {
	tpl := models.ProjectTemplate{
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     owner.ID,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if in.IncludeStatuses {
			var lanes []models.ProjectSwimLane
			if err := tx.Where("project_id = ?", source.ID).Order(orderAsc()).Find(&lanes).Error; err != nil {
				return err
			}
			statuses := make(models.TemplateStatusList, 0, len(lanes))
			laneOrder := make(map[uuid.UUID]int, len(lanes))
			for _, lane := range lanes {
				statuses = append(statuses, models.TemplateStatus{Name: lane.Name, Order: lane.Order})
				laneOrder[lane.ID] = lane.Order
			}
			tpl.Statuses = statuses

			if in.IncludeTasks {
				var tasks []models.Task
				if err := tx.Where("project_id = ?", source.ID).Find(&tasks).Error; err != nil {
					return err
				}
				keep := in.KeepAssignees && in.IncludeUsers
				captured := make(models.TemplateTaskList, 0, len(tasks))
				for _, t := range tasks {
					entry := models.TemplateTask{
						Title:       t.Title,
						Description: t.Description,
						StatusOrder: laneOrder[t.ProjectSwimLaneID],
					}
					if keep && t.AssignedTo != nil {
						id := t.AssignedTo.String()
						entry.AssignedTo = &id
					}
					captured = append(captured, entry)
				}
				tpl.Tasks = captured
			}
		}

		if in.IncludeRoles && len(source.Roles) > 0 {
			tpl.Roles = append(models.RoleList{}, source.Roles...)
		}

		if in.IncludeUsers {
			var userRoles []models.ProjectUserRole
			if err := tx.Where("project_id = ?", source.ID).Find(&userRoles).Error; err != nil {
				return err
			}
			users := make(models.TemplateUserList, 0, len(userRoles))
			for _, ur := range userRoles {
				users = append(users, models.TemplateUser{UserID: ur.UserID.String(), Role: ur.Role})
			}
			tpl.Users = users
		}

		return tx.Create(&tpl).Error
	})
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// CloneProject expands a live source project into a new project owned
// by caller, honoring the include flags. Tasks are copied only when
// both tasks and statuses were requested, and every copied task lands
// in the new project's lowest-order lane.
func (s *TemplateService) CloneProject(caller models.User, source models.Project, in CloneInput) (*models.Project, error) {
	project := models.Project{Name: in.Name, OwnerID: caller.ID}
	if in.IncludeRoles {
		project.Roles = append(models.RoleList{}, source.Roles...)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		var firstLane uuid.UUID
		if in.IncludeStatuses {
			var lanes []models.ProjectSwimLane
			if err := tx.Where("project_id = ?", source.ID).Order(orderAsc()).Find(&lanes).Error; err != nil {
				return err
			}
			for i, lane := range lanes {
				copied := models.ProjectSwimLane{ProjectID: project.ID, Name: lane.Name, Order: lane.Order}
				if err := tx.Create(&copied).Error; err != nil {
					return err
				}
				if i == 0 {
					firstLane = copied.ID
				}
			}
		} else {
			var err error
			if firstLane, err = createDefaultLanes(tx, project.ID); err != nil {
				return err
			}
		}

		validAssignees := map[uuid.UUID]bool{}
		if in.IncludeUsers {
			var userRoles []models.ProjectUserRole
			if err := tx.Where("project_id = ?", source.ID).Find(&userRoles).Error; err != nil {
				return err
			}
			for _, ur := range userRoles {
				var count int64
				if err := tx.Model(&models.User{}).Where("id = ?", ur.UserID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					continue // stale reference, skip silently
				}
				copied := models.ProjectUserRole{ProjectID: project.ID, UserID: ur.UserID, Role: ur.Role}
				if err := tx.Create(&copied).Error; err != nil {
					return err
				}
				validAssignees[ur.UserID] = true
			}
		}

		if in.IncludeTasks && in.IncludeStatuses && firstLane != uuid.Nil {
			var tasks []models.Task
			if err := tx.Where("project_id = ?", source.ID).Find(&tasks).Error; err != nil {
				return err
			}
			for _, t := range tasks {
				copied := models.Task{
					ProjectID:         project.ID,
					ProjectSwimLaneID: firstLane,
					Title:             t.Title,
					Description:       t.Description,
					CreatedBy:         caller.ID,
				}
				// Retained as-is when requested together with user copy;
				// live cloning does not re-validate against the new roles.
				if in.KeepAssignees && in.IncludeUsers && t.AssignedTo != nil {
					copied.AssignedTo = t.AssignedTo
				}
				if err := tx.Create(&copied).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ExpandTemplate creates a new project from a saved template document.
// Statuses fall back to the default lanes when the template has none;
// user and assignee references that no longer parse or resolve are
// skipped without error.
func (s *TemplateService) ExpandTemplate(caller models.User, tpl models.ProjectTemplate, name string, keepAssignees bool) (*models.Project, error) {
	project := models.Project{Name: name, OwnerID: caller.ID}
	if len(tpl.Roles) > 0 {
		project.Roles = append(models.RoleList{}, tpl.Roles...)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		var firstLane uuid.UUID
		if len(tpl.Statuses) > 0 {
			statuses := append(models.TemplateStatusList{}, tpl.Statuses...)
			sort.SliceStable(statuses, func(i, j int) bool { return statuses[i].Order < statuses[j].Order })
			for i, st := range statuses {
				lane := models.ProjectSwimLane{ProjectID: project.ID, Name: st.Name, Order: st.Order}
				if err := tx.Create(&lane).Error; err != nil {
					return err
				}
				if i == 0 {
					firstLane = lane.ID
				}
			}
		} else {
			var err error
			if firstLane, err = createDefaultLanes(tx, project.ID); err != nil {
				return err
			}
		}

		validAssignees := map[uuid.UUID]bool{}
		for _, tu := range tpl.Users {
			userID, err := uuid.Parse(tu.UserID)
			if err != nil {
				continue // malformed reference, skip silently
			}
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				continue
			}
			role := models.ProjectUserRole{ProjectID: project.ID, UserID: userID, Role: tu.Role}
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
			validAssignees[userID] = true
		}

		if len(tpl.Tasks) > 0 && firstLane != uuid.Nil {
			for _, tt := range tpl.Tasks {
				task := models.Task{
					ProjectID:         project.ID,
					ProjectSwimLaneID: firstLane,
					Title:             tt.Title,
					Description:       tt.Description,
					CreatedBy:         caller.ID,
				}
				// Only retained when the assignee was just added to the
				// new project as a user role.
				if keepAssignees && tt.AssignedTo != nil {
					if assigneeID, err := uuid.Parse(*tt.AssignedTo); err == nil && validAssignees[assigneeID] {
						task.AssignedTo = &assigneeID
					}
				}
				if err := tx.Create(&task).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// createDefaultLanes writes the standard Backlog/To Do/Done lanes and
// returns the id of the lowest-order one.
func createDefaultLanes(tx *gorm.DB, projectID uuid.UUID) (uuid.UUID, error) {
	lanes := models.DefaultSwimLanes(projectID)
	var first uuid.UUID
	for i := range lanes {
		if err := tx.Create(&lanes[i]).Error; err != nil {
			return uuid.Nil, err
		}
		if lanes[i].Order == 0 {
			first = lanes[i].ID
		}
	}
	return first, nil
}
