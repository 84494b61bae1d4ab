package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/policy"
	"github.com/huangang/tasktracker/pkg/nullable"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectListRequest struct {
	Status string `form:"status" json:"status" validate:"omitempty,oneof=ACTIVE ON_HOLD COMPLETED"`
}

// ProjectListItem is a visible project with its task count.
type ProjectListItem struct {
	Project   *models.Project
	TaskCount int64
}

type CreateProjectRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description *string  `json:"description"`
	Status      string   `json:"status" validate:"omitempty,oneof=ACTIVE ON_HOLD COMPLETED"`
	MemberIDs   []string `json:"memberIds" validate:"omitempty,dive,required"`
}

// UpdateProjectRequest distinguishes omitted fields (untouched) from null
// ones (cleared, where the column allows it).
type UpdateProjectRequest struct {
	Name        nullable.Field[string]   `json:"name"`
	Description nullable.Field[string]   `json:"description"`
	Status      nullable.Field[string]   `json:"status"`
	MemberIDs   nullable.Field[[]string] `json:"memberIds"`
}

func (r *UpdateProjectRequest) validate() error {
	verr := &ValidationError{}
	if r.Name.Set {
		if r.Name.Null || strings.TrimSpace(r.Name.Value) == "" {
			verr.Add("name", "cannot be empty")
		} else if len(r.Name.Value) > 200 {
			verr.Add("name", "must be at most 200 characters")
		}
	}
	if r.Status.Set && (r.Status.Null || !models.IsValidProjectStatus(r.Status.Value)) {
		verr.Add("status", "must be one of: ACTIVE, ON_HOLD, COMPLETED")
	}
	if r.MemberIDs.Set {
		if r.MemberIDs.Null {
			verr.Add("memberIds", "must be an array of user ids")
		}
		for _, id := range r.MemberIDs.Value {
			if id == "" {
				verr.Add("memberIds", "cannot contain empty ids")
				break
			}
		}
	}
	return verr.Err()
}

// List returns the projects visible to caller, most recently updated first.
func (s *ProjectService) List(ctx context.Context, caller policy.Caller, req *ProjectListRequest) ([]ProjectListItem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Scopes(policy.ProjectScope(caller))
	if req.Status != "" {
		query = query.Where("projects.status = ?", req.Status)
	}

	var projects []models.Project
	if err := query.
		Preload("Owner").
		Preload("Members.User").
		Order("projects.updated_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	counts, err := s.taskCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]ProjectListItem, 0, len(projects))
	for i := range projects {
		items = append(items, ProjectListItem{
			Project:   &projects[i],
			TaskCount: counts[projects[i].ID].Total,
		})
	}
	return items, nil
}

// Get returns a project with owner and members. Missing projects are reported
// before invisible ones.
func (s *ProjectService) Get(ctx context.Context, caller policy.Caller, id string) (*models.Project, error) {
	project, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !policy.ProjectVisible(caller, project) {
		return nil, denied(policy.ActionViewProject)
	}
	return project, nil
}

// Create stores a project owned by caller together with its initial members.
func (s *ProjectService) Create(ctx context.Context, caller policy.Caller, req *CreateProjectRequest) (*models.Project, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fieldError("name", "cannot be empty")
	}

	db := s.db.WithContext(ctx)
	memberIDs := dedupe(req.MemberIDs)
	if err := ensureUsersExist(db, "memberIds", memberIDs); err != nil {
		return nil, err
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		OwnerID:     caller.ID,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return replaceMembers(tx, project.ID, memberIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.load(db, project.ID)
}

// Update applies the present fields of req. A present memberIds replaces the
// whole member set in the same transaction as the field update.
func (s *ProjectService) Update(ctx context.Context, caller policy.Caller, id string, req *UpdateProjectRequest) (*models.Project, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	project, err := s.load(db, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditProject(caller, project) {
		return nil, denied(policy.ActionEditProject)
	}

	var memberIDs []string
	if req.MemberIDs.Set {
		memberIDs = dedupe(req.MemberIDs.Value)
		if err := ensureUsersExist(db, "memberIds", memberIDs); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name.Set {
		updates["name"] = req.Name.Value
	}
	if req.Description.Set {
		updates["description"] = req.Description.Ptr()
	}
	if req.Status.Set {
		updates["status"] = req.Status.Value
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if !req.MemberIDs.Set {
			return nil
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return replaceMembers(tx, id, memberIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.load(db, id)
}

// Delete removes a project together with its tasks and memberships.
func (s *ProjectService) Delete(ctx context.Context, caller policy.Caller, id string) error {
	db := s.db.WithContext(ctx)
	var project models.Project
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if !policy.CanDeleteProject(caller, &project) {
		return denied(policy.ActionDeleteProject)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
}

func (s *ProjectService) load(db *gorm.DB, id string) (*models.Project, error) {
	var project models.Project
	err := db.Preload("Owner").
		Preload("Members.User").
		First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

type taskTally struct {
	ProjectID string
	Total     int64
	Completed int64
}

// taskCounts tallies all and DONE tasks per project.
func (s *ProjectService) taskCounts(ctx context.Context, projectIDs []string) (map[string]taskTally, error) {
	return tallyTasks(s.db.WithContext(ctx), projectIDs)
}

func tallyTasks(db *gorm.DB, projectIDs []string) (map[string]taskTally, error) {
	out := make(map[string]taskTally, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	var rows []taskTally
	err := db.Model(&models.Task{}).
		Select("project_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed", models.TaskStatusDone).
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ProjectID] = r
	}
	return out, nil
}

func replaceMembers(tx *gorm.DB, projectID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	members := make([]models.ProjectMember, 0, len(userIDs))
	for _, uid := range userIDs {
		members = append(members, models.ProjectMember{ProjectID: projectID, UserID: uid})
	}
	return tx.Create(&members).Error
}
