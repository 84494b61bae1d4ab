package services

import (
	"context"
	"math"
	"time"

	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/policy"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// dashboardListLimit caps recentTasks, upcomingTasks and projectStats.
const dashboardListLimit = 5

type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

// WithClock replaces the time source used for the upcoming-deadline cutoff.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

type DashboardStats struct {
	TotalProjects int64 `json:"totalProjects"`
	TotalTasks    int64 `json:"totalTasks"`
	AssignedTasks int64 `json:"assignedTasks"` // assigned to the caller and not DONE
}

// ProjectStats summarizes completion of one visible project.
type ProjectStats struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	TotalTasks     int64  `json:"totalTasks"`
	CompletedTasks int64  `json:"completedTasks"`
	CompletionRate int    `json:"completionRate"` // percent, 0 for a project without tasks
}

type DashboardResponse struct {
	Stats           DashboardStats   `json:"stats"`
	TasksByStatus   map[string]int64 `json:"tasksByStatus"`
	TasksByPriority map[string]int64 `json:"tasksByPriority"`
	RecentTasks     []models.Task    `json:"recentTasks"`
	UpcomingTasks   []models.Task    `json:"upcomingTasks"`
	ProjectStats    []ProjectStats   `json:"projectStats"`
}

// Get computes the caller's dashboard. Every figure is derived from the same
// visibility rules as the list endpoints and is recomputed on each call.
// Independent queries run concurrently; the first failure fails the read.
func (s *DashboardService) Get(ctx context.Context, caller policy.Caller) (*DashboardResponse, error) {
	now := s.now().UTC()
	resp := &DashboardResponse{}

	g, gctx := errgroup.WithContext(ctx)
	db := func() *gorm.DB { return s.db.WithContext(gctx) }

	g.Go(func() error {
		return db().Model(&models.Project{}).
			Scopes(policy.ProjectScope(caller)).
			Count(&resp.Stats.TotalProjects).Error
	})
	g.Go(func() error {
		return db().Model(&models.Task{}).
			Scopes(policy.TaskScope(caller)).
			Count(&resp.Stats.TotalTasks).Error
	})
	g.Go(func() error {
		return db().Model(&models.Task{}).
			Where("assigned_to_id = ? AND status <> ?", caller.ID, models.TaskStatusDone).
			Count(&resp.Stats.AssignedTasks).Error
	})
	g.Go(func() error {
		counts, err := countTasksBy(db(), caller, "status", models.TaskStatuses)
		resp.TasksByStatus = counts
		return err
	})
	g.Go(func() error {
		counts, err := countTasksBy(db(), caller, "priority", models.TaskPriorities)
		resp.TasksByPriority = counts
		return err
	})
	g.Go(func() error {
		resp.RecentTasks = []models.Task{}
		return db().Model(&models.Task{}).
			Preload("Project").
			Where("tasks.created_by_id = ? OR tasks.assigned_to_id = ?", caller.ID, caller.ID).
			Order("tasks.created_at DESC").
			Limit(dashboardListLimit).
			Find(&resp.RecentTasks).Error
	})
	g.Go(func() error {
		resp.UpcomingTasks = []models.Task{}
		return db().Model(&models.Task{}).
			Preload("Project").
			Where("tasks.assigned_to_id = ? AND tasks.status <> ? AND tasks.due_date >= ?",
				caller.ID, models.TaskStatusDone, now).
			Order("tasks.due_date ASC").
			Limit(dashboardListLimit).
			Find(&resp.UpcomingTasks).Error
	})
	g.Go(func() error {
		stats, err := projectOverview(db(), caller)
		resp.ProjectStats = stats
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

type enumCount struct {
	Label string
	Total int64
}

// countTasksBy groups the caller's visible tasks by column. Every value in
// keys is present in the result, zero when no task has it.
func countTasksBy(db *gorm.DB, caller policy.Caller, column string, keys []string) (map[string]int64, error) {
	var rows []enumCount
	err := db.Model(&models.Task{}).
		Scopes(policy.TaskScope(caller)).
		Select("tasks." + column + " AS label, COUNT(*) AS total").
		Group("tasks." + column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(keys))
	for _, k := range keys {
		counts[k] = 0
	}
	for _, r := range rows {
		counts[r.Label] = r.Total
	}
	return counts, nil
}

func projectOverview(db *gorm.DB, caller policy.Caller) ([]ProjectStats, error) {
	var projects []models.Project
	if err := db.Model(&models.Project{}).
		Scopes(policy.ProjectScope(caller)).
		Order("projects.updated_at DESC").
		Limit(dashboardListLimit).
		Find(&projects).Error; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	tallies, err := tallyTasks(db, ids)
	if err != nil {
		return nil, err
	}

	stats := make([]ProjectStats, 0, len(projects))
	for _, p := range projects {
		t := tallies[p.ID]
		stats = append(stats, ProjectStats{
			ID:             p.ID,
			Name:           p.Name,
			Status:         p.Status,
			TotalTasks:     t.Total,
			CompletedTasks: t.Completed,
			CompletionRate: completionRate(t.Completed, t.Total),
		})
	}
	return stats, nil
}

func completionRate(completed, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}
