// Package testutil builds throwaway stores and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/tasktracker/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// CreateUser inserts a user whose email is derived from name.
func CreateUser(t testing.TB, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	u := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Role:     role,
		AuthType: models.AuthTypeLocal,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateProject inserts a project owned by owner with the given members.
func CreateProject(t testing.TB, db *gorm.DB, name string, owner *models.User, members ...*models.User) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, OwnerID: owner.ID}
	require.NoError(t, db.Create(p).Error)
	for _, m := range members {
		require.NoError(t, db.Create(&models.ProjectMember{ProjectID: p.ID, UserID: m.ID}).Error)
	}
	require.NoError(t, db.Preload("Members").First(p, "id = ?", p.ID).Error)
	return p
}

// TaskOption adjusts a task before it is inserted.
type TaskOption func(*models.Task)

func AssignedTo(u *models.User) TaskOption {
	return func(t *models.Task) { t.AssignedToID = &u.ID }
}

func WithStatus(status string) TaskOption {
	return func(t *models.Task) { t.Status = status }
}

func WithPriority(priority string) TaskOption {
	return func(t *models.Task) { t.Priority = priority }
}

func DueAt(due time.Time) TaskOption {
	return func(t *models.Task) { t.DueDate = &due }
}

func CreatedAt(at time.Time) TaskOption {
	return func(t *models.Task) { t.CreatedAt = at }
}

// CreateTask inserts a task in p created by creator.
func CreateTask(t testing.TB, db *gorm.DB, title string, p *models.Project, creator *models.User, opts ...TaskOption) *models.Task {
	t.Helper()
	task := &models.Task{Title: title, ProjectID: p.ID, CreatedByID: creator.ID}
	for _, opt := range opts {
		opt(task)
	}
	require.NoError(t, db.Create(task).Error)
	return task
}
