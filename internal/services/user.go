package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangang/tasktracker/internal/models"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// List returns every user as a public summary, ordered by name. It backs the
// member and assignee pickers, so any authenticated caller may read it.
func (s *UserService) List(ctx context.Context) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "name", "email").
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ensureUsersExist reports a validation error on field naming the first id
// that has no user row.
func ensureUsersExist(db *gorm.DB, field string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var found []string
	if err := db.Model(&models.User{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	known := make(map[string]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fieldError(field, fmt.Sprintf("user %q does not exist", id))
		}
	}
	return nil
}
