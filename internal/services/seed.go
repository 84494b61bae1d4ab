package services

import (
	"context"
	"errors"

	"github.com/huangang/tasktracker/internal/config"
	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/utils"
	"github.com/huangang/tasktracker/pkg/logger"
	"gorm.io/gorm"
)

// SeedOutcome reports what EnsureAdmin did.
type SeedOutcome string

const (
	Seeded        SeedOutcome = "seeded"
	AlreadySeeded SeedOutcome = "already seeded"
)

type SeedService struct {
	db  *gorm.DB
	cfg *config.SeedConfig
}

func NewSeedService(db *gorm.DB, cfg *config.SeedConfig) *SeedService {
	return &SeedService{db: db, cfg: cfg}
}

// EnsureAdmin creates the configured administrator unless a user with that
// email already exists. Running it again is a no-op.
func (s *SeedService) EnsureAdmin(ctx context.Context) (SeedOutcome, error) {
	db := s.db.WithContext(ctx)
	email := normalizeEmail(s.cfg.AdminEmail)

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		logger.Info().Str("email", email).Msg("admin user already exists, skipping seeding")
		return AlreadySeeded, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	hashed, err := utils.HashPassword(s.cfg.AdminPassword)
	if err != nil {
		return "", err
	}
	admin := models.User{
		Name:     s.cfg.AdminName,
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
		AuthType: models.AuthTypeLocal,
	}
	if err := db.Create(&admin).Error; err != nil {
		return "", err
	}

	logger.Info().Str("email", admin.Email).Msg("created default admin user")
	return Seeded, nil
}
