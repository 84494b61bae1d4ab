package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/tasktracker/internal/config"
	"github.com/huangang/tasktracker/internal/metrics"
	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/utils"
	"github.com/huangang/tasktracker/pkg/logger"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	users     *UserService
	directory DirectoryAuthenticator
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, directory DirectoryAuthenticator) *AuthService {
	return &AuthService{
		db:        db,
		users:     NewUserService(db),
		directory: directory,
		jwtConfig: jwtCfg,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest carries an email for local accounts and a directory login
// name when AuthType is "ldap".
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	AuthType string `json:"authType" validate:"omitempty,oneof=local ldap"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type AuthResult struct {
	Token    string       `json:"token"`
	ExpireAt time.Time    `json:"expireAt"`
	User     *models.User `json:"user"`
}

// Register creates a MEMBER account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	email := req.Email
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashed,
		Role:     models.RoleMember,
		AuthType: models.AuthTypeLocal,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issue(&user)
}

// Login authenticates with the local password store or the LDAP directory.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.AuthType == "" {
		req.AuthType = models.AuthTypeLocal
	}

	var user *models.User
	var err error
	switch req.AuthType {
	case models.AuthTypeLocal:
		user, err = s.localAuth(ctx, req.Email, req.Password)
	case models.AuthTypeLDAP:
		user, err = s.ldapAuth(ctx, req.Email, req.Password)
	}
	metrics.RecordLogin(req.AuthType, err == nil)
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, s.jwtConfig.ExpireHour)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:    token,
		ExpireAt: time.Now().Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour),
		User:     user,
	}, nil
}

func (s *AuthService) localAuth(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND auth_type = ?", normalizeEmail(email), models.AuthTypeLocal).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthService) ldapAuth(ctx context.Context, username, password string) (*models.User, error) {
	if s.directory == nil || !s.directory.Enabled() {
		return nil, ErrLDAPDisabled
	}

	entry, err := s.directory.Authenticate(username, password)
	if err != nil {
		logger.Warn().Err(err).Str("username", username).Msg("LDAP authentication failed")
		return nil, ErrInvalidCredentials
	}

	email := normalizeEmail(entry.Email)
	if email == "" {
		email = fmt.Sprintf("%s@ldap.local", strings.ToLower(entry.Username))
	}

	db := s.db.WithContext(ctx)
	var user models.User
	err = db.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Name:     entry.Name,
			Email:    email,
			Role:     models.RoleMember,
			AuthType: models.AuthTypeLDAP,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		logger.Info().Str("email", email).Msg("created user from LDAP directory")
		return &user, nil
	case err != nil:
		return nil, err
	}

	// A local account with the same email is not taken over by the directory.
	if user.AuthType != models.AuthTypeLDAP {
		return nil, ErrInvalidCredentials
	}
	if entry.Name != "" && entry.Name != user.Name {
		if err := db.Model(&user).Update("name", entry.Name).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.directory != nil && s.directory.Enabled()
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.AuthType != models.AuthTypeLocal {
		return ErrNotLocalAccount
	}
	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return ErrIncorrectPassword
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("password", hashed).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
