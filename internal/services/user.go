package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Victor-talka/talka-history/internal/config"
	"github.com/Victor-talka/talka-history/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	UserTypeAdmin = "admin"
	UserTypeUser  = "user"

	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// UserService manages viewer accounts
type UserService struct {
	db  *gorm.DB
	cfg *config.Config
	log *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, cfg *config.Config, log *zap.Logger) *UserService {
	return &UserService{
		db:  db,
		cfg: cfg,
		log: log,
	}
}

// CreateUserInput carries the fields of a new account
type CreateUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

// UpdateUserInput carries optional account changes; nil fields are kept
type UpdateUserInput struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	UserType *string `json:"user_type"`
	Status   *string `json:"status"`
}

// Login returns the active account matching the credentials
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrInvalidInput)
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND status = ?", username, UserStatusActive).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// ListUsers returns every account
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser returns one account
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateUser creates an active account with a hashed password
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrInvalidInput)
	}
	if in.UserType == "" {
		in.UserType = UserTypeUser
	}
	if !validUserType(in.UserType) {
		return nil, fmt.Errorf("unknown user type %q: %w", in.UserType, ErrInvalidInput)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: in.Username,
		Password: hash,
		UserType: in.UserType,
		Status:   UserStatusActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("username already exists: %w", ErrConflict)
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User created", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return &user, nil
}

// UpdateUser applies the non-nil fields of in
func (s *UserService) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return nil, fmt.Errorf("username cannot be empty: %w", ErrInvalidInput)
		}
		user.Username = name
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("password cannot be empty: %w", ErrInvalidInput)
		}
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}
	if in.UserType != nil {
		if !validUserType(*in.UserType) {
			return nil, fmt.Errorf("unknown user type %q: %w", *in.UserType, ErrInvalidInput)
		}
		user.UserType = *in.UserType
	}
	if in.Status != nil {
		if *in.Status != UserStatusActive && *in.Status != UserStatusInactive {
			return nil, fmt.Errorf("unknown status %q: %w", *in.Status, ErrInvalidInput)
		}
		user.Status = *in.Status
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("username = ? AND id <> ?", user.Username, user.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("username already exists: %w", ErrConflict)
		}
		if err := tx.Save(user).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account and its conversations. The configured
// admin account cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Username == s.cfg.Admin.Username {
		return fmt.Errorf("cannot delete default admin user: %w", ErrForbidden)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conversations := tx.Model(&models.Conversation{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("conversation_id IN (?)", conversations).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Conversation{}).Error; err != nil {
			return fmt.Errorf("failed to delete conversations: %w", err)
		}
		if err := tx.Delete(&models.User{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("User deleted", zap.Uint("user_id", id))
	return nil
}

// EnsureAdmin creates the configured admin account when missing.
// created reports whether a new account was made.
func (s *UserService) EnsureAdmin(ctx context.Context) (created bool, err error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", s.cfg.Admin.Username).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check admin user: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.CreateUser(ctx, CreateUserInput{
		Username: s.cfg.Admin.Username,
		Password: s.cfg.Admin.Password,
		UserType: UserTypeAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func validUserType(t string) bool {
	return t == UserTypeAdmin || t == UserTypeUser
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
