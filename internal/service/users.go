package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatbot-studio/internal/auth"
	"chatbot-studio/internal/models"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Username string
	Email    string
	Name     string
	Password string
}

type UserService struct {
	db        *gorm.DB
	passwords auth.Passwords
}

func NewUserService(db *gorm.DB, passwords auth.Passwords) *UserService {
	return &UserService{db: db, passwords: passwords}
}

// Register creates an active user. A taken username or email is ErrConflict
// and leaves nothing behind.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" {
		return nil, fieldError("username", "non-empty string")
	}
	if in.Email == "" {
		return nil, fieldError("email", "non-empty string")
	}
	if in.Password == "" {
		return nil, fieldError("password", "non-empty string")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:       in.Username,
		Email:          in.Email,
		Name:           in.Name,
		HashedPassword: hash,
		IsActive:       true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", in.Username, in.Email).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrConflict
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

// Authenticate returns the active user with the given credentials, or
// auth.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ? AND is_active = ?", username, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", username, err)
	}
	if !s.passwords.Verify(user.HashedPassword, password) {
		return nil, auth.ErrInvalidCredentials
	}
	return &user, nil
}
