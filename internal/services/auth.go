package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"supportdesk/internal/domain"
	"supportdesk/internal/metrics"
	"supportdesk/internal/util"
	apperrors "supportdesk/pkg/errors"
)

// AuthService authenticates staff accounts and registered submitters.
type AuthService struct {
	db *gorm.DB
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	log.Printf("[AUTH] Login attempt for user: %s", username)

	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		metrics.RecordAuthAttempt(false)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[AUTH] Login failed: user '%s' not found", username)
			return "", nil, apperrors.New(apperrors.ErrCodeUnauthorized, "incorrect username or password")
		}
		log.Printf("[AUTH] Login failed: database error for user '%s': %v", username, err)
		return "", nil, err
	}

	if !util.CheckPasswordHash(password, user.HashedPassword) {
		log.Printf("[AUTH] Login failed: invalid password for user '%s'", username)
		metrics.RecordAuthAttempt(false)
		return "", nil, apperrors.New(apperrors.ErrCodeUnauthorized, "incorrect username or password")
	}

	if !user.IsActive {
		log.Printf("[AUTH] Login failed: user '%s' is inactive", username)
		metrics.RecordAuthAttempt(false)
		return "", nil, apperrors.New(apperrors.ErrCodeUnauthorized, "user account is inactive")
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	s.db.WithContext(ctx).Save(&user)

	token, err := util.GenerateToken(&user)
	if err != nil {
		log.Printf("[AUTH] Login failed: token generation error for user '%s': %v", username, err)
		metrics.RecordAuthAttempt(false)
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.RecordAuthAttempt(true)
	log.Printf("[AUTH] Login successful for user: %s", username)
	return token, &user, nil
}

// UserFromToken resolves a bearer token to an active user.
func (s *AuthService) UserFromToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := util.ValidateToken(tokenString)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "invalid or expired token")
	}

	user, err := util.GetUserFromToken(s.db.WithContext(ctx), claims)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "user not found")
	}

	if !user.IsActive {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "user account is inactive")
	}

	return user, nil
}
