package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexusmart/api/internal/models"
	"github.com/nexusmart/api/internal/repository"
	"github.com/nexusmart/api/internal/utils"
)

// AuthService handles storefront account registration and login.
type AuthService struct {
	userRepo *repository.UserRepository
}

// NewAuthService constructs an AuthService.
func NewAuthService(userRepo *repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register creates a new account and returns it with a signed token.
func (s *AuthService) Register(email, password, name string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         name,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, "", err
	}

	log.Info().Str("email", email).Int("user_id", user.ID).Msg("Account registered")
	return user, token, nil
}

// Login verifies credentials and returns the account with a signed token.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", utils.ErrBadCredentials
		}
		return nil, "", err
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Login attempt on inactive account")
		return nil, "", utils.ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", utils.ErrBadCredentials
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, "", err
	}

	log.Info().Str("email", email).Msg("Login successful")
	return user, token, nil
}
