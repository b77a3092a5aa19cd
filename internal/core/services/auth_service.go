package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/config"
	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/pkg/jwt"
	"github.com/libraryhub/circulation/internal/pkg/password"
	"github.com/libraryhub/circulation/internal/pkg/validator"

	"gorm.io/gorm"
)

// AuthService handles staff authentication
type AuthService struct {
	staff repositories.StaffRepository
	cfg   config.JWTConfig
}

// NewAuthService creates a new auth service
func NewAuthService(staff repositories.StaffRepository, cfg config.JWTConfig) *AuthService {
	return &AuthService{staff: staff, cfg: cfg}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateStaffInput represents staff account creation input
type CreateStaffInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *domain.StaffUser `json:"user"`
	AccessToken string            `json:"access_token"`
	ExpiresIn   int               `json:"expires_in"` // seconds
}

// Login authenticates a staff user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find user by username
	user, err := s.staff.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.StoreError("load staff user", err)
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	// 3. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Issue access token
	token, err := jwt.GenerateAccessToken(user.ID, user.Username, user.Role, s.cfg.Secret, s.cfg.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Staff logged in: %s", user.Username)

	return &AuthResponse{
		User:        user.ToDomain(),
		AccessToken: token,
		ExpiresIn:   s.cfg.AccessTokenMins * 60,
	}, nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.Secret)
}

// GetStaffByID gets a staff user by ID
func (s *AuthService) GetStaffByID(ctx context.Context, id string) (*domain.StaffUser, error) {
	user, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("load staff user", err, domain.ErrStaffNotFound)
	}
	return user.ToDomain(), nil
}

// CreateStaff creates a librarian or admin account
func (s *AuthService) CreateStaff(ctx context.Context, input *CreateStaffInput) (*domain.StaffUser, error) {
	username := strings.TrimSpace(input.Username)
	role := strings.ToUpper(strings.TrimSpace(input.Role))
	if role == "" {
		role = string(domain.RoleLibrarian)
	}

	v := validator.New()
	v.Check(validator.NotBlank(username), "username", "must be provided")
	v.Check(validator.MaxChars(username, 50), "username", "must not be more than 50 characters long")
	v.Check(password.ValidatePassword(input.Password), "password", "must be at least 8 characters long")
	v.Check(validator.In(role, string(domain.RoleLibrarian), string(domain.RoleAdmin)), "role", "must be LIBRARIAN or ADMIN")
	if !v.Valid() {
		return nil, domain.NewValidationError(v.Errors)
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.StaffUser{
		Username: username,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	if err := s.staff.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.InvalidInput("username", "is already taken")
		}
		return nil, domain.StoreError("create staff user", err)
	}

	log.Printf("✅ Staff user created: %s (%s)", user.Username, user.Role)
	return user.ToDomain(), nil
}
