package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"
	"aptracker/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for any unknown email or wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	BootstrapAdmin(ctx context.Context, username, email, password string) error
}

// TokenConfig controls issued access tokens.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

type userService struct {
	repos  repository.Set
	tokens TokenConfig
	log    zerolog.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(repos repository.Set, tokens TokenConfig, log zerolog.Logger) UserService {
	if tokens.TTL <= 0 {
		tokens.TTL = 24 * time.Hour
	}
	return &userService{repos: repos, tokens: tokens, log: log}
}

// Helper: check if role is allowed
func validateRole(role string) bool {
	switch role {
	case lifecycle.RoleAdmin, lifecycle.RoleFinanceManager, lifecycle.RoleAPStaff:
		return true
	}
	return false
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if !validateRole(req.Role) {
		return nil, apperr.Validation("role", "must be %s, %s or %s", lifecycle.RoleAdmin, lifecycle.RoleFinanceManager, lifecycle.RoleAPStaff)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperr.Validation("email", "invalid email format")
	}
	if len(req.Password) < 6 {
		return nil, apperr.Validation("password", "must be at least 6 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     req.Role,
	}

	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		// Double check username/email uniqueness via repo directly
		if _, err := s.repos.Users.GetByUsername(txCtx, req.Username); err == nil {
			return apperr.Validation("username", "username already exists")
		}
		if _, err := s.repos.Users.GetByEmail(txCtx, req.Email); err == nil {
			return apperr.Validation("email", "email already exists")
		}
		if err := s.repos.Users.Create(txCtx, user); err != nil {
			return duplicate("email", err)
		}
		return writeAudit(txCtx, s.repos.Audit, actor, model.ActionCreateUser, user.ID.String(), user.Username, map[string]string{
			"email": user.Email,
			"role":  user.Role,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repos.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokens.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"name": user.Username,
		"exp":  expiresAt.Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.tokens.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenResponse{Token: tokenString, ExpiresAt: expiresAt, User: *mapToResponse(user)}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repos.Users.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

// BootstrapAdmin creates the first ADMIN account when the email is unknown.
// An empty email disables it.
func (s *userService) BootstrapAdmin(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	if _, err := s.repos.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email))); err == nil {
		return nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if username == "" {
		username = "admin"
	}

	_, err := s.CreateUser(ctx, Actor{Name: "bootstrap"}, CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     lifecycle.RoleAdmin,
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("email", email).Msg("admin account bootstrapped")
	return nil
}
