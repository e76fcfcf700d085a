package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tickethub/internal/apperr"
	"tickethub/internal/auth"
	"tickethub/internal/logger"
	"tickethub/internal/models"
	"tickethub/internal/utils"
)

type UserDBLayer interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByCPF(ctx context.Context, cpf string) (*models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
}

type UserService struct {
	DB        UserDBLayer
	JWTSecret string
	TokenTTL  time.Duration
	Logger    *logger.Logger
}

func NewUserService(db UserDBLayer, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *UserService {
	return &UserService{DB: db, JWTSecret: jwtSecret, TokenTTL: tokenTTL, Logger: log}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// Register creates a CLIENT user. The CPF stored here is the registered
// identity every ticket purchase is checked against.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if username == "" || email == "" {
		return nil, apperr.New(apperr.InvalidInput, "", "username and email are required")
	}
	if len(req.Password) < 6 {
		return nil, apperr.New(apperr.InvalidInput, "", "password must be at least 6 characters")
	}
	if err := utils.ValidateCPF(req.CPF); err != nil {
		return nil, err
	}

	if _, err := s.DB.GetUserByUsername(ctx, username); err == nil {
		return nil, apperr.New(apperr.Conflict, username, "username '%s' is already in use", username)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.DB.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.Conflict, email, "email '%s' is already in use", email)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		CPF:       utils.NormalizeCPF(req.CPF),
		Password:  string(hashed),
		Role:      models.RoleClient,
		CreatedAt: time.Now(),
	}

	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.Logger.Info("USER", fmt.Sprintf("Registered user %s", user.ID))
	return &user, nil
}

// Login checks the credentials and issues the bearer token the ticket
// endpoints require.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.DB.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, apperr.New(apperr.Unauthorized, "", "invalid credentials")
		}
		return "", nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperr.New(apperr.Unauthorized, "", "invalid credentials")
	}

	token, err := auth.IssueToken(user, s.JWTSecret, s.TokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return token, user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.DB.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, id, "user not found")
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}
	return user, nil
}

func (s *UserService) GetUserByCPF(ctx context.Context, cpf string) (*models.User, error) {
	if err := utils.ValidateCPF(cpf); err != nil {
		return nil, err
	}

	user, err := s.DB.GetUserByCPF(ctx, utils.NormalizeCPF(cpf))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, cpf, "user not found")
		}
		return nil, fmt.Errorf("failed to fetch user by CPF: %w", err)
	}
	return user, nil
}

type UpdateProfileRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateProfile edits username/email/password. Every change requires the
// current password; a caller may only edit their own record.
func (s *UserService) UpdateProfile(ctx context.Context, principal auth.Principal, id string, req UpdateProfileRequest) (*models.User, error) {
	if principal.UserID != id && !principal.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, id, "you can only update your own profile")
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CurrentPassword == "" {
		return nil, apperr.New(apperr.InvalidInput, "", "current password must be provided")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return nil, apperr.New(apperr.Unauthorized, "", "current password does not match")
	}

	if req.Username != "" {
		username := strings.TrimSpace(req.Username)
		if username == "" {
			return nil, apperr.New(apperr.InvalidInput, "", "username cannot be blank")
		}
		if existing, err := s.DB.GetUserByUsername(ctx, username); err == nil && existing.ID != id {
			return nil, apperr.New(apperr.Conflict, username, "username '%s' is already in use", username)
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		user.Username = username
	}

	if req.Email != "" {
		email := strings.TrimSpace(req.Email)
		if email == "" {
			return nil, apperr.New(apperr.InvalidInput, "", "email cannot be blank")
		}
		if existing, err := s.DB.GetUserByEmail(ctx, email); err == nil && existing.ID != id {
			return nil, apperr.New(apperr.Conflict, email, "email '%s' is already in use", email)
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = email
	}

	if req.NewPassword != "" {
		if len(req.NewPassword) < 6 {
			return nil, apperr.New(apperr.InvalidInput, "", "password must be at least 6 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	if err := s.DB.UpdateUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return user, nil
}
