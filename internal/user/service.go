package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coachslot/internal/apperr"
	"coachslot/internal/auth"
	"coachslot/internal/db"
	"coachslot/internal/logger"

	"github.com/google/uuid"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*User, error)
	FindName(ctx context.Context, id string) (string, error)
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	role := req.Role
	if role == "" {
		role = auth.RoleTrainee
	}
	if !role.Valid() {
		return nil, apperr.Validation("role must be trainer or trainee")
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, db.Translate("check email", err, apperr.ErrStoreUnavailable)
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, name, email, strings.TrimSpace(req.Phone), passwordHash, role)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, err
		}
		return nil, db.Translate("create user", err, apperr.ErrStoreUnavailable)
	}

	logger.Info("user signed up", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, db.Translate("find user", err, apperr.ErrStoreUnavailable)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	accessToken, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	// The account must still exist.
	user, err := s.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{AccessToken: accessToken, User: *user}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("user %q: %w", id, apperr.ErrNotFound)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate("find user", err, apperr.ErrStoreUnavailable)
	}
	return user, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, phone := user.Name, user.Phone
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
	}
	if req.Phone != nil {
		phone = strings.TrimSpace(*req.Phone)
	}

	updated, err := s.repo.Update(ctx, id, name, phone)
	if err != nil {
		return nil, db.Translate("update user", err, apperr.ErrStoreUnavailable)
	}
	return updated, nil
}

// FindName returns the display name stored for id.
func (s *service) FindName(ctx context.Context, id string) (string, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

func (s *service) issue(user *User) (*AuthResponse, error) {
	accessToken, refreshToken, err := auth.GenerateTokens(
		user.ID,
		user.Email,
		user.Role,
		s.jwtSecret,
		s.jwtSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	}, nil
}
