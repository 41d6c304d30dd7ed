package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fc-integration/inventory/internal/store"
	"github.com/fc-integration/inventory/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// NewUser is an account to register.
type NewUser struct {
	Name      string
	Email     string
	Password  string
	Role      types.Role
	TwoFactor bool
}

// Register hashes the password and stores a new account.
func (s *UserService) Register(ctx context.Context, in NewUser) (types.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return types.User{}, fmt.Errorf("%w: name, email and password are required", ErrInvalid)
	}
	if in.Role == "" {
		in.Role = types.RoleUser
	}
	if in.Role != types.RoleUser && in.Role != types.RoleAdmin {
		return types.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalid, in.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		ID:               uuid.NewString(),
		Name:             in.Name,
		Email:            in.Email,
		Role:             in.Role,
		PasswordHash:     string(hashed),
		TwoFactorEnabled: in.TwoFactor,
	})
}

// Authenticate checks an email/password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}
