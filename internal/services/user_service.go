package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/auth"
	"locatify/wanderlust/internal/db"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/repository"
	"locatify/wanderlust/internal/utils"
)

// IUserService defines the interface for user accounts and credentials.
type IUserService interface {
	Register(ctx context.Context, input models.SignupInput) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	FindByID(ctx context.Context, id utils.SixID) (*models.User, error)
}

type userService struct {
	users  repository.UserRepository
	policy *auth.PasswordPolicy
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, policy *auth.PasswordPolicy) IUserService {
	return &userService{users: users, policy: policy}
}

// Register creates a user with a bcrypt-hashed password.
func (s *userService) Register(ctx context.Context, input models.SignupInput) (*models.User, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	if err := s.policy.Check(input.Password); err != nil {
		return nil, ErrWeakPassword
	}

	if exists, err := s.users.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrEmailExists
	}
	if exists, err := s.users.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrUsernameExists
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
		Favorites:    []utils.SixID{},
	}
	if err := s.users.Insert(ctx, user); err != nil {
		// Lost a race with a concurrent signup.
		switch db.DuplicateKeyField(err) {
		case "email":
			return nil, ErrEmailExists
		case "username":
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// Authenticate checks a username and password. Unknown users and wrong passwords
// both return ErrInvalidCredentials.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) FindByID(ctx context.Context, id utils.SixID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}
