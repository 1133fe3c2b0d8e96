// Package services holds the business logic between controllers and
// repositories.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/app/models"
	"github.com/km-arc/fastie/app/repositories"
	"github.com/km-arc/fastie/app/schemas"
	"github.com/km-arc/fastie/framework/database"
	"github.com/km-arc/fastie/framework/security"
)

var (
	// ErrEmailTaken is returned when another live user owns the email.
	ErrEmailTaken = errors.New("services: email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password.
	ErrInvalidCredentials = errors.New("services: invalid credentials")
	// ErrInactive is returned when a disabled account tries to sign in.
	ErrInactive = errors.New("services: account is inactive")
)

// UserService is the user use-case surface the controllers depend on.
type UserService interface {
	List(ctx context.Context, p repositories.Page) ([]schemas.UserResponse, error)
	Get(ctx context.Context, id int64) (schemas.UserResponse, error)
	Create(ctx context.Context, in schemas.UserCreate) (schemas.UserResponse, error)
	Update(ctx context.Context, id int64, in schemas.UserUpdate) (schemas.UserResponse, error)
	Delete(ctx context.Context, id int64) error
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// Users implements UserService.
type Users struct {
	repo   repositories.UserRepository
	tx     database.Transactor
	hasher *security.Hasher
	log    *zap.Logger
}

// NewUserService wires the user service.
func NewUserService(repo repositories.UserRepository, tx database.Transactor, hasher *security.Hasher, log *zap.Logger) *Users {
	return &Users{repo: repo, tx: tx, hasher: hasher, log: log.Named("users")}
}

func (s *Users) List(ctx context.Context, p repositories.Page) ([]schemas.UserResponse, error) {
	users, err := s.repo.GetAll(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]schemas.UserResponse, len(users))
	for i := range users {
		out[i] = schemas.NewUserResponse(&users[i])
	}
	return out, nil
}

func (s *Users) Get(ctx context.Context, id int64) (schemas.UserResponse, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return schemas.UserResponse{}, err
	}
	return schemas.NewUserResponse(u), nil
}

// Create registers a user. The email check and the insert share one
// transaction.
func (s *Users) Create(ctx context.Context, in schemas.UserCreate) (schemas.UserResponse, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return schemas.UserResponse{}, err
	}
	u := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		IsActive: 1,
		Avatar:   in.Avatar,
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensureEmailFree(ctx, in.Email, 0); err != nil {
			return err
		}
		return s.repo.Create(ctx, u)
	})
	if errors.Is(err, repositories.ErrDuplicate) {
		err = ErrEmailTaken
	}
	if err != nil {
		return schemas.UserResponse{}, err
	}

	s.log.Info("User created", zap.Int64("id", u.ID))
	return schemas.NewUserResponse(u), nil
}

func (s *Users) Update(ctx context.Context, id int64, in schemas.UserUpdate) (schemas.UserResponse, error) {
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return schemas.UserResponse{}, err
		}
		in.Password = &hash
	}

	var u *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if in.Email != nil {
			if err := s.ensureEmailFree(ctx, *in.Email, id); err != nil {
				return err
			}
		}
		var err error
		u, err = s.repo.Update(ctx, id, in)
		return err
	})
	if errors.Is(err, repositories.ErrDuplicate) {
		err = ErrEmailTaken
	}
	if err != nil {
		return schemas.UserResponse{}, err
	}
	return schemas.NewUserResponse(u), nil
}

func (s *Users) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("User deleted", zap.Int64("id", id))
	return nil
}

// Authenticate returns the user whose email and password match. A password
// hashed with an outdated cost is rehashed on the way.
func (s *Users) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.Active() {
		return nil, ErrInactive
	}

	if s.hasher.NeedsRehash(u.Password) {
		if hash, err := s.hasher.Hash(password); err == nil {
			if _, err := s.repo.Update(ctx, u.ID, schemas.UserUpdate{Password: &hash}); err != nil {
				s.log.Warn("Password rehash failed", zap.Int64("id", u.ID), zap.Error(err))
			}
		}
	}
	return u, nil
}

// ensureEmailFree fails unless email is unused or belongs to user self.
func (s *Users) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("services: check email: %w", err)
	case existing.ID != self:
		return ErrEmailTaken
	default:
		return nil
	}
}
