// Package services contains the blog's business logic: the user directory,
// the comment store and the authentication flows built on top of them.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/blogapi/internal/common"
	"github.com/dmitrijs2005/blogapi/internal/dbx"
	"github.com/dmitrijs2005/blogapi/internal/logging"
	"github.com/dmitrijs2005/blogapi/internal/server/auth"
	"github.com/dmitrijs2005/blogapi/internal/server/models"
	"github.com/dmitrijs2005/blogapi/internal/server/repositories/repomanager"
)

const userEntity = "User"

// UserService is the user directory. Email and username are unique across
// all users; the check here reports the common case with a precise message
// and the store's unique indexes catch whatever races past it.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, log: log.With("module", "users")}
}

// Create registers a user. An email clash is reported before a username
// clash when both collide.
func (s *UserService) Create(ctx context.Context, nu *models.NewUser) (*models.User, error) {
	hash, err := auth.HashPassword(nu.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        nu.Email,
		Username:     nu.Username,
		PasswordHash: hash,
		DisplayName:  nu.DisplayName,
		Bio:          nu.Bio,
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		existing, err := repo.FindByEmailOrUsername(ctx, nu.Email, nu.Username)
		switch {
		case err == nil:
			if existing.Email == nu.Email {
				return common.NewEmailConflict()
			}
			return common.NewUsernameConflict()
		case !errors.Is(err, common.ErrNotFound):
			return fmt.Errorf("error checking uniqueness: %w", err)
		}

		created, err = repo.Create(ctx, user)
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user created", "user_id", created.ID)
	return created, nil
}

// FindAll returns every user, unpaginated.
func (s *UserService) FindAll(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).FindAll(ctx)
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, userEntity, id)
	}
	return u, nil
}

// FindByEmail returns (nil, nil) when no user has the email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return absentAsNil(s.repomanager.Users(s.db).FindByEmail(ctx, email))
}

// FindByUsername returns (nil, nil) when no user has the username.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return absentAsNil(s.repomanager.Users(s.db).FindByUsername(ctx, username))
}

// Update applies patch to the user. A password in the patch is dropped.
func (s *UserService) Update(ctx context.Context, id string, patch *models.UserPatch) (*models.User, error) {
	p := models.UserPatch{}
	if patch != nil {
		p = *patch
	}
	p.Password = nil

	u, err := s.repomanager.Users(s.db).Update(ctx, id, &p)
	if err != nil {
		return nil, notFound(err, userEntity, id)
	}
	return u, nil
}

func (s *UserService) Remove(ctx context.Context, id string) error {
	n, err := s.repomanager.Users(s.db).Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return &common.NotFoundError{Entity: userEntity, ID: id}
	}
	s.log.Info(ctx, "user removed", "user_id", id)
	return nil
}

// UpdateMfaSecret stores a pending secret; MFA stays in its current state.
func (s *UserService) UpdateMfaSecret(ctx context.Context, id, secret string) (*models.User, error) {
	return s.Update(ctx, id, &models.UserPatch{MFASecret: &secret})
}

func (s *UserService) EnableMfa(ctx context.Context, id string) (*models.User, error) {
	enabled := true
	return s.Update(ctx, id, &models.UserPatch{MFAEnabled: &enabled})
}

// DisableMfa turns MFA off and forgets the secret.
func (s *UserService) DisableMfa(ctx context.Context, id string) (*models.User, error) {
	enabled := false
	return s.Update(ctx, id, &models.UserPatch{MFAEnabled: &enabled, ClearMFASecret: true})
}

// notFound upgrades the store's bare ErrNotFound to a NotFoundError naming
// the entity; other errors pass through.
func notFound(err error, entity, id string) error {
	if errors.Is(err, common.ErrNotFound) {
		return &common.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func absentAsNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
