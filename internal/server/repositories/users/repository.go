// Package users declares the Users collection adapter and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/blogapi/internal/server/models"
)

// Repository is the Users collection of the document store. Lookups that
// find nothing return common.ErrNotFound.
type Repository interface {
	// Create inserts the user and fills in the store-assigned fields. A
	// uniqueness violation is reported as *common.ConflictError.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	FindAll(ctx context.Context) ([]*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmailOrUsername returns any one user matching either value,
	// preferring an email match.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)

	// Update applies the patch and returns the record as stored afterwards.
	// patch.Password is never written.
	Update(ctx context.Context, id string, patch *models.UserPatch) (*models.User, error)

	// Delete removes the user and reports how many records went away.
	Delete(ctx context.Context, id string) (int64, error)
}
