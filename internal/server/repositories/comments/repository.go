// Package comments declares the Comments collection adapter and its
// PostgreSQL implementation.
package comments

import (
	"context"

	"github.com/dmitrijs2005/blogapi/internal/server/models"
)

// Repository is the Comments collection. Listings come back in insertion
// order. Lookups that find nothing return common.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, filter models.CommentFilter) ([]*models.Comment, error)
	ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error)
	Update(ctx context.Context, id string, patch *models.CommentPatch) (*models.Comment, error)
	Delete(ctx context.Context, id string) (int64, error)
}
