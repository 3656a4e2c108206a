// Package refreshtokens stores the opaque refresh tokens issued at login.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/blogapi/internal/server/models"
)

// Repository persists refresh tokens.
type Repository interface {
	// Create stores token for userID, expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrNotFound when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete returns common.ErrNotFound when the token was already consumed.
	Delete(ctx context.Context, token string) error

	// DeleteForUser revokes every token of the user.
	DeleteForUser(ctx context.Context, userID string) error
}
