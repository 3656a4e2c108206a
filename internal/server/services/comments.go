package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/blogapi/internal/common"
	"github.com/dmitrijs2005/blogapi/internal/logging"
	"github.com/dmitrijs2005/blogapi/internal/server/models"
	"github.com/dmitrijs2005/blogapi/internal/server/repositories/repomanager"
)

const commentEntity = "Comment"

// CommentService is the comment store. Post and parent references are kept
// as given; posts live elsewhere and parent chains are not walked.
type CommentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewCommentService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *CommentService {
	return &CommentService{db: db, repomanager: m, log: log.With("module", "comments")}
}

// Create stores a new comment in pending state.
func (s *CommentService) Create(ctx context.Context, nc *models.NewComment) (*models.Comment, error) {
	if nc.Author == nil {
		return nil, fmt.Errorf("%w: comment author is required", common.ErrValidation)
	}

	c, err := s.repomanager.Comments(s.db).Create(ctx, &models.Comment{
		PostID:   nc.PostID,
		ParentID: nc.ParentID,
		Content:  nc.Content,
		Author:   nc.Author,
		Status:   models.CommentPending,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating comment: %w", err)
	}

	s.log.Info(ctx, "comment created", "comment_id", c.ID, "post_id", c.PostID)
	return c, nil
}

func (s *CommentService) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	c, err := s.repomanager.Comments(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, commentEntity, id)
	}
	return c, nil
}

// ListByPost returns the post's comments in insertion order, optionally
// restricted to one status.
func (s *CommentService) ListByPost(ctx context.Context, postID string, filter models.CommentFilter) ([]*models.Comment, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, *filter.Status)
	}
	return s.repomanager.Comments(s.db).ListByPost(ctx, postID, filter)
}

// ListReplies returns the direct replies of parentID in insertion order.
func (s *CommentService) ListReplies(ctx context.Context, parentID string) ([]*models.Comment, error) {
	return s.repomanager.Comments(s.db).ListByParent(ctx, parentID)
}

// Update changes content and/or status. Every status is reachable from
// every other.
func (s *CommentService) Update(ctx context.Context, id string, patch *models.CommentPatch) (*models.Comment, error) {
	if patch != nil && patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, *patch.Status)
	}

	c, err := s.repomanager.Comments(s.db).Update(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, commentEntity, id)
	}
	return c, nil
}

// Remove deletes the comment. Its replies keep pointing at the removed id.
func (s *CommentService) Remove(ctx context.Context, id string) error {
	n, err := s.repomanager.Comments(s.db).Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return &common.NotFoundError{Entity: commentEntity, ID: id}
	}
	s.log.Info(ctx, "comment removed", "comment_id", id)
	return nil
}
