package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/blogapi/internal/common"
	"github.com/dmitrijs2005/blogapi/internal/dbx"
	"github.com/dmitrijs2005/blogapi/internal/server/models"
)

const commentColumns = `id, post_id, parent_comment_id, content, author_user_id, guest_name, guest_email, status, created_at, updated_at`

// PostgresRepository implements comment storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		c                     models.Comment
		parent, authorID      sql.NullString
		guestName, guestEmail sql.NullString
		status                string
	)
	err := row.Scan(&c.ID, &c.PostID, &parent, &c.Content, &authorID, &guestName, &guestEmail,
		&status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if parent.Valid {
		p := parent.String
		c.ParentID = &p
	}

	switch {
	case authorID.Valid:
		c.Author = models.UserAuthor{UserID: authorID.String}
	case guestName.Valid:
		c.Author = models.GuestAuthor{Name: guestName.String, Email: guestEmail.String}
	default:
		return nil, fmt.Errorf("comment %s has no author", c.ID)
	}

	st, err := models.ParseCommentStatus(status)
	if err != nil {
		return nil, err
	}
	c.Status = st

	return &c, nil
}

// authorColumns flattens the author variant into its three nullable columns.
func authorColumns(a models.Author) (userID, guestName, guestEmail *string, err error) {
	switch v := a.(type) {
	case models.UserAuthor:
		return &v.UserID, nil, nil, nil
	case models.GuestAuthor:
		return nil, &v.Name, &v.Email, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported author %T", a)
	}
}

// Create inserts c and fills in its id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	userID, guestName, guestEmail, err := authorColumns(c.Author)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO comments (post_id, parent_comment_id, content, author_user_id, guest_name, guest_email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		c.PostID, c.ParentID, c.Content, userID, guestName, guestEmail, string(c.Status),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select comments: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByPost returns the comments of a post in insertion order, optionally
// narrowed to one status.
func (r *PostgresRepository) ListByPost(ctx context.Context, postID string, filter models.CommentFilter) ([]*models.Comment, error) {
	if filter.Status != nil {
		query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 AND status = $2 ORDER BY seq`
		return r.list(ctx, query, postID, string(*filter.Status))
	}
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY seq`
	return r.list(ctx, query, postID)
}

func (r *PostgresRepository) ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE parent_comment_id = $1 ORDER BY seq`
	return r.list(ctx, query, parentID)
}

// Update changes content and/or status; an empty patch just reloads the row.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch *models.CommentPatch) (*models.Comment, error) {
	if patch == nil || (patch.Content == nil && patch.Status == nil) {
		return r.FindByID(ctx, id)
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if patch.Content != nil {
		args = append(args, *patch.Content)
		sets = append(sets, fmt.Sprintf("content = $%d", len(args)))
	}
	if patch.Status != nil {
		args = append(args, string(*patch.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE comments SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), commentColumns)

	c, err := scanComment(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
