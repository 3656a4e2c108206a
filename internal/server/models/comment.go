package models

import (
	"fmt"
	"time"
)

// CommentStatus is the moderation state of a comment. Any state may be set
// from any other; none is terminal.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)


func (s CommentStatus) Valid() bool {
	switch s {
	case CommentPending, CommentApproved, CommentRejected:
		return true
	}
	return false
}

func ParseCommentStatus(s string) (CommentStatus, error) {
	st := CommentStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown comment status %q", s)
	}
	return st, nil
}

// Author identifies who wrote a comment: either a registered user
// (UserAuthor) or a guest (GuestAuthor). The unexported method seals the set.
type Author interface {
	isAuthor()
}

type UserAuthor struct {
	UserID string
}

type GuestAuthor struct {
	Name  string
	Email string
}

func (UserAuthor) isAuthor()  {}
func (GuestAuthor) isAuthor() {}

// Comment belongs to a post and optionally replies to another comment.
// PostID and ParentID are references into collections this service does not
// own; neither is checked for existence, and the parent is not required to
// sit under the same post.
type Comment struct {
	ID        string
	PostID    string
	ParentID  *string
	Content   string
	Author    Author
	Status    CommentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthoredBy reports whether the comment was written by the registered user.
func (c *Comment) AuthoredBy(userID string) bool {
	a, ok := c.Author.(UserAuthor)
	return ok && userID != "" && a.UserID == userID
}

type NewComment struct {
	PostID   string
	ParentID *string
	Content  string
	Author   Author
}

type CommentPatch struct {
	Content *string
	Status  *CommentStatus
}

// CommentFilter narrows a listing; a nil Status matches every status.
type CommentFilter struct {
	Status *CommentStatus
}
