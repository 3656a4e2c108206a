package validation

import (
	"github.com/dmitrijs2005/blogapi/internal/server/models"
)

type CreateComment struct {
	Post          string  `json:"post" validate:"required,uuid"`
	Content       string  `json:"content" validate:"required,min=2,max=1000"`
	ParentComment *string `json:"parentComment,omitempty" validate:"omitempty,uuid"`
	GuestName     *string `json:"guestName,omitempty" validate:"omitempty,min=2,max=50"`
	GuestEmail    *string `json:"guestEmail,omitempty" validate:"omitempty,email"`
}

// ToModel resolves authorship. An authenticated caller (callerID != "") is
// the author and may not send guest fields; an anonymous caller must send
// both guest fields.
func (p *CreateComment) ToModel(callerID string) (*models.NewComment, error) {
	nc := &models.NewComment{PostID: p.Post, ParentID: p.ParentComment, Content: p.Content}

	switch {
	case callerID != "":
		if p.GuestName != nil || p.GuestEmail != nil {
			return nil, fieldError("guestName", "must not be set by an authenticated user")
		}
		nc.Author = models.UserAuthor{UserID: callerID}
	case p.GuestName == nil && p.GuestEmail == nil:
		return nil, &Error{Fields: []FieldError{
			{Field: "guestEmail", Message: "is required"},
			{Field: "guestName", Message: "is required"},
		}}
	case p.GuestName == nil:
		return nil, fieldError("guestName", "is required")
	case p.GuestEmail == nil:
		return nil, fieldError("guestEmail", "is required")
	default:
		nc.Author = models.GuestAuthor{Name: *p.GuestName, Email: *p.GuestEmail}
	}

	return nc, nil
}

type UpdateComment struct {
	Content *string `json:"content,omitempty" validate:"omitempty,min=2,max=1000"`
	Status  *string `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected"`
}

func (p *UpdateComment) ToModel() *models.CommentPatch {
	patch := &models.CommentPatch{Content: p.Content}
	if p.Status != nil {
		st := models.CommentStatus(*p.Status)
		patch.Status = &st
	}
	return patch
}

type CreateUser struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=30"`
	Password    string `json:"password" validate:"required,min=8,bcryptmax"`
	DisplayName string `json:"displayName,omitempty" validate:"max=100"`
	Bio         string `json:"bio,omitempty" validate:"max=500"`
}

func (p *CreateUser) ToModel() *models.NewUser {
	return &models.NewUser{
		Email:       p.Email,
		Username:    p.Username,
		Password:    p.Password,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
	}
}

// UpdateUser accepts a password so clients sharing one form for both flows
// are not rejected; the user directory drops it.
type UpdateUser struct {
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Username    *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=100"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=8,bcryptmax"`
}

func (p *UpdateUser) ToModel() *models.UserPatch {
	return &models.UserPatch{
		Email:       p.Email,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		Password:    p.Password,
	}
}

type Login struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfaCode,omitempty" validate:"omitempty,len=6,numeric"`
}

type Refresh struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type MFACode struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}
