package httpapi

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/blogapi/internal/common"
	"github.com/dmitrijs2005/blogapi/internal/server/models"
	"github.com/dmitrijs2005/blogapi/internal/server/services"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func (f *fakeUsers) FindAll(ctx context.Context) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.User{}
	for _, id := range []string{"u1", "u2", "u3"} {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, &common.NotFoundError{Entity: "User", ID: id}
	}
	return u, nil
}

func (f *fakeUsers) Update(ctx context.Context, id string, p *models.UserPatch) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, &common.NotFoundError{Entity: "User", ID: id}
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	return u, nil
}

func (f *fakeUsers) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return &common.NotFoundError{Entity: "User", ID: id}
	}
	delete(f.users, id)
	return nil
}

type fakeComments struct {
	mu    sync.Mutex
	items []*models.Comment
	next  int
}

func (f *fakeComments) Create(ctx context.Context, nc *models.NewComment) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	c := &models.Comment{
		ID:        "c" + strconv.Itoa(f.next),
		PostID:    nc.PostID,
		ParentID:  nc.ParentID,
		Content:   nc.Content,
		Author:    nc.Author,
		Status:    models.CommentPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.items = append(f.items, c)
	return c, nil
}

func (f *fakeComments) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, &common.NotFoundError{Entity: "Comment", ID: id}
}

func (f *fakeComments) ListByPost(ctx context.Context, postID string, filter models.CommentFilter) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range f.items {
		if c.PostID == postID && (filter.Status == nil || *filter.Status == c.Status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComments) ListReplies(ctx context.Context, parentID string) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range f.items {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComments) Update(ctx context.Context, id string, p *models.CommentPatch) (*models.Comment, error) {
	c, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	return c, nil
}

func (f *fakeComments) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.items {
		if c.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &common.NotFoundError{Entity: "Comment", ID: id}
}

// fakeAuth accepts access tokens of the form "tok-<userID>".
type fakeAuth struct {
	loginErr error
	lastIP   string
}

func (f *fakeAuth) Signup(ctx context.Context, nu *models.NewUser) (*models.User, error) {
	if nu.Email == "taken@example.com" {
		return nil, common.NewEmailConflict()
	}
	return &models.User{ID: "u9", Email: nu.Email, Username: nu.Username, PasswordHash: "hash"}, nil
}

func (f *fakeAuth) Login(ctx context.Context, req services.LoginRequest) (*services.TokenPair, error) {
	f.lastIP = req.IP
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.TokenPair{AccessToken: "tok-u1", RefreshToken: "r1"}, nil
}

func (f *fakeAuth) Refresh(ctx context.Context, token string) (*services.TokenPair, error) {
	if token != "r1" {
		return nil, common.ErrInvalidToken
	}
	return &services.TokenPair{AccessToken: "tok-u1", RefreshToken: "r2"}, nil
}

func (f *fakeAuth) SetupMFA(ctx context.Context, userID string) (*services.MFASetup, error) {
	return &services.MFASetup{Secret: "S", ProvisioningURI: "otpauth://totp/blog:" + userID}, nil
}

func (f *fakeAuth) EnableMFA(ctx context.Context, userID, code string) (*models.User, error) {
	if code != "123456" {
		return nil, common.ErrInvalidMFACode
	}
	return &models.User{ID: userID, MFAEnabled: true}, nil
}

func (f *fakeAuth) DisableMFA(ctx context.Context, userID, code string) (*models.User, error) {
	return nil, common.ErrMFANotConfigured
}

func (f *fakeAuth) VerifyAccessToken(token string) (string, error) {
	if token == "expired" {
		return "", common.ErrTokenExpired
	}
	uid, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return "", common.ErrInvalidToken
	}
	return uid, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) PingContext(context.Context) error { return f.err }
