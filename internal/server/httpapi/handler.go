package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/blogapi/internal/logging"
	"github.com/dmitrijs2005/blogapi/internal/server/models"
	"github.com/dmitrijs2005/blogapi/internal/server/services"
	"github.com/gorilla/mux"
)

// UserDirectory is the part of services.UserService the API uses.
type UserDirectory interface {
	FindAll(ctx context.Context) ([]*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, patch *models.UserPatch) (*models.User, error)
	Remove(ctx context.Context, id string) error
}

// CommentStore is the part of services.CommentService the API uses.
type CommentStore interface {
	Create(ctx context.Context, nc *models.NewComment) (*models.Comment, error)
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, filter models.CommentFilter) ([]*models.Comment, error)
	ListReplies(ctx context.Context, parentID string) ([]*models.Comment, error)
	Update(ctx context.Context, id string, patch *models.CommentPatch) (*models.Comment, error)
	Remove(ctx context.Context, id string) error
}

// Authenticator is the part of services.AuthService the API uses.
type Authenticator interface {
	Signup(ctx context.Context, nu *models.NewUser) (*models.User, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SetupMFA(ctx context.Context, userID string) (*services.MFASetup, error)
	EnableMFA(ctx context.Context, userID, code string) (*models.User, error)
	DisableMFA(ctx context.Context, userID, code string) (*models.User, error)
	VerifyAccessToken(token string) (string, error)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	users    UserDirectory
	comments CommentStore
	auth     Authenticator
	db       Pinger
	logger   logging.Logger
}

func NewHandler(users UserDirectory, comments CommentStore, auth Authenticator, db Pinger, l logging.Logger) *Handler {
	return &Handler{users: users, comments: comments, auth: auth, db: db, logger: l.With("module", "http")}
}

// Router wires every route behind the request logger and the optional
// bearer-token authentication.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.requestLogger, h.authenticate)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	r.HandleFunc("/auth/signup", h.signup).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", h.refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/mfa/setup", h.requireAuth(h.setupMFA)).Methods(http.MethodPost)
	r.HandleFunc("/auth/mfa/enable", h.requireAuth(h.enableMFA)).Methods(http.MethodPost)
	r.HandleFunc("/auth/mfa/disable", h.requireAuth(h.disableMFA)).Methods(http.MethodPost)

	r.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.requireAuth(h.updateUser)).Methods(http.MethodPatch)
	r.HandleFunc("/users/{id}", h.requireAuth(h.deleteUser)).Methods(http.MethodDelete)

	r.HandleFunc("/comments", h.createComment).Methods(http.MethodPost)
	r.HandleFunc("/comments/{id}", h.getComment).Methods(http.MethodGet)
	r.HandleFunc("/comments/{id}/replies", h.listReplies).Methods(http.MethodGet)
	r.HandleFunc("/comments/{id}", h.requireAuth(h.updateComment)).Methods(http.MethodPatch)
	r.HandleFunc("/comments/{id}", h.requireAuth(h.deleteComment)).Methods(http.MethodDelete)

	r.HandleFunc("/posts/{postID}/comments", h.listPostComments).Methods(http.MethodGet)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
