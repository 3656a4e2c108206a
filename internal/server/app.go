// Package server wires configuration, storage, services and transports
// together and runs the blog backend until it receives a stop signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/blogapi/internal/logging"
	"github.com/dmitrijs2005/blogapi/internal/server/config"
	"github.com/dmitrijs2005/blogapi/internal/server/httpapi"
	"github.com/dmitrijs2005/blogapi/internal/server/ratelimit"
	"github.com/dmitrijs2005/blogapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/blogapi/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/blogapi/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	redis          redis.UniversalClient
	userService    *services.UserService
	commentService *services.CommentService
	authService    *services.AuthService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	var throttle services.LoginThrottle
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		throttle = newLoginThrottle(app.redis, c)
	} else {
		logger.Warn(ctx, "redis address not set, login throttling disabled")
	}

	app.userService = services.NewUserService(db, rm, logger)
	app.commentService = services.NewCommentService(db, rm, logger)
	app.authService = services.NewAuthService(db, rm, app.userService, throttle, c, logger)

	return app, nil
}

func newLoginThrottle(client redis.UniversalClient, c *config.Config) *ratelimit.LoginLimiter {
	return ratelimit.NewLoginLimiter(client, ratelimit.Config{
		MaxLoginAttempts:      c.MaxLoginAttempts,
		LoginCooldownDuration: c.LoginCooldownDuration,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := httpapi.NewHandler(app.userService, app.commentService, app.authService, app.db, app.logger)
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.logger, h.Router())

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a signal arrives or one of the servers fails, then
// releases the database and Redis connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close failed", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
