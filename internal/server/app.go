// Package server wires the notesauth components together and runs the gRPC
// and HTTP servers until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/notesauth/internal/cryptox"
	"github.com/dmitrijs2005/notesauth/internal/logging"
	"github.com/dmitrijs2005/notesauth/internal/server/auth"
	"github.com/dmitrijs2005/notesauth/internal/server/config"
	"github.com/dmitrijs2005/notesauth/internal/server/httpapi"
	"github.com/dmitrijs2005/notesauth/internal/server/metrics"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/refreshsessions"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notesauth/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/notesauth/internal/server/grpc"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	tokens      *auth.TokenIssuer
	metrics     *metrics.Collector
	authService *services.AuthService
}

// NewApp opens the stores selected by c, runs migrations and builds the
// services. The caller must Close the App.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger, metrics: metrics.New()}

	rm, err := app.initRepositoryManager(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	if err := rm.RunMigrations(ctx, app.db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	hasher := cryptox.NewArgon2Hasher(cryptox.DefaultArgon2Params)
	verifier, err := services.NewCredentialVerifier(app.db, rm, hasher)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("credential verifier: %w", err)
	}

	engine := services.NewSessionEngine(app.db, rm, services.WithRotationObserver(app.metrics))
	app.tokens = auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	app.authService = services.NewAuthService(app.db, rm, verifier, engine, app.tokens, hasher, logger,
		services.WithAuthObserver(app.metrics))

	return app, nil
}

// initRepositoryManager picks the storage backends for the configured
// session store.
func (app *App) initRepositoryManager(ctx context.Context) (repomanager.RepositoryManager, error) {
	if app.config.SessionStore == config.SessionStoreMemory {
		app.logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if app.config.SessionStore != config.SessionStoreRedis {
		return repomanager.NewPostgresRepositoryManager(), nil
	}

	app.redis = redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	if err := app.redis.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	store := refreshsessions.NewRedisRepository(app.redis)
	return repomanager.NewPostgresRepositoryManager(repomanager.WithSessionStore(store)), nil
}

// Close releases database and Redis connections.
func (app *App) Close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.tokens)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(httpapi.Deps{
		Auth:           app.authService,
		Tokens:         app.tokens,
		Metrics:        app.metrics.Handler(),
		AllowedOrigins: app.config.AllowedOrigins,
		Logger:         app.logger,
	})
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "session_store", app.config.SessionStore)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrHTTP != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
}
