// Package httpapi exposes services.AuthService as a JSON API with the refresh
// session id carried in an HTTP-only cookie.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notesauth/internal/logging"
	"github.com/dmitrijs2005/notesauth/internal/server/auth"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/dmitrijs2005/notesauth/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 5 * time.Second

// AuthService is the part of services.AuthService the handlers call.
type AuthService interface {
	Login(ctx context.Context, t services.SessionTransport, req services.LoginRequest) (*services.AuthResult, error)
	Register(ctx context.Context, req services.RegisterRequest) (*models.Profile, error)
	Refresh(ctx context.Context, t services.SessionTransport, sessionID, fingerprint string) (*services.AuthResult, error)
	Logout(ctx context.Context, t services.SessionTransport, sessionID string) error
	Me(ctx context.Context, userID string) (*models.Profile, error)
}

// TokenVerifier validates bearer access tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type Deps struct {
	Auth           AuthService
	Tokens         TokenVerifier
	Metrics        http.Handler
	AllowedOrigins []string
	Logger         logging.Logger
}

// NewRouter mounts the auth, users and metrics routes.
func NewRouter(d Deps) chi.Router {
	h := &Handler{auth: d.Auth, logger: d.Logger.With("module", "http_api"), now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           60 * 15,
	}))

	r.Route("/api/auth", func(rr chi.Router) {
		rr.Post("/login", h.Login)
		rr.Post("/refresh", h.Refresh)
		rr.Post("/register", h.Register)
		rr.With(bearerAuth(d.Tokens)).Post("/logout", h.Logout)
	})
	r.With(bearerAuth(d.Tokens)).Get("/api/users/me", h.Me)

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	return r
}

type Server struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(address string, handler http.Handler, l logging.Logger) *Server {
	return &Server{address: address, handler: handler, logger: l.With("module", "http_server")}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
