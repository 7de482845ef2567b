// Package grpc exposes services.AuthService over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/notesauth/internal/authrpc"
	"github.com/dmitrijs2005/notesauth/internal/logging"
	"github.com/dmitrijs2005/notesauth/internal/server/auth"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/dmitrijs2005/notesauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// AuthService is the part of services.AuthService the handlers call.
type AuthService interface {
	Login(ctx context.Context, t services.SessionTransport, req services.LoginRequest) (*services.AuthResult, error)
	Register(ctx context.Context, req services.RegisterRequest) (*models.Profile, error)
	Refresh(ctx context.Context, t services.SessionTransport, sessionID, fingerprint string) (*services.AuthResult, error)
	Logout(ctx context.Context, t services.SessionTransport, sessionID string) error
	Me(ctx context.Context, userID string) (*models.Profile, error)
}

// TokenVerifier validates access tokens for protected methods.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type GRPCServer struct {
	address string
	auth    AuthService
	tokens  TokenVerifier
	logger  logging.Logger
	health  *health.Server
}

func NewGRPCServer(a string, l logging.Logger, as AuthService, tv TokenVerifier) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
		tokens:  tv,
		health:  health.NewServer(),
	}
}

// newServer builds the grpc.Server with the auth service, the interceptor
// chain and the standard health service.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	authrpc.RegisterAuthServiceServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(authrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
