package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/notesauth/internal/authrpc"
	"github.com/dmitrijs2005/notesauth/internal/common"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/dmitrijs2005/notesauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Messages stay generic.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrNoSession),
		errors.Is(err, common.ErrInvalidSession):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already registered")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func toProfile(p *models.Profile) *authrpc.Profile {
	if p == nil {
		return nil
	}
	return &authrpc.Profile{ID: p.ID, Login: p.Login, Name: p.Name, Email: p.Email}
}

func toTokenResponse(r *services.AuthResult) *authrpc.TokenResponse {
	return &authrpc.TokenResponse{
		AccessToken:     r.AccessToken,
		AccessExpiresAt: r.AccessExpiresAt.Unix(),
		Profile:         toProfile(r.Profile),
	}
}

func (s *GRPCServer) Register(ctx context.Context, req *authrpc.RegisterRequest) (*authrpc.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request")

	p, err := s.auth.Register(ctx, services.RegisterRequest{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", p.ID)
	return &authrpc.RegisterResponse{Profile: toProfile(p)}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *authrpc.LoginRequest) (*authrpc.TokenResponse, error) {
	res, err := s.auth.Login(ctx, headerTransport{ctx: ctx}, services.LoginRequest{
		Login:       req.Login,
		Password:    req.Password,
		Fingerprint: req.Fingerprint,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toTokenResponse(res), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *authrpc.RefreshRequest) (*authrpc.TokenResponse, error) {
	sessionID := metadataValue(ctx, common.RefreshSessionHeaderName)

	res, err := s.auth.Refresh(ctx, headerTransport{ctx: ctx}, sessionID, req.Fingerprint)
	if err != nil {
		return nil, toStatus(err)
	}
	return toTokenResponse(res), nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *authrpc.LogoutRequest) (*authrpc.LogoutResponse, error) {
	sessionID := metadataValue(ctx, common.RefreshSessionHeaderName)

	if err := s.auth.Logout(ctx, headerTransport{ctx: ctx}, sessionID); err != nil {
		return nil, toStatus(err)
	}
	return &authrpc.LogoutResponse{}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *authrpc.MeRequest) (*authrpc.MeResponse, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	p, err := s.auth.Me(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &authrpc.MeResponse{Profile: toProfile(p)}, nil
}

var _ authrpc.AuthServiceServer = (*GRPCServer)(nil)
