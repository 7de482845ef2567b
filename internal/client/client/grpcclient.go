package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/notesauth/internal/authrpc"
	"github.com/dmitrijs2005/notesauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const fingerprintBytes = 16

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      authrpc.AuthServiceClient
	health      healthpb.HealthClient

	mu          sync.Mutex
	accessToken string
	sessionID   string
	fingerprint string
}

func withMetadata(ctx context.Context, key, value string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(key, value)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) credentials() (accessToken, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.sessionID
}

// withCredentials attaches the current access token and refresh session id.
func (s *GRPCClient) withCredentials(ctx context.Context) context.Context {
	accessToken, sessionID := s.credentials()
	if accessToken != "" {
		ctx = withMetadata(ctx, common.AccessTokenHeaderName, accessToken)
	}
	if sessionID != "" {
		ctx = withMetadata(ctx, common.RefreshSessionHeaderName, sessionID)
	}
	return ctx
}

// captureSession applies the refresh session instruction from a response
// header. A zero max age tells the client to forget the id.
func (s *GRPCClient) captureSession(header metadata.MD) {
	ids := header.Get(common.RefreshSessionHeaderName)
	if len(ids) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maxAge := header.Get(common.RefreshSessionMaxAgeHeaderName)
	if ids[0] == "" || (len(maxAge) > 0 && maxAge[0] == "0") {
		s.sessionID = ""
		s.accessToken = ""
		return
	}
	s.sessionID = ids[0]
}

func (s *GRPCClient) setAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	err := invoker(s.withCredentials(ctx), method, req, reply, cc, opts...)
	if err == nil || method == authrpc.RefreshFullMethod {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	if _, sessionID := s.credentials(); sessionID == "" {
		return err
	}

	if rerr := s.Refresh(ctx); rerr != nil {
		return err
	}

	return invoker(s.withCredentials(ctx), method, req, reply, cc, opts...)
}

// NewNotesAuthClient connects lazily to endpointURL. The client fingerprint
// is random per process. Extra dial options are appended to the defaults.
func NewNotesAuthClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	fp, err := common.MakeRandHexString(fingerprintBytes)
	if err != nil {
		return nil, err
	}

	c := &GRPCClient{endpointURL: endpointURL, fingerprint: fp}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = authrpc.NewAuthServiceClient(conn)
	s.health = healthpb.NewHealthClient(conn)
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	}
	return err
}

func (s *GRPCClient) Register(ctx context.Context, login string, password []byte, name, email string) (*authrpc.Profile, error) {
	resp, err := s.client.Register(ctx, &authrpc.RegisterRequest{
		Login:    login,
		Password: string(password),
		Name:     name,
		Email:    email,
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Profile, nil
}

func (s *GRPCClient) Login(ctx context.Context, login string, password []byte) (*authrpc.Profile, error) {
	var header metadata.MD

	resp, err := s.client.Login(ctx, &authrpc.LoginRequest{
		Login:       login,
		Password:    string(password),
		Fingerprint: s.fingerprint,
	}, grpc.Header(&header))
	if err != nil {
		return nil, s.mapError(err)
	}

	s.setAccessToken(resp.AccessToken)
	s.captureSession(header)
	return resp.Profile, nil
}

// Refresh exchanges the held refresh session for a new access token and a
// successor session.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	if _, sessionID := s.credentials(); sessionID == "" {
		return ErrNotLoggedIn
	}

	var header metadata.MD
	resp, err := s.client.Refresh(ctx, &authrpc.RefreshRequest{Fingerprint: s.fingerprint}, grpc.Header(&header))
	s.captureSession(header)
	if err != nil {
		return s.mapError(err)
	}

	s.setAccessToken(resp.AccessToken)
	return nil
}

func (s *GRPCClient) Me(ctx context.Context) (*authrpc.Profile, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	resp, err := s.client.Me(ctx, &authrpc.MeRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Profile, nil
}

// Logout revokes the refresh session and forgets local credentials even if
// the server call fails.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}

	var header metadata.MD
	_, err := s.client.Logout(ctx, &authrpc.LogoutRequest{}, grpc.Header(&header))

	s.mu.Lock()
	s.accessToken, s.sessionID = "", ""
	s.mu.Unlock()

	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// Ping checks the server health service.
func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: authrpc.ServiceName})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) LoggedIn() bool {
	accessToken, sessionID := s.credentials()
	return accessToken != "" || sessionID != ""
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

var _ Client = (*GRPCClient)(nil)
