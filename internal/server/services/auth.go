// Package services contains server-side business logic: credential
// verification, the refresh session engine and the AuthService that
// orchestrates them for the request layers.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/notesauth/internal/common"
	"github.com/dmitrijs2005/notesauth/internal/cryptox"
	"github.com/dmitrijs2005/notesauth/internal/dbx"
	"github.com/dmitrijs2005/notesauth/internal/logging"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/repomanager"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 256
	MaxLoginLength    = 128
)

// AccessTokenIssuer mints access tokens.
type AccessTokenIssuer interface {
	Issue(u *models.User) (token string, expiresAt time.Time, err error)
}

type LoginRequest struct {
	Login       string
	Password    string
	Fingerprint string
}

type RegisterRequest struct {
	Login    string
	Password string
	Name     string
	Email    string
}

// AuthResult is returned by Login and Refresh.
type AuthResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshSessionID string
	RefreshExpiresAt time.Time
	Profile          *models.Profile
}

// AuthService implements login, registration, refresh and logout.
//
// Expected rejections surface as common sentinels (ErrorUnauthorized,
// ErrNoSession, ErrInvalidSession, ErrorAlreadyExists, ErrorValidation).
// Infrastructure faults are logged here and surface as common.ErrorInternal.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	verifier    *CredentialVerifier
	engine      *SessionEngine
	tokens      AccessTokenIssuer
	hasher      cryptox.PasswordHasher
	observer    AuthObserver
	logger      logging.Logger
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithAuthObserver registers o for login and registration events.
func WithAuthObserver(o AuthObserver) AuthOption {
	return func(s *AuthService) { s.observer = o }
}

func NewAuthService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	verifier *CredentialVerifier,
	engine *SessionEngine,
	tokens AccessTokenIssuer,
	hasher cryptox.PasswordHasher,
	logger logging.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		verifier:    verifier,
		engine:      engine,
		tokens:      tokens,
		hasher:      hasher,
		observer:    nopObserver{},
		logger:      logger.With("module", "auth"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *AuthService) internal(ctx context.Context, msg string, err error, args ...any) error {
	s.logger.Error(ctx, msg, append(args, "error", err)...)
	return common.ErrorInternal
}

// Login verifies credentials, opens a refresh session bound to the
// fingerprint and issues an access token. Unknown login and wrong password
// both yield common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, t SessionTransport, req LoginRequest) (*AuthResult, error) {
	user, err := s.verifier.Authenticate(ctx, req.Login, req.Password)
	if err != nil {
		return nil, s.internal(ctx, "authenticate", err)
	}
	if user == nil {
		s.observer.ObserveLogin(false)
		s.logger.Info(ctx, "login rejected")
		return nil, common.ErrorUnauthorized
	}

	session, err := s.engine.Issue(ctx, user.ID, req.Fingerprint)
	if err != nil {
		return nil, s.internal(ctx, "issue refresh session", err, "user_id", user.ID)
	}

	res, err := s.complete(ctx, t, user, session)
	if err != nil {
		s.revoke(ctx, session.ID)
		return nil, err
	}
	s.observer.ObserveLogin(true)
	s.logger.Info(ctx, "login", "user_id", user.ID)
	return res, nil
}

func validateRegistration(req RegisterRequest) error {
	login := strings.TrimSpace(req.Login)
	if login == "" || login != req.Login || utf8.RuneCountInString(login) > MaxLoginLength {
		return fmt.Errorf("%w: login must be 1..%d characters without surrounding spaces", common.ErrorValidation, MaxLoginLength)
	}
	n := utf8.RuneCountInString(req.Password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return fmt.Errorf("%w: password must be %d..%d characters", common.ErrorValidation, MinPasswordLength, MaxPasswordLength)
	}
	return nil
}

// Register creates a user and returns its profile. It never issues tokens;
// the client logs in separately.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.Profile, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	var created *models.User
	err = s.repomanager.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByLogin(ctx, req.Login)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrorAlreadyExists
		}

		created, err = repo.Create(ctx, &models.User{
			Login:        req.Login,
			PasswordHash: hash,
			Name:         req.Name,
			Email:        req.Email,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, s.internal(ctx, "create user", err)
	}

	s.observer.ObserveRegistration()
	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return models.ProfileFromUser(created), nil
}

// Refresh exchanges a refresh session for a new access token and a successor
// session. The presented session is consumed whatever the outcome. On
// rejection the transport is told to forget the id.
func (s *AuthService) Refresh(ctx context.Context, t SessionTransport, sessionID, fingerprint string) (*AuthResult, error) {
	if sessionID == "" {
		return nil, common.ErrNoSession
	}

	res, err := s.engine.Rotate(ctx, sessionID, fingerprint)
	if err != nil {
		return nil, s.internal(ctx, "rotate refresh session", err)
	}

	switch res.Outcome {
	case OutcomeRotated:
	case OutcomeInvalid:
		s.logger.Warn(ctx, "refresh rejected", "reason", res.Reason)
		s.clear(ctx, t)
		return nil, common.ErrInvalidSession
	default:
		s.logger.Info(ctx, "refresh rejected", "reason", res.Outcome.String())
		s.clear(ctx, t)
		return nil, common.ErrNoSession
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, res.Session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// the owner was removed between issue and rotation
			s.revoke(ctx, res.Session.ID)
			s.clear(ctx, t)
			return nil, common.ErrInvalidSession
		}
		s.revoke(ctx, res.Session.ID)
		return nil, s.internal(ctx, "load session owner", err, "user_id", res.Session.UserID)
	}

	out, err := s.complete(ctx, t, user, res.Session)
	if err != nil {
		s.revoke(ctx, res.Session.ID)
		return nil, err
	}
	return out, nil
}

// Logout revokes the session. It succeeds whether or not the session existed.
func (s *AuthService) Logout(ctx context.Context, t SessionTransport, sessionID string) error {
	if sessionID == "" {
		return common.ErrNoSession
	}
	if err := s.engine.Revoke(ctx, sessionID); err != nil {
		return s.internal(ctx, "revoke refresh session", err)
	}
	if err := t.Clear(); err != nil {
		return s.internal(ctx, "clear session transport", err)
	}
	return nil
}

// Me returns the profile of userID, which the caller must take from a
// verified access token.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "load user", err, "user_id", userID)
	}
	return models.ProfileFromUser(user), nil
}

func (s *AuthService) complete(ctx context.Context, t SessionTransport, user *models.User, session *models.RefreshSession) (*AuthResult, error) {
	access, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, s.internal(ctx, "issue access token", err, "user_id", user.ID)
	}
	if err := t.Store(session.ID, RefreshSessionLifetime); err != nil {
		return nil, s.internal(ctx, "store refresh session id", err)
	}
	return &AuthResult{
		AccessToken:      access,
		AccessExpiresAt:  exp,
		RefreshSessionID: session.ID,
		RefreshExpiresAt: session.ExpiresOn,
		Profile:          models.ProfileFromUser(user),
	}, nil
}

// revoke drops a session the client never received.
func (s *AuthService) revoke(ctx context.Context, sessionID string) {
	if err := s.engine.Revoke(ctx, sessionID); err != nil {
		s.logger.Warn(ctx, "revoke undelivered refresh session", "error", err)
	}
}

func (s *AuthService) clear(ctx context.Context, t SessionTransport) {
	if err := t.Clear(); err != nil {
		s.logger.Warn(ctx, "clear session transport", "error", err)
	}
}
