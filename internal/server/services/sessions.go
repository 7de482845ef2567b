package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notesauth/internal/common"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/refreshsessions"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RefreshSessionLifetime is the fixed lifetime of every refresh session.
const RefreshSessionLifetime = common.RefreshSessionLifetime

// Outcome classifies a rotation attempt.
type Outcome int

const (
	// OutcomeRotated: the session was consumed and a successor created.
	OutcomeRotated Outcome = iota
	// OutcomeNoSession: no session with that id exists (never did, already
	// consumed, or consumed concurrently).
	OutcomeNoSession
	// OutcomeInvalid: the session existed but was expired or bound to another
	// fingerprint. It has been consumed regardless.
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRotated:
		return "rotated"
	case OutcomeNoSession:
		return "no_session"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// RotateResult is the typed result of SessionEngine.Rotate.
type RotateResult struct {
	Outcome Outcome
	// Session is the successor, set only for OutcomeRotated.
	Session *models.RefreshSession
	// Reason details OutcomeInvalid for logs. Never show it to clients.
	Reason string
}

// SessionEngine owns the refresh session lifecycle: issue, single-use
// rotation and revocation.
//
// Rotation deletes the presented session before validating it. A session
// therefore can be presented once; replays, including concurrent ones, find
// nothing. Correctness depends only on the store's Delete being an atomic
// point operation that reports whether the row existed.
type SessionEngine struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	newID       func() string
	observer    RotationObserver
}

// EngineOption customizes a SessionEngine.
type EngineOption func(*SessionEngine)

// WithClock sets the time source. Times are normalized to UTC.
func WithClock(now func() time.Time) EngineOption {
	return func(e *SessionEngine) { e.now = now }
}

// WithIDGenerator sets the session id source.
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *SessionEngine) { e.newID = newID }
}

// WithRotationObserver registers o for rotation outcomes.
func WithRotationObserver(o RotationObserver) EngineOption {
	return func(e *SessionEngine) { e.observer = o }
}

func NewSessionEngine(db *sql.DB, m repomanager.RepositoryManager, opts ...EngineOption) *SessionEngine {
	e := &SessionEngine{
		db:          db,
		repomanager: m,
		now:         time.Now,
		newID:       uuid.NewString,
		observer:    nopObserver{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *SessionEngine) sessions() refreshsessions.Repository {
	return e.repomanager.RefreshSessions(e.db)
}

func (e *SessionEngine) create(ctx context.Context, repo refreshsessions.Repository, userID, fingerprint string, now time.Time) (*models.RefreshSession, error) {
	s := &models.RefreshSession{
		ID:          e.newID(),
		UserID:      userID,
		Fingerprint: fingerprint,
		CreatedOn:   now,
		ExpiresOn:   now.Add(RefreshSessionLifetime),
	}
	if err := repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create refresh session: %w", err)
	}
	return s, nil
}

// Issue creates a fresh session for userID bound to fingerprint.
func (e *SessionEngine) Issue(ctx context.Context, userID, fingerprint string) (*models.RefreshSession, error) {
	return e.create(ctx, e.sessions(), userID, fingerprint, e.now().UTC())
}

// Rotate consumes the session id and, if it was valid for fingerprint,
// returns its successor. Rejections are reported through the Outcome; the
// error is reserved for store faults.
func (e *SessionEngine) Rotate(ctx context.Context, sessionID, fingerprint string) (RotateResult, error) {
	res, err := e.rotate(ctx, sessionID, fingerprint)
	if err == nil {
		e.observer.ObserveRotation(res.Outcome)
	}
	return res, err
}

func (e *SessionEngine) rotate(ctx context.Context, sessionID, fingerprint string) (RotateResult, error) {
	repo := e.sessions()

	old, err := repo.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return RotateResult{Outcome: OutcomeNoSession}, nil
		}
		return RotateResult{}, fmt.Errorf("find refresh session: %w", err)
	}

	existed, err := repo.Delete(ctx, sessionID)
	if err != nil {
		return RotateResult{}, fmt.Errorf("delete refresh session: %w", err)
	}
	if !existed {
		// lost the race to a concurrent rotation
		return RotateResult{Outcome: OutcomeNoSession}, nil
	}

	now := e.now().UTC()
	if !old.ActiveAt(now) {
		return RotateResult{Outcome: OutcomeInvalid, Reason: "expired"}, nil
	}
	if subtle.ConstantTimeCompare([]byte(old.Fingerprint), []byte(fingerprint)) != 1 {
		return RotateResult{Outcome: OutcomeInvalid, Reason: "fingerprint mismatch"}, nil
	}

	next, err := e.create(ctx, repo, old.UserID, fingerprint, now)
	if err != nil {
		return RotateResult{}, err
	}
	return RotateResult{Outcome: OutcomeRotated, Session: next}, nil
}

// Revoke deletes the session if present. Absent ids are not an error.
func (e *SessionEngine) Revoke(ctx context.Context, sessionID string) error {
	if _, err := e.sessions().Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}
