package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notesauth/internal/cryptox"
	"github.com/dmitrijs2005/notesauth/internal/logging"
	"github.com/dmitrijs2005/notesauth/internal/server/auth"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/refreshsessions"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

var fastArgon2 = cryptox.Argon2Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// discardTransport ignores all instructions.
type discardTransport struct{}

func (discardTransport) Store(string, time.Duration) error { return nil }
func (discardTransport) Clear() error                      { return nil }

// recordingTransport captures SessionTransport instructions.
type recordingTransport struct {
	storedID string
	maxAge   time.Duration
	cleared  int
	storeErr error
	clearErr error
}

func (r *recordingTransport) Store(id string, maxAge time.Duration) error {
	if r.storeErr != nil {
		return r.storeErr
	}
	r.storedID, r.maxAge = id, maxAge
	return nil
}

func (r *recordingTransport) Clear() error {
	r.cleared++
	return r.clearErr
}

// faultyStore wraps a session store and fails selected operations.
type faultyStore struct {
	refreshsessions.Repository
	findErr   error
	deleteErr error
	createErr error
	// deleteReportsAbsent simulates a concurrent rotation winning between
	// Find and Delete.
	deleteReportsAbsent bool
}

func (f *faultyStore) Find(ctx context.Context, id string) (*models.RefreshSession, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.Repository.Find(ctx, id)
}

func (f *faultyStore) Delete(ctx context.Context, id string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	existed, err := f.Repository.Delete(ctx, id)
	if f.deleteReportsAbsent {
		return false, err
	}
	return existed, err
}

func (f *faultyStore) Create(ctx context.Context, s *models.RefreshSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Repository.Create(ctx, s)
}

// countingObserver records observer calls.
type countingObserver struct {
	mu            sync.Mutex
	rotations     map[Outcome]int
	logins        map[bool]int
	registrations int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{rotations: map[Outcome]int{}, logins: map[bool]int{}}
}

func (c *countingObserver) ObserveRotation(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotations[o]++
}

func (c *countingObserver) ObserveLogin(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logins[ok]++
}

func (c *countingObserver) ObserveRegistration() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations++
}

type fixture struct {
	clock    *clock
	store    *refreshsessions.MemoryRepository
	manager  *repomanager.MemoryRepositoryManager
	engine   *SessionEngine
	svc      *AuthService
	observer *countingObserver
	tokens   *auth.TokenIssuer
}

func newFixture(t *testing.T, sessions refreshsessions.Repository) *fixture {
	t.Helper()

	f := &fixture{
		clock:    newClock(),
		store:    refreshsessions.NewMemoryRepository(),
		observer: newCountingObserver(),
	}
	if sessions == nil {
		sessions = f.store
	}
	f.manager = repomanager.NewMemoryRepositoryManager(repomanager.WithMemorySessionStore(sessions))

	hasher := cryptox.NewArgon2Hasher(fastArgon2)
	verifier, err := NewCredentialVerifier(nil, f.manager, hasher)
	require.NoError(t, err)

	f.engine = NewSessionEngine(nil, f.manager, WithClock(f.clock.Now), WithRotationObserver(f.observer))
	f.tokens = auth.NewTokenIssuer([]byte("test-key"), 15*time.Minute).WithClock(f.clock.Now)
	f.svc = NewAuthService(nil, f.manager, verifier, f.engine, f.tokens, hasher, logging.Nop{}, WithAuthObserver(f.observer))
	return f
}

func (f *fixture) register(t *testing.T, login, password string) *models.Profile {
	t.Helper()
	p, err := f.svc.Register(context.Background(), RegisterRequest{Login: login, Password: password, Name: login, Email: login + "@example.com"})
	require.NoError(t, err)
	return p
}
