package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/notesauth/internal/common"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

var alice = &models.User{ID: "user-123", Login: "alice"}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	iss := NewTokenIssuer([]byte("super-secret"), 15*time.Minute).WithClock(fixedClock(now))

	tok, exp, err := iss.Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if !exp.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("expiry mismatch: %v", exp)
	}

	claims, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID() != "user-123" || claims.Login != "alice" || claims.Role != DefaultRole {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.IssuedAt.Time.Equal(now) {
		t.Fatalf("iat mismatch: %v", claims.IssuedAt)
	}
}

func TestIssue_Deterministic(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	a, _, err := NewTokenIssuer([]byte("k"), time.Minute).WithClock(fixedClock(now)).Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	b, _, err := NewTokenIssuer([]byte("k"), time.Minute).WithClock(fixedClock(now)).Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if a != b {
		t.Fatalf("same key, claims and clock must produce the same token")
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	iss := NewTokenIssuer([]byte("secret"), time.Minute).WithClock(fixedClock(now))

	tok, _, err := iss.Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	iss.WithClock(fixedClock(now.Add(2 * time.Minute)))
	if _, err := iss.Verify(tok); err != common.ErrTokenExpired {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	t.Parallel()

	tok, _, err := NewTokenIssuer([]byte("right"), time.Hour).Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := NewTokenIssuer([]byte("wrong"), time.Hour).Verify(tok); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	t.Parallel()

	iss := NewTokenIssuer([]byte("k"), time.Hour)
	tok, _, err := iss.Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	b := []byte(tok)
	b[len(b)-2] ^= 0x01
	if _, err := iss.Verify(string(b)); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	key := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenIssuer(key, time.Hour).Verify(tok); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_RequiresExpiryAndSubject(t *testing.T) {
	t.Parallel()

	key := []byte("k")
	iss := NewTokenIssuer(key, time.Hour)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
	}).SignedString(key)
	if _, err := iss.Verify(noExp); err != common.ErrInvalidToken {
		t.Fatalf("no exp: expected common.ErrInvalidToken, got %v", err)
	}

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(key)
	if _, err := iss.Verify(noSub); err != common.ErrInvalidToken {
		t.Fatalf("no sub: expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenIssuer([]byte("k"), time.Hour).Verify("not.a.jwt"); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}
