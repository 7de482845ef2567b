package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/notesauth/internal/common"
)

// cookieTransport delivers the refresh session id as an HTTP-only cookie
// scoped to the auth routes.
type cookieTransport struct {
	w http.ResponseWriter
}

func (t cookieTransport) Store(id string, maxAge time.Duration) error {
	http.SetCookie(t.w, &http.Cookie{
		Name:     common.RefreshCookieName,
		Value:    id,
		Path:     common.RefreshCookiePath,
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (t cookieTransport) Clear() error {
	http.SetCookie(t.w, &http.Cookie{
		Name:     common.RefreshCookieName,
		Path:     common.RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
	})
	return nil
}

func setAuthorizedOn(w http.ResponseWriter, at time.Time, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:   common.AuthorizedOnCookieName,
		Value:  at.UTC().Format(time.RFC3339),
		Path:   "/",
		MaxAge: int(maxAge / time.Second),
	})
}

func clearAuthorizedOn(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: common.AuthorizedOnCookieName, Path: "/", MaxAge: -1})
}

func refreshCookie(r *http.Request) string {
	c, err := r.Cookie(common.RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
