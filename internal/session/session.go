// internal/session/session.go
//
// Draft session cookie.
//
// Context
//   The browser holds only an opaque draft-session id.  The draft itself
//   lives in internal/draft and dies with the process or on eviction.  The
//   cookie is HttpOnly, SameSite=Lax, and Secure whenever the request came
//   over TLS.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"time"
)

// DefaultCookieName is used when config leaves session.cookie_name empty.
const DefaultCookieName = "profileform_draft"

// Cookies reads and writes the draft-session cookie.
type Cookies struct {
	Name   string
	MaxAge time.Duration
}

func (c Cookies) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

// Set stores id in the cookie.
func (c Cookies) Set(w http.ResponseWriter, r *http.Request, id string) {
	ck := &http.Cookie{
		Name:     c.name(),
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
	}
	if c.MaxAge > 0 {
		ck.MaxAge = int(c.MaxAge.Seconds())
	}
	http.SetCookie(w, ck)
}

// Clear removes the cookie.
func (c Cookies) Clear(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// ID returns the id stored in the cookie, if any.
//
// ok == false when the cookie is missing or empty.
func (c Cookies) ID(r *http.Request) (id string, ok bool) {
	ck, err := r.Cookie(c.name())
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
