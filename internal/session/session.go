// Package session keeps the signed-in state of the web front-end in a cookie. The cookie
// holds the API token and the user, signed as an HS256 JWT, so no server-side session
// storage is needed.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/model"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "session"
	// MaxAge is half a year in seconds.
	MaxAge = 15778476

	signInPath = "/sign-in"
	homePath   = "/"
)

// ErrNoSession is returned by Load when the request carries no usable session cookie.
var ErrNoSession = errors.New("session: no session")

// Session is what a signed-in user carries around.
type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type claims struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
	jwt.RegisteredClaims
}

// Manager issues, reads and destroys session cookies.
type Manager struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewManager returns a manager signing with secret. secure sets the Secure flag of the
// cookie and should be on in production.
func NewManager(secret string, secure bool) *Manager {
	return &Manager{secret: []byte(secret), secure: secure, now: time.Now}
}

// Commit writes the session cookie.
func (m *Manager) Commit(w http.ResponseWriter, s Session) error {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Token: s.Token,
		User:  s.User,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(MaxAge * time.Second)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("signing session: %w", err)
	}
	http.SetCookie(w, m.cookie(signed, MaxAge))
	return nil
}

// Login commits the session and redirects to the contact list.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, s Session) error {
	if err := m.Commit(w, s); err != nil {
		return err
	}
	http.Redirect(w, r, homePath, http.StatusFound)
	return nil
}

// Destroy overwrites the session cookie with an empty one that expires immediately.
func (m *Manager) Destroy(w http.ResponseWriter) {
	c := m.cookie("", -1)
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

// Logout destroys the session and redirects to the start page.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	m.Destroy(w)
	http.Redirect(w, r, homePath, http.StatusFound)
}

// Load reads the session from the request. It returns ErrNoSession if the cookie is
// missing, and an error wrapping ErrNoSession if it cannot be verified.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	var c claims
	_, err = jwt.ParseWithClaims(cookie.Value, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if c.Token == "" {
		return nil, fmt.Errorf("%w: token missing", ErrNoSession)
	}
	return &Session{Token: c.Token, User: c.User}, nil
}

// Require lets only requests with a valid session pass, and stores the session in the
// request context. Everyone else is redirected to the sign-in page.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Load(r)
		if err != nil {
			http.Redirect(w, r, signInPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// RedirectIfAuthenticated sends users that are already signed in to the start page.
func (m *Manager) RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.Load(r); err == nil {
			http.Redirect(w, r, homePath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by Require, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
