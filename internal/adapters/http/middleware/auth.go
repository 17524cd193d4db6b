package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"

	"fieldhouse/internal/domain/member"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionTTL is how long a session stays valid after login.
const SessionTTL = 24 * time.Hour

// Session represents an authenticated member.
type Session struct {
	MemberID  string
	Email     string
	Role      member.Role
	CreatedAt time.Time
}

// SessionStore is an in-memory session store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Create stores a new session and returns the token.
// PRE: memberID, email, role are non-empty
// POST: Session is stored, token is returned
func (ss *SessionStore) Create(memberID, email string, role member.Role) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = Session{
		MemberID:  memberID,
		Email:     email,
		Role:      role,
		CreatedAt: ss.now(),
	}
	return token, nil
}

// Get retrieves a session by token. Expired sessions are dropped on read.
// POST: Returns session if valid and not expired
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	session, ok := ss.sessions[token]
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(session.CreatedAt) > SessionTTL {
		delete(ss.sessions, token)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session by token.
// POST: Session with given token is removed
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "fieldhouse_session"

// Cookies signs session tokens so forged or truncated cookies are rejected
// before the store is consulted.
type Cookies struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewCookies builds a cookie codec from a hash key of at least 32 bytes.
// Secure marks cookies HTTPS-only.
func NewCookies(hashKey []byte, secure bool) *Cookies {
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(SessionTTL.Seconds()))
	return &Cookies{codec: codec, secure: secure}
}

// Set writes the signed session cookie.
func (c *Cookies) Set(w http.ResponseWriter, token string) error {
	encoded, err := c.codec.Encode(SessionCookieName, token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
	})
	return nil
}

// Clear removes the session cookie.
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// Token returns the verified session token carried by r, if any.
func (c *Cookies) Token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	var token string
	if err := c.codec.Decode(SessionCookieName, cookie.Value, &token); err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			slog.Warn("auth_event", "event", "session_cookie_invalid", "remote", r.RemoteAddr)
		}
		return "", false
	}
	return token, true
}

// Auth returns middleware that resolves the session cookie and sets the session in context.
// It does NOT block unauthenticated requests; handlers decide what needs a session.
func Auth(sessions *SessionStore, cookies *Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := cookies.Token(r); ok {
				if session, ok := sessions.Get(token); ok {
					r = r.WithContext(ContextWithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
