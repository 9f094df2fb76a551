// Package session issues and verifies the short-lived play-session
// tokens that tie a submission to a username. The host platform
// authenticates the player; these tokens only carry that identity
// across our own endpoints, so HS256 with a server-local secret is
// enough.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/colordotrush/dotrush-backend/pkg/api"
)

var (
	ErrNoSession = errors.New("session: missing token")
	ErrInvalid   = errors.New("session: invalid token")
)

type ctxKey struct{}

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret []byte, ttl time.Duration) *Manager {
	return &Manager{secret: secret, issuer: "dotrush", ttl: ttl, now: time.Now}
}

// Issue mints a token for username and returns it with its expiry.
func (m *Manager) Issue(username string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := jwt.MapClaims{
		"sub": username,
		"iss": m.issuer,
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

// Verify returns the username a token was issued to.
func (m *Manager) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(m.issuer))
	if err != nil || !parsed.Valid {
		return "", ErrInvalid
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalid
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalid
	}
	return sub, nil
}

// TokenFromRequest pulls the token from the Authorization header,
// falling back to the token query parameter for websocket upgrades.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// RequireSession rejects requests without a valid token and stores
// the username in the request context for the handler.
func (m *Manager) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, err := m.Verify(TokenFromRequest(r))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "session required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), username)))
	})
}

// OptionalSession attaches the username when a valid token is present
// and passes the request through either way.
func (m *Manager) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if username, err := m.Verify(TokenFromRequest(r)); err == nil {
			r = r.WithContext(withUser(r.Context(), username))
		}
		next.ServeHTTP(w, r)
	})
}

func withUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// UserFrom returns the authenticated username, ok=false when the
// request carried no valid session.
func UserFrom(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(ctxKey{}).(string)
	return username, ok
}
