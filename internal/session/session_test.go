package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueVerifyRoundtrip(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	token, expires, err := m.Issue("RushHourHero")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("expiry %v is not in the future", expires)
	}

	username, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if username != "RushHourHero" {
		t.Fatalf("want RushHourHero, got %q", username)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	if _, err := m.Verify(""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("empty token: want ErrNoSession, got %v", err)
	}
	if _, err := m.Verify("not-a-jwt"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("garbage token: want ErrInvalid, got %v", err)
	}

	other := NewManager([]byte("a completely different secret!!"), time.Hour)
	token, _, err := other.Issue("player")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("foreign secret: want ErrInvalid, got %v", err)
	}

	expiredIssuer := NewManager(testSecret, -time.Minute)
	token, _, err = expiredIssuer.Issue("player")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expired token: want ErrInvalid, got %v", err)
	}
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	foreign := NewManager(testSecret, time.Hour)
	foreign.issuer = "someone-else"
	token, _, err := foreign.Issue("player")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("foreign issuer: want ErrInvalid, got %v", err)
	}
}

func TestRequireSession(t *testing.T) {
	m := NewManager(testSecret, time.Hour)
	token, _, err := m.Issue("DotMaster3000")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var gotUser string
	handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFrom(r.Context())
	}))

	t.Run("missing token is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "session required") {
			t.Fatalf("want JSON error body, got %q", rec.Body.String())
		}
	})

	t.Run("bearer header", func(t *testing.T) {
		gotUser = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		if gotUser != "DotMaster3000" {
			t.Fatalf("handler saw user %q", gotUser)
		}
	})

	t.Run("query parameter", func(t *testing.T) {
		gotUser = ""
		req := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		if gotUser != "DotMaster3000" {
			t.Fatalf("handler saw user %q", gotUser)
		}
	})
}

func TestOptionalSessionPassesAnonymousThrough(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	var sawUser bool
	handler := m.OptionalSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawUser = UserFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 for anonymous request, got %d", rec.Code)
	}
	if sawUser {
		t.Fatalf("anonymous request should carry no user")
	}
}

func TestLimiterBurstThenRefill(t *testing.T) {
	l := NewLimiter(60, 3)
	clock := time.UnixMilli(1700000000000)
	l.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if !l.Allow("player") {
			t.Fatalf("burst submission %d denied", i+1)
		}
	}
	if l.Allow("player") {
		t.Fatalf("submission past the burst must be denied")
	}

	// 60/min refills one token per second.
	clock = clock.Add(time.Second)
	if !l.Allow("player") {
		t.Fatalf("submission after refill denied")
	}
}

func TestLimiterIsolatesUsers(t *testing.T) {
	l := NewLimiter(60, 1)
	clock := time.UnixMilli(1700000000000)
	l.now = func() time.Time { return clock }

	if !l.Allow("noisy") {
		t.Fatalf("first submission denied")
	}
	if l.Allow("noisy") {
		t.Fatalf("noisy user should be throttled")
	}
	if !l.Allow("quiet") {
		t.Fatalf("throttling leaked across users")
	}
}
