package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/laneboard/laneboard/internal/config"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestVerifyHS256(t *testing.T) {
	v := NewVerifier(config.Config{HSSecret: "test-secret"})
	token := signHS256(t, "test-secret", jwt.MapClaims{
		"sub": "ext_1",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	sub, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "ext_1" {
		t.Fatalf("expected ext_1 got %s", sub)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := NewVerifier(config.Config{HSSecret: "test-secret"})
	token := signHS256(t, "test-secret", jwt.MapClaims{
		"sub": "ext_1",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	if err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := NewVerifier(config.Config{HSSecret: "right"})
	token := signHS256(t, "wrong", jwt.MapClaims{
		"sub": "ext_1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(context.Background(), token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestVerifyFallsBackToUserIDClaim(t *testing.T) {
	v := NewVerifier(config.Config{HSSecret: "test-secret"})
	token := signHS256(t, "test-secret", jwt.MapClaims{
		"user_id": "ext_2",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	sub, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "ext_2" {
		t.Fatalf("expected ext_2 got %s", sub)
	}
}

func TestInstanceFromIssuer(t *testing.T) {
	cases := map[string]string{
		"https://funny-otter-42.clerk.accounts.dev": "funny-otter-42",
		"https://clerk.myapp.lcl.dev":               "myapp",
		"https://example.com":                       "",
	}
	for iss, want := range cases {
		if got := instanceFromIssuer(iss); got != want {
			t.Fatalf("instanceFromIssuer(%s) = %q, want %q", iss, got, want)
		}
	}
}

type stubVerifier struct {
	identity string
	err      error
}

func (s stubVerifier) Verify(_ context.Context, _ string) (string, error) {
	return s.identity, s.err
}

func TestMiddlewarePassesWithoutToken(t *testing.T) {
	var sawIdentity bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, sawIdentity = IdentityFromContext(r.Context())
	})
	h := Middleware(stubVerifier{identity: "ext_1"})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through got %d", w.Code)
	}
	if sawIdentity {
		t.Fatalf("no identity should be attached without a token")
	}
}

func TestMiddlewareAttachesIdentity(t *testing.T) {
	var identity string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		identity, _ = IdentityFromContext(r.Context())
	})
	h := Middleware(stubVerifier{identity: "ext_1"})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if identity != "ext_1" {
		t.Fatalf("expected identity ext_1 got %q", identity)
	}
}

func TestMiddlewareRejectsBadToken(t *testing.T) {
	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("next should not run")
	})
	h := Middleware(stubVerifier{err: errors.New("boom")})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError && w.Code != http.StatusUnauthorized {
		t.Fatalf("expected rejection got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate header")
	}
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := RequireAuth(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2 = req2.WithContext(WithIdentity(req2.Context(), "ext_1"))
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, req2)
	if w2.Code != http.StatusTeapot {
		t.Fatalf("expected next handler got %d", w2.Code)
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := BearerToken(req); ok {
		t.Fatalf("no header should yield no token")
	}
	req.Header.Set("Authorization", "bearer abc")
	token, ok := BearerToken(req)
	if !ok || token != "abc" {
		t.Fatalf("scheme should be case-insensitive, got %q %v", token, ok)
	}
	req.Header.Set("Authorization", "Basic abc")
	if _, ok := BearerToken(req); ok {
		t.Fatalf("non-bearer scheme should be rejected")
	}
}
