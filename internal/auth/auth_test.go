package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/store"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:     "test-secret-at-least-32-chars-long",
		JWTExpiry:     config.Duration{Duration: time.Hour},
		SessionCookie: "inkwell_session",
	}
}

func setupService(t *testing.T) *Service {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return NewService(s, testAuthConfig())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "writer", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" {
		t.Error("expected non-empty user ID")
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in plaintext")
	}

	token, err := svc.Login(ctx, "writer", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	if _, err := svc.Login(ctx, "writer", "wrongpassword"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password123"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "writer", "password123"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(ctx, "writer", "otherpassword"); err != ErrUserExists {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestResolveSessionBearer(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "writer", "password123")
	if err != nil {
		t.Fatal(err)
	}
	token, err := svc.Login(ctx, "writer", "password123")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	sess, err := svc.ResolveSession(req)
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.UserID != user.ID {
		t.Errorf("UserID: got %q, want %q", sess.UserID, user.ID)
	}
	if sess.Username != "writer" {
		t.Errorf("Username: got %q, want %q", sess.Username, "writer")
	}
}

func TestResolveSessionCookie(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "writer", "password123"); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Login(ctx, "writer", "password123")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "inkwell_session", Value: token})

	sess, err := svc.ResolveSession(req)
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if sess == nil || sess.Username != "writer" {
		t.Fatalf("expected session for writer, got %+v", sess)
	}
}

func TestResolveSessionAbsentAndInvalid(t *testing.T) {
	svc := setupService(t)

	// No credential at all.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := svc.ResolveSession(req)
	if err != nil {
		t.Fatalf("ResolveSession without credential: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil session, got %+v", sess)
	}

	// Garbage token.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	if _, err := svc.ResolveSession(req); err != ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBootstrapCreatesInitialUser(t *testing.T) {
	s, err := store.NewSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	cfg := testAuthConfig()
	cfg.InitialUser = &config.InitialUser{Username: "founder", Password: "founderpass"}
	svc := NewService(s, cfg)

	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	// Idempotent.
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}

	if _, err := svc.Login(context.Background(), "founder", "founderpass"); err != nil {
		t.Errorf("login as bootstrapped user: %v", err)
	}
}

func TestCallbackLoginAndSession(t *testing.T) {
	svc := setupService(t)
	if _, err := svc.Register(context.Background(), "writer", "password123"); err != nil {
		t.Fatal(err)
	}
	handler := svc.Handler()

	body, _ := json.Marshal(map[string]string{
		"username": "writer",
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d; body: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["token"] == "" {
		t.Fatal("expected token in login response")
	}

	// Cookie set alongside the token.
	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "inkwell_session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected session cookie on login")
	}

	// Session endpoint sees the cookie.
	req = httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(sessionCookie)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", w.Code)
	}
	var sess Session
	if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
		t.Fatal(err)
	}
	if sess.Username != "writer" {
		t.Errorf("session username: got %q, want %q", sess.Username, "writer")
	}
}

func TestCallbackLoginInvalidCredentials(t *testing.T) {
	svc := setupService(t)
	handler := svc.Handler()

	body, _ := json.Marshal(map[string]string{
		"username": "ghostuser",
		"password": "whatever123",
	})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCallbackSessionUnauthenticatedIsNull(t *testing.T) {
	svc := setupService(t)
	handler := svc.Handler()

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "null\n" {
		t.Errorf("expected null body, got %q", got)
	}
}
