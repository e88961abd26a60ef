// Package auth provides session resolution and the auth callback surface.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Claims represents the JWT session token claims.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Service is the builtin auth provider. It issues HS256 session tokens,
// delivered either as a bearer header or as the session cookie.
type Service struct {
	store       store.Store
	jwtSecret   []byte
	jwtExpiry   time.Duration
	cookieName  string
	initialUser *config.InitialUser
}

// NewService creates the builtin auth provider.
func NewService(s store.Store, cfg config.AuthConfig) *Service {
	cookie := cfg.SessionCookie
	if cookie == "" {
		cookie = "inkwell_session"
	}
	return &Service{
		store:       s,
		jwtSecret:   []byte(cfg.JWTSecret),
		jwtExpiry:   cfg.JWTExpiry.Duration,
		cookieName:  cookie,
		initialUser: cfg.InitialUser,
	}
}

// Name returns the provider name.
func (s *Service) Name() string { return "builtin" }

// Bootstrap creates the initial user if configured and not present yet.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.initialUser == nil {
		return nil
	}

	existing, err := s.store.GetUser(ctx, s.initialUser.Username)
	if err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil // already bootstrapped
	}

	_, err = s.Register(ctx, s.initialUser.Username, s.initialUser.Password)
	return err
}

// Login authenticates a user and returns a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.generateToken(user)
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, username, password string) (*store.User, error) {
	existing, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check existing: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &store.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// ResolveSession validates the session credential carried by the request.
// The bearer header takes precedence over the session cookie.
func (s *Service) ResolveSession(r *http.Request) (*Session, error) {
	token := bearerToken(r)
	if token == "" {
		if c, err := r.Cookie(s.cookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return nil, nil
	}

	claims, err := s.validateJWT(token)
	if err != nil {
		return nil, err
	}
	return &Session{UserID: claims.UserID, Username: claims.Username}, nil
}

func (s *Service) validateJWT(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) generateToken(user *store.User) (string, error) {
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// --- Callback handler ---

// Handler serves the builtin provider's callback routes. Mounted under
// /api/auth by the server.
func (s *Service) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Post("/login", s.handleLogin)
	mux.Post("/register", s.handleRegister)
	mux.Get("/session", s.handleSession)
	mux.Post("/logout", s.handleLogout)
	mux.Get("/providers", s.handleProviders)
	return mux
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 64 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username must be 3-64 characters"})
		return
	}

	token, err := s.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	s.setSessionCookie(w, token, s.jwtExpiry)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 64 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username must be 3-64 characters"})
		return
	}
	if len(req.Password) < 8 || len(req.Password) > 128 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be 8-128 characters"})
		return
	}

	user, err := s.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleSession reports the current session, or null when unauthenticated.
func (s *Service) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ResolveSession(r)
	if err != nil || sess == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setSessionCookie(w, "", -time.Hour)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Service) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"provider": s.Name()})
}

func (s *Service) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// bearerToken extracts the token from an Authorization header, or "".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return h[7:]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
