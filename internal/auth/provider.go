package auth

import (
	"context"
	"net/http"
)

// Session is proof of authenticated identity for the current request.
type Session struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Provider resolves inbound requests to sessions and owns the auth callback
// surface mounted under /api/auth.
type Provider interface {
	// ResolveSession extracts the session credential from the request and
	// validates it. Returns (nil, nil) when no credential is present and an
	// error when the credential is invalid.
	ResolveSession(r *http.Request) (*Session, error)

	// Handler serves the provider's callback routes. The server mounts it
	// verbatim; all protocol behavior belongs to the provider.
	Handler() http.Handler

	Bootstrap(ctx context.Context) error
	Name() string
}
