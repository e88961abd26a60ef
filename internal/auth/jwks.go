package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSProvider validates tokens issued by an external identity provider
// using its published JWKS. Accounts and the login flow live with the issuer;
// this provider only verifies what it is handed.
type JWKSProvider struct {
	issuer string
	jwks   keyfunc.Keyfunc
}

// NewJWKSProvider creates a JWKSProvider that fetches keys from the issuer.
func NewJWKSProvider(issuer string) (*JWKSProvider, error) {
	if issuer == "" {
		return nil, fmt.Errorf("issuer URL is required")
	}

	jwksURL := issuer + "/.well-known/jwks.json"
	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS from %s: %w", jwksURL, err)
	}

	return &JWKSProvider{issuer: issuer, jwks: jwks}, nil
}

// Name returns the provider name.
func (p *JWKSProvider) Name() string { return "jwks" }

// Bootstrap is a no-op; users are managed by the issuer.
func (p *JWKSProvider) Bootstrap(ctx context.Context) error { return nil }

// ResolveSession validates an externally-issued bearer token.
func (p *JWKSProvider) ResolveSession(r *http.Request) (*Session, error) {
	tokenStr := bearerToken(r)
	if tokenStr == "" {
		return nil, nil
	}

	token, err := jwt.Parse(tokenStr, p.jwks.KeyfuncCtx(r.Context()),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrUnauthorized
	}

	username := sub
	switch {
	case claimStr(claims, "username") != "":
		username = claimStr(claims, "username")
	case claimStr(claims, "name") != "":
		username = claimStr(claims, "name")
	case claimStr(claims, "email") != "":
		username = claimStr(claims, "email")
	}

	return &Session{UserID: sub, Username: username}, nil
}

// Handler serves the callback surface for externally-managed auth. Clients
// complete the flow against the issuer; the callback only exposes where.
func (p *JWKSProvider) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"provider": p.Name(),
			"issuer":   p.issuer,
		})
	})
	mux.HandleFunc("GET /session", func(w http.ResponseWriter, r *http.Request) {
		sess, err := p.ResolveSession(r)
		if err != nil || sess == nil {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	})
	return mux
}

// claimStr extracts a string claim or returns "".
func claimStr(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
