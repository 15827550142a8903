package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ActorHeader carries the acting employee id when token auth is disabled.
const ActorHeader = "X-Actor-ID"

type actorKey struct{}

// ActorID returns the authenticated employee id stored by the auth middleware.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// WithActor stores the acting employee id in ctx.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// Authenticator verifies HS256 bearer tokens whose subject is the acting
// employee id. With an empty secret it trusts the X-Actor-ID header instead,
// which is only suitable for local development.
type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Enabled reports whether bearer tokens are required.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Issue signs a token for actorID valid for ttl. Used by the CLI and tests.
func (a *Authenticator) Issue(actorID string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", errors.New("token auth is disabled: no jwt secret configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   actorID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses a token and returns its subject.
func (a *Authenticator) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("invalid token: missing subject")
	}
	return subject, nil
}

// Middleware rejects requests without an identifiable actor (401).
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var actor string
		if a.Enabled() {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}
			subject, err := a.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid bearer token", err)
				return
			}
			actor = subject
		} else {
			actor = strings.TrimSpace(r.Header.Get(ActorHeader))
			if actor == "" {
				writeError(w, http.StatusUnauthorized, "missing "+ActorHeader+" header", nil)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}
