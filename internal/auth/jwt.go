// Package auth gates the operator-triggered endpoints (scheduled sweeps,
// manual sync, conflict resolution) behind a single shared-secret HS256
// bearer token. There is no per-tenant identity in this engine — one
// operator token, one trust domain.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const ctxSubject ctxKey = "sub"

// Config holds the operator bearer-token secret.
type Config struct {
	HS256Secret string
}

// ValidateToken verifies an HS256 bearer token and returns its subject
// claim.
func ValidateToken(tokenString string, cfg Config) (string, error) {
	if tokenString == "" {
		return "", errors.New("token is empty")
	}
	if cfg.HS256Secret == "" {
		return "", errors.New("operator secret not configured")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.HS256Secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid operator token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		sub = "operator"
	}
	return sub, nil
}

// Middleware requires a valid Bearer token on every request; scheduled and
// manual handlers are operator-driven, not public.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tok := ""
			if strings.HasPrefix(authHeader, "Bearer ") {
				tok = strings.TrimPrefix(authHeader, "Bearer ")
			}

			sub, err := ValidateToken(tok, cfg)
			if err != nil {
				log.Warn().Err(err).Msg("operator auth failed")
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxSubject, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject extracts the authenticated operator subject from request
// context, or "" if unauthenticated.
func Subject(ctx context.Context) string {
	if v := ctx.Value(ctxSubject); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
