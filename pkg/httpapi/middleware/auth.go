// Package middleware provides HTTP middleware for the CoreVault API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/httpapi/auth"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ActorFromContext retrieves the authenticated actor set by JWTAuth.
// Returns the zero Actor and false if called outside a route that ran
// JWTAuth first.
func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(access.Actor)
	return actor, ok
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// JWTAuth validates the bearer token and stores the resulting access.Actor
// in the request context. Returns 401 on a missing or invalid token.
func JWTAuth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractBearerToken(r)
			if !ok {
				http.Error(w, "authorization header required", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				status := http.StatusUnauthorized
				msg := "invalid or expired token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "token expired"
				}
				http.Error(w, msg, status)
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey, claims.ToActor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWTAuth is like JWTAuth but never rejects the request: a
// missing or invalid token just means the request proceeds with no actor
// in context. Used on redeem-share, where is-public tokens need no
// credentials at all (spec §4.7).
func OptionalJWTAuth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractBearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := verifier.Verify(tokenString)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), actorContextKey, claims.ToActor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
