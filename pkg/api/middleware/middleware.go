package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	authproviders "github.com/rinooks/pixel-war/pkg/auth/providers"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/repositories"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
)

type ContextKey int

const (
	// InstructorContextKey is the key used to store the instructor in the request context
	InstructorContextKey ContextKey = iota
)

// NewAuthMiddleware verifies the bearer token and requires an active
// instructor record matching the token's UID or email.
func NewAuthMiddleware(authProvider authproviders.AuthProvider, repository repositories.Repository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearerToken, err := parseBearerToken(r)
			if err != nil {
				log.Error("failed to parse bearer token: %v", err)
				http.Error(w, "failed to parse bearer token", http.StatusUnauthorized)
				return
			}

			token, err := authProvider.VerifyToken(r.Context(), bearerToken)
			if err != nil {
				log.Error("failed to verify ID token: %v", err)
				http.Error(w, "failed to verify ID token", http.StatusUnauthorized)
				return
			}

			instructor, err := lookupInstructor(r.Context(), repository, token)
			if err != nil {
				log.Warn("instructor lookup failed for %s: %v", token.UID, err)
				http.Error(w, "not an instructor", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), InstructorContextKey, instructor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func lookupInstructor(ctx context.Context, repository repositories.Repository, token *authproviders.TokenClaims) (*models.InstructorDoc, error) {
	instructors, err := repository.ListInstructors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructors: %v", err)
	}
	for _, instructor := range instructors {
		if !instructor.IsActive {
			continue
		}
		if instructor.ID == token.UID {
			return instructor, nil
		}
		if token.Email != "" && instructor.Email == token.Email {
			return instructor, nil
		}
	}
	return nil, fmt.Errorf("no active instructor record")
}

// parseBearerToken parses the bearer token from the Authorization header
func parseBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	return parts[1], nil
}
