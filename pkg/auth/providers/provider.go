package providers

import (
	"context"
	"errors"
)

// ErrEmptyToken is returned when no token accompanies a request.
var ErrEmptyToken = errors.New("empty token")

type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

type TokenClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}
