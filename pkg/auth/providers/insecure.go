package providers

import "context"

var _ AuthProvider = &InsecureAuthProvider{}

// InsecureAuthProvider accepts any non-empty token and echoes it back as
// the UID. For local development only.
type InsecureAuthProvider struct{}

func NewInsecureAuthProvider() *InsecureAuthProvider {
	return &InsecureAuthProvider{}
}

func (p *InsecureAuthProvider) VerifyToken(_ context.Context, idToken string) (*TokenClaims, error) {
	if idToken == "" {
		return nil, ErrEmptyToken
	}
	return &TokenClaims{UID: idToken}, nil
}
