// internal/adapters/out/firebaseauth/identity.go
package firebaseauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	sessiondom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/session"
)

var (
	ErrVerifierMissing = errors.New("firebaseauth: verifier is not configured")
	ErrEmptyIDToken    = errors.New("firebaseauth: id token is empty")
	ErrNoUID           = errors.New("firebaseauth: token has no uid")
	ErrNoEmail         = errors.New("firebaseauth: token has no email")
)

// TokenVerifier is the part of *auth.Client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// IdentityResolver turns a Firebase ID token into a federated session.
type IdentityResolver struct {
	verifier TokenVerifier
}

func NewIdentityResolver(v TokenVerifier) *IdentityResolver {
	return &IdentityResolver{verifier: v}
}

// SessionFromIDToken verifies idToken and builds the session stored for it.
// The ID token itself is the session token: the shop API verifies it again.
func (r *IdentityResolver) SessionFromIDToken(ctx context.Context, idToken string) (sessiondom.Session, error) {
	if r == nil || r.verifier == nil {
		return sessiondom.Session{}, ErrVerifierMissing
	}
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return sessiondom.Session{}, ErrEmptyIDToken
	}

	token, err := r.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return sessiondom.Session{}, fmt.Errorf("firebaseauth: verify: %w", err)
	}

	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return sessiondom.Session{}, ErrNoUID
	}
	email := claimString(token.Claims, "email")
	if email == "" {
		return sessiondom.Session{}, ErrNoEmail
	}

	return sessiondom.Session{
		Token: idToken,
		User: &sessiondom.User{
			UID:      uid,
			Name:     claimString(token.Claims, "name"),
			Email:    email,
			Provider: sessiondom.ProviderFirebase,
		},
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if claims == nil {
		return ""
	}
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}
