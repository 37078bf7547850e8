package firebaseauth

import (
	"context"
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessiondom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/session"
)

type fakeVerifier struct {
	token *fbauth.Token
	err   error
	got   string
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	f.got = idToken
	return f.token, f.err
}

func TestSessionFromIDToken(t *testing.T) {
	v := &fakeVerifier{token: &fbauth.Token{
		UID:    "fb-123",
		Claims: map[string]interface{}{"email": " ana@example.com ", "name": "Ana"},
	}}
	s, err := NewIdentityResolver(v).SessionFromIDToken(context.Background(), " id-token ")
	require.NoError(t, err)

	assert.Equal(t, "id-token", v.got)
	assert.Equal(t, "id-token", s.Token)
	require.NotNil(t, s.User)
	assert.Equal(t, "fb-123", s.User.UID)
	assert.Equal(t, "ana@example.com", s.User.Email)
	assert.Equal(t, "Ana", s.User.Name)
	assert.Equal(t, sessiondom.ProviderFirebase, s.User.Provider)
	assert.Equal(t, sessiondom.OwnerKey("federated:fb-123"), sessiondom.KeyFor(*s.User))
}

func TestSessionFromIDToken_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewIdentityResolver(nil).SessionFromIDToken(ctx, "x")
	assert.ErrorIs(t, err, ErrVerifierMissing)

	_, err = NewIdentityResolver(&fakeVerifier{}).SessionFromIDToken(ctx, " ")
	assert.ErrorIs(t, err, ErrEmptyIDToken)

	boom := errors.New("expired")
	_, err = NewIdentityResolver(&fakeVerifier{err: boom}).SessionFromIDToken(ctx, "x")
	assert.ErrorIs(t, err, boom)

	_, err = NewIdentityResolver(&fakeVerifier{token: &fbauth.Token{Claims: map[string]interface{}{"email": "a@b.mx"}}}).
		SessionFromIDToken(ctx, "x")
	assert.ErrorIs(t, err, ErrNoUID)

	_, err = NewIdentityResolver(&fakeVerifier{token: &fbauth.Token{UID: "u"}}).SessionFromIDToken(ctx, "x")
	assert.ErrorIs(t, err, ErrNoEmail)
}
