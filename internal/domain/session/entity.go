// internal/domain/session/entity.go
package session

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/common"
)

var ErrInvalidSession = errors.New("session: invalid")

// Provider tags how the account signs in.
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderFirebase Provider = "firebase"
)

// User is the identity part of a session.
//   - ID  : numeric account id issued by the shop API (0 = none)
//   - UID : federated-auth subject id (Firebase uid)
type User struct {
	ID       int64    `json:"id,omitempty"`
	UID      string   `json:"uid,omitempty"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email"`
	Provider Provider `json:"provider,omitempty"`
}

func (u User) IsFederated() bool {
	return u.Provider != "" && u.Provider != ProviderPassword
}

// Session is token + user as persisted under the "session" key.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Valid reports whether s may select an authenticated partition:
// a token, an email, and at least one of uid / numeric id.
// An email-only record is rejected, so a partial write cannot impersonate an account.
// A JWT-shaped token whose exp has passed is also rejected.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.User == nil {
		return false
	}
	if strings.TrimSpace(s.Token) == "" {
		return false
	}
	if strings.TrimSpace(s.User.Email) == "" {
		return false
	}
	if strings.TrimSpace(s.User.UID) == "" && s.User.ID <= 0 {
		return false
	}
	return !tokenExpired(s.Token, now)
}

// tokenExpired looks at the exp claim without verifying the signature:
// the API remains the authority, this only avoids using a session we know is dead.
// Opaque (non-JWT) tokens never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.Time.After(now)
}

// storedSession tolerates an id sent as string or number.
type storedSession struct {
	Token string `json:"token"`
	User  *struct {
		ID       common.FlexInt `json:"id"`
		UID      string         `json:"uid"`
		Name     string         `json:"name"`
		Email    string         `json:"email"`
		Provider string         `json:"provider"`
	} `json:"user"`
}

// Decode parses a persisted session. Malformed data returns (nil, false).
func Decode(raw []byte) (*Session, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var doc storedSession
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	s := &Session{Token: strings.TrimSpace(doc.Token)}
	if doc.User != nil {
		s.User = &User{
			ID:       doc.User.ID.Int64(),
			UID:      strings.TrimSpace(doc.User.UID),
			Name:     strings.TrimSpace(doc.User.Name),
			Email:    strings.TrimSpace(doc.User.Email),
			Provider: Provider(strings.TrimSpace(doc.User.Provider)),
		}
	}
	return s, true
}

func Encode(s Session) ([]byte, error) {
	return json.Marshal(s)
}

// Fingerprint identifies the owner of a login. A token refresh for the same owner keeps
// the same fingerprint.
func (s *Session) Fingerprint() string {
	if s == nil || s.User == nil {
		return ""
	}
	return string(KeyFor(*s.User))
}
