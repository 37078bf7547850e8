// internal/domain/session/owner_key.go
package session

import (
	"strconv"
	"strings"
	"time"
)

// OwnerKey selects the active cart partition.
type OwnerKey string

const Guest OwnerKey = "guest"

func (k OwnerKey) IsGuest() bool { return k == "" || k == Guest }

func (k OwnerKey) String() string { return string(k) }

// KeyFor derives the key of a user record: federated uid, then numeric id, then email.
func KeyFor(u User) OwnerKey {
	if uid := strings.TrimSpace(u.UID); uid != "" {
		return OwnerKey("federated:" + uid)
	}
	if u.ID > 0 {
		return OwnerKey("account:" + strconv.FormatInt(u.ID, 10))
	}
	if email := strings.ToLower(strings.TrimSpace(u.Email)); email != "" {
		return OwnerKey("email:" + email)
	}
	return Guest
}

// ResolveKey maps the stored session (possibly nil) to an owner key.
func ResolveKey(s *Session, now time.Time) OwnerKey {
	if !s.Valid(now) {
		return Guest
	}
	return KeyFor(*s.User)
}
