// internal/application/usecase/session_usecase.go
package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	sessiondom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/session"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/localstore"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/platform/events"
)

// SessionUsecase owns the "session" entry and derives the ownership key from it.
type SessionUsecase struct {
	store localstore.Store
	bus   *events.Bus
	clock Clock
	log   *zap.Logger
}

func NewSessionUsecase(store localstore.Store, bus *events.Bus, log *zap.Logger) *SessionUsecase {
	return NewSessionUsecaseWithClock(store, bus, systemClock{}, log)
}

// NewSessionUsecaseWithClock is useful for tests.
func NewSessionUsecaseWithClock(store localstore.Store, bus *events.Bus, clock Clock, log *zap.Logger) *SessionUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionUsecase{store: store, bus: bus, clock: clock, log: log.Named("session")}
}

// Current returns the stored session when it is valid.
// Read errors and malformed data both mean "no session".
func (uc *SessionUsecase) Current(ctx context.Context) (*sessiondom.Session, bool) {
	raw, ok, err := uc.store.Get(ctx, localstore.KeySession)
	if err != nil {
		uc.log.Warn("read session failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	s, ok := sessiondom.Decode(raw)
	if !ok || !s.Valid(uc.clock.Now()) {
		return nil, false
	}
	return s, true
}

// Resolve returns the active ownership key; guest without a valid session.
func (uc *SessionUsecase) Resolve(ctx context.Context) sessiondom.OwnerKey {
	s, ok := uc.Current(ctx)
	if !ok {
		return sessiondom.Guest
	}
	return sessiondom.KeyFor(*s.User)
}

// SetSession persists s and publishes auth.changed before returning.
func (uc *SessionUsecase) SetSession(ctx context.Context, s sessiondom.Session) error {
	if !s.Valid(uc.clock.Now()) {
		return sessiondom.ErrInvalidSession
	}
	raw, err := sessiondom.Encode(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := uc.store.Set(ctx, localstore.KeySession, raw); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}

	key := sessiondom.KeyFor(*s.User)
	uc.log.Info("session set", zap.String("owner", key.String()), zap.String("provider", string(s.User.Provider)))
	uc.bus.Publish(events.Event{Topic: events.TopicAuthChanged, Key: key.String()})
	return nil
}

// ClearSession removes the session (logout) and publishes auth.changed.
func (uc *SessionUsecase) ClearSession(ctx context.Context) error {
	if err := uc.store.Delete(ctx, localstore.KeySession); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	uc.log.Info("session cleared")
	uc.bus.Publish(events.Event{Topic: events.TopicAuthChanged, Key: sessiondom.Guest.String()})
	return nil
}
