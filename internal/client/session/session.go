// Package session holds the per-process state shared by the sync core components.
package session

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zone-sharing/internal/model"
)

// Session is created once per process and passed to every component that needs
// the caller's identity or home zone. Nothing in it survives a restart.
type Session struct {
	accountID uuid.UUID

	mu          sync.RWMutex
	home        *model.Zone
	displayName string
}

// New creates a session for the given account.
func New(accountID uuid.UUID) *Session {
	return &Session{accountID: accountID}
}

// IdentityResolver is the part of remote.Store needed to open a session.
type IdentityResolver interface {
	CallerAccountID(ctx context.Context) (uuid.UUID, error)
}

// Open resolves the caller's account id and starts a session for it.
func Open(ctx context.Context, r IdentityResolver) (*Session, error) {
	id, err := r.CallerAccountID(ctx)
	if err != nil {
		return nil, err
	}
	return New(id), nil
}

// AccountID returns the caller's account id.
func (s *Session) AccountID() uuid.UUID { return s.accountID }

// HomeZone returns the resolved home zone, if any.
func (s *Session) HomeZone() (model.Zone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.home == nil {
		return model.Zone{}, false
	}
	return *s.home, true
}

// SetHomeZone records the resolved home zone.
func (s *Session) SetHomeZone(z model.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.home = &z
}

// AttachShare stamps the home zone with a grant reference. It is a no-op when
// the home zone is unresolved or the grant belongs to another zone.
func (s *Session) AttachShare(zone model.ZoneID, shareID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.home == nil || s.home.ID != zone {
		return
	}
	s.home.ShareID = shareID
}

// DisplayName returns the cached display name.
func (s *Session) DisplayName() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayName, s.displayName != ""
}

// SetDisplayName caches the display name.
func (s *Session) SetDisplayName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayName = name
}

// NameResolver is the part of remote.Store the session needs to resolve names.
type NameResolver interface {
	DisplayName(ctx context.Context, id uuid.UUID) (string, bool, error)
}

// ResolveDisplayName returns the cached display name, asking the store on first
// use. Accounts without a display name are named by their account id.
func (s *Session) ResolveDisplayName(ctx context.Context, r NameResolver) (string, error) {
	if name, ok := s.DisplayName(); ok {
		return name, nil
	}
	name, ok, err := r.DisplayName(ctx, s.accountID)
	if err != nil {
		return "", err
	}
	if !ok || name == "" {
		name = s.accountID.String()
	}
	s.SetDisplayName(name)
	return name, nil
}
