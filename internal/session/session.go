// Package session tracks the authenticated identity and its sync
// entitlement. It is the eligibility gate consulted before any
// reconciliation activity.
package session

import (
	"context"
	"sync"
	"time"
)

// Session holds the current identity and sync flags. All methods are
// safe for concurrent use.
type Session struct {
	mu          sync.RWMutex
	ownerID     string
	entitled    bool
	syncEnabled bool
	refreshedAt time.Time
}

// New creates an empty, signed-out session.
func New() *Session {
	return &Session{}
}

// SetIdentity records a sign-in (or sign-out with empty ownerID) and
// whether the identity's plan entitles it to cloud sync.
func (s *Session) SetIdentity(ownerID string, entitled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerID = ownerID
	s.entitled = entitled
}

// SetSyncEnabled records the user's cloud-sync preference.
func (s *Session) SetSyncEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnabled = enabled
}

// OwnerID returns the authenticated user id, empty when signed out.
func (s *Session) OwnerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID
}

// SyncEnabled reports the cloud-sync preference.
func (s *Session) SyncEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncEnabled
}

// Entitled reports whether the identity's plan includes cloud sync.
func (s *Session) Entitled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entitled
}

// RefreshCredentials rotates short-lived credentials for the current
// identity. It deliberately performs no sync work; the coordinator's
// interval timer calls it on its own schedule.
func (s *Session) RefreshCredentials(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownerID == "" {
		return nil
	}
	// Token rotation is handled by the native auth layer; record when it
	// was last requested.
	s.refreshedAt = time.Now()
	return nil
}

// LastRefresh returns when credentials were last rotated.
func (s *Session) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}
