// Package session manages the bounded per-identity session list:
// creation, liveness checks, activity touches, revocation, and the
// advisory suspicious-activity heuristic. Sessions live inside the
// identity document; the orchestrator persists mutations atomically.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

// ErrNotFound is an exported constant or variable used by the auth engine.
var ErrNotFound = errors.New("session not found")

// ErrExpired is an exported constant or variable used by the auth engine.
var ErrExpired = errors.New("session expired")

const sessionIDBytes = 16

// DeviceInfo is advisory request metadata captured at login. It feeds
// the suspicious-activity heuristic and is never a security boundary.
type DeviceInfo struct {
	IP         string `json:"ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	Browser    string `json:"browser,omitempty"`
	OS         string `json:"os,omitempty"`
	DeviceType string `json:"device_type,omitempty"`
}

// Session is one authenticated device/browser grant. A session is usable
// iff IsActive is true and the expiry has not passed.
type Session struct {
	ID             string     `json:"id"`
	Device         DeviceInfo `json:"device"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	IsActive       bool       `json:"is_active"`
}

// Usable reports whether the session can authorize requests at now.
func (s *Session) Usable(now time.Time) bool {
	return s != nil && s.IsActive && now.Before(s.ExpiresAt)
}

// Manager defines a public type used by homeaze-auth APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	ttl         time.Duration
	maxSessions int
}

// NewManager creates a session Manager with the given session TTL and
// per-identity capacity, substituting defaults for zero values.
func NewManager(ttl time.Duration, maxSessions int) *Manager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if maxSessions <= 0 {
		maxSessions = 5
	}
	return &Manager{ttl: ttl, maxSessions: maxSessions}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// New mints a fresh session for the given device with a 128-bit random
// identifier.
func (m *Manager) New(device DeviceInfo, now time.Time) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:             id,
		Device:         device,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(m.ttl),
		IsActive:       true,
	}, nil
}

// InsertBounded prepends sess to the list and evicts least-recently-active
// entries until the capacity holds. The new session is never evicted.
func (m *Manager) InsertBounded(list []*Session, sess *Session) []*Session {
	out := make([]*Session, 0, len(list)+1)
	out = append(out, sess)
	out = append(out, list...)

	for len(out) > m.maxSessions {
		evict := -1
		for i := 1; i < len(out); i++ {
			if evict == -1 || out[i].LastActivityAt.Before(out[evict].LastActivityAt) {
				evict = i
			}
		}
		out = append(out[:evict], out[evict+1:]...)
	}
	return out
}

// Find returns the session with the given ID, or nil.
func Find(list []*Session, sessionID string) *Session {
	for _, s := range list {
		if s.ID == sessionID {
			return s
		}
	}
	return nil
}

// Validate reports whether a usable session with the given ID exists.
func Validate(list []*Session, sessionID string, now time.Time) bool {
	return Find(list, sessionID).Usable(now)
}

// Touch updates the session's activity timestamp. When the session has
// already passed its expiry it is marked inactive instead and ErrExpired
// is returned; sessions never outlive ExpiresAt.
func Touch(list []*Session, sessionID string, now time.Time) error {
	s := Find(list, sessionID)
	if s == nil || !s.IsActive {
		return ErrNotFound
	}
	if !now.Before(s.ExpiresAt) {
		s.IsActive = false
		return ErrExpired
	}
	s.LastActivityAt = now
	return nil
}

// Revoke removes the session from the list. Revoking an absent session
// is a no-op reported through ErrNotFound.
func Revoke(list []*Session, sessionID string) ([]*Session, error) {
	for i, s := range list {
		if s.ID == sessionID {
			return append(list[:i], list[i+1:]...), nil
		}
	}
	return list, ErrNotFound
}

// RevokeAllExcept removes every session except keepSessionID.
func RevokeAllExcept(list []*Session, keepSessionID string) []*Session {
	out := list[:0]
	for _, s := range list {
		if s.ID == keepSessionID {
			out = append(out, s)
		}
	}
	return out
}

// Active returns the usable sessions in the list.
func Active(list []*Session, now time.Time) []*Session {
	var out []*Session
	for _, s := range list {
		if s.Usable(now) {
			out = append(out, s)
		}
	}
	return out
}

func newSessionID() (string, error) {
	var raw [sessionIDBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
