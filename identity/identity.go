// Package identity defines the per-account aggregate document and the
// persistence contract it is stored under. The document bundles the
// credential hash, lockout counters, bounded session list, and MFA
// configuration into a single record so the store can update it
// atomically; concurrent read-modify-write cycles are serialized through
// optimistic concurrency on Version.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/krishshahi/homeaze-auth/lockout"
	"github.com/krishshahi/homeaze-auth/mfa"
	"github.com/krishshahi/homeaze-auth/session"
)

// ErrNotFound is an exported constant or variable used by the auth engine.
var ErrNotFound = errors.New("identity not found")

// ErrConflict is returned by Save when the stored version advanced since
// the caller loaded the document. Callers retry the whole
// load-modify-save cycle.
var ErrConflict = errors.New("identity version conflict")

// ErrExists is an exported constant or variable used by the auth engine.
var ErrExists = errors.New("identity already exists")

// Status is the account lifecycle state.
type Status string

const (
	// StatusActive is an exported constant or variable used by the auth engine.
	StatusActive Status = "active"
	// StatusInactive is an exported constant or variable used by the auth engine.
	StatusInactive Status = "inactive"
	// StatusSuspended is an exported constant or variable used by the auth engine.
	StatusSuspended Status = "suspended"
)

// Verification tracks out-of-band contact verification flags.
type Verification struct {
	EmailVerified bool `json:"email_verified"`
	PhoneVerified bool `json:"phone_verified"`
}

// OAuthLink records a linked third-party provider account.
type OAuthLink struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
}

// Identity is the aggregate persisted per registered account. The
// credential hash is opaque and never exposed through the engine.
type Identity struct {
	ID             string             `json:"id"`
	Email          string             `json:"email"`
	CredentialHash string             `json:"credential_hash,omitempty"`
	Role           string             `json:"role"`
	Status         Status             `json:"status"`
	Lockout        lockout.State      `json:"lockout"`
	Sessions       []*session.Session `json:"sessions,omitempty"`
	MFA            mfa.Settings       `json:"mfa"`
	Verification   Verification       `json:"verification"`
	OAuthLinks     []OAuthLink        `json:"oauth_links,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	LastLoginAt    *time.Time         `json:"last_login_at,omitempty"`

	// Version is the optimistic-concurrency counter managed by the
	// store. Zero means the document has never been persisted.
	Version uint64 `json:"-"`
}

// LinkedProvider returns the linked provider ID, if any.
func (i *Identity) LinkedProvider(provider string) (string, bool) {
	for _, l := range i.OAuthLinks {
		if l.Provider == provider {
			return l.ProviderID, true
		}
	}
	return "", false
}

// Store is the persistence contract for identity documents. Save must
// implement compare-and-swap on Version and return ErrConflict on a
// mismatch; a naive read-then-write is not an acceptable implementation.
type Store interface {
	Load(ctx context.Context, id string) (*Identity, error)
	LoadByEmail(ctx context.Context, email string) (*Identity, error)
	Create(ctx context.Context, ident *Identity) error
	Save(ctx context.Context, ident *Identity) error
	Delete(ctx context.Context, id string) error
}
