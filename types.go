package auth

import (
	"time"

	"github.com/krishshahi/homeaze-auth/session"
)

// LoginStatus defines a public type used by auth APIs.
//
// LoginStatus instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginStatus string

const (
	// LoginAuthenticated is an exported constant or variable used by the auth engine.
	LoginAuthenticated LoginStatus = "authenticated"
	// LoginMFARequired is an exported constant or variable used by the auth engine.
	LoginMFARequired LoginStatus = "mfa_required"
)

// LoginResult defines a public type used by auth APIs.
//
// LoginResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginResult struct {
	Status     LoginStatus
	IdentityID string
	SessionID  string

	// AccessToken and RefreshToken are set only when Status is
	// LoginAuthenticated.
	AccessToken  string
	RefreshToken string

	// PendingToken is set only when Status is LoginMFARequired. It is
	// accepted exclusively by VerifyMFAChallenge.
	PendingToken string

	Activity session.ActivityReport
}

// TokenPair defines a public type used by auth APIs.
//
// TokenPair instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult defines a public type used by auth APIs.
//
// AuthResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthResult struct {
	IdentityID string
	SessionID  string
	Role       string
}

// RegisterInput defines a public type used by auth APIs.
//
// RegisterInput instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

// SessionView defines a public type used by auth APIs.
//
// SessionView instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionView struct {
	SessionID      string
	Device         session.DeviceInfo
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	Current        bool
}
