// Package oauth defines the provider abstraction used for social login.
//
// A Provider exchanges a provider-issued credential (typically an ID token
// obtained by the client application) for a normalized user profile. The
// auth engine then links or creates a local identity from that profile.
package oauth

import (
	"context"
	"errors"
)

// ErrTokenInvalid is an exported constant or variable used by oauth providers.
var ErrTokenInvalid = errors.New("provider token invalid")

// Profile defines a public type used by oauth APIs.
//
// Profile instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Profile struct {
	ProviderID    string
	Email         string
	EmailVerified bool
	DisplayName   string
}

// Provider defines a public type used by oauth APIs.
//
// Provider instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Provider interface {
	// Exchange validates the provider credential and returns the profile
	// it asserts. Implementations must return ErrTokenInvalid (possibly
	// wrapped) for credentials that fail verification.
	Exchange(ctx context.Context, credential string) (Profile, error)
}
