package oauth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleProvider defines a public type used by oauth APIs.
//
// GoogleProvider instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GoogleProvider struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleProvider returns a Provider that verifies Google ID tokens
// against the given OAuth client ID.
func NewGoogleProvider(clientID string) *GoogleProvider {
	return &GoogleProvider{
		clientID: clientID,
		validate: idtoken.Validate,
	}
}

// Exchange describes the exchange operation and its observable behavior.
//
// Exchange may return an error when input validation, dependency calls, or security checks fail.
// Exchange does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *GoogleProvider) Exchange(ctx context.Context, credential string) (Profile, error) {
	if credential == "" {
		return Profile{}, ErrTokenInvalid
	}

	payload, err := p.validate(ctx, credential, p.clientID)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	profile := Profile{
		ProviderID: payload.Subject,
	}
	if email, ok := payload.Claims["email"].(string); ok {
		profile.Email = email
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok {
		profile.EmailVerified = verified
	}
	if name, ok := payload.Claims["name"].(string); ok {
		profile.DisplayName = name
	}

	if profile.ProviderID == "" || profile.Email == "" {
		return Profile{}, ErrTokenInvalid
	}

	return profile, nil
}
