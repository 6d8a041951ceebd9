package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/krishshahi/homeaze-auth/identity"
	"github.com/krishshahi/homeaze-auth/oauth"
)

// LoginWithProvider describes the loginwithprovider operation and its observable behavior.
//
// LoginWithProvider may return an error when input validation, dependency calls, or security checks fail.
// LoginWithProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LoginWithProvider(ctx context.Context, providerName, credential string) (*LoginResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	provider, ok := e.providers[strings.ToLower(providerName)]
	if !ok {
		return nil, ErrProviderUnknown
	}

	profile, err := provider.Exchange(ctx, credential)
	if err != nil {
		e.metricInc(MetricOAuthLoginFailure)
		if errors.Is(err, oauth.ErrTokenInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrProviderToken, err)
		}
		return nil, err
	}

	now := time.Now()
	name := strings.ToLower(providerName)

	ident, err := e.store.LoadByEmail(ctx, strings.ToLower(profile.Email))
	switch {
	case err == nil:
		// Lockout guards the password oracle; a verified provider
		// assertion is not subject to it. Status gating still applies.
		if statusErr := statusToError(ident.Status); statusErr != nil {
			e.metricInc(MetricOAuthLoginFailure)
			return nil, statusErr
		}
		if linkedID, linked := ident.LinkedProvider(name); linked {
			if linkedID != profile.ProviderID {
				e.metricInc(MetricOAuthLoginFailure)
				return nil, fmt.Errorf("%w: subject mismatch", ErrProviderToken)
			}
		} else {
			if _, err := e.updateIdentity(ctx, ident.ID, func(doc *identity.Identity) error {
				if _, already := doc.LinkedProvider(name); already {
					return nil
				}
				doc.OAuthLinks = append(doc.OAuthLinks, identity.OAuthLink{
					Provider:   name,
					ProviderID: profile.ProviderID,
				})
				if profile.EmailVerified {
					doc.Verification.EmailVerified = true
				}
				return nil
			}); err != nil {
				return nil, mapStoreError(err)
			}
		}

	case errors.Is(err, identity.ErrNotFound):
		ident = &identity.Identity{
			ID:     uuid.NewString(),
			Email:  strings.ToLower(profile.Email),
			Role:   "customer",
			Status: identity.StatusActive,
			Verification: identity.Verification{
				EmailVerified: profile.EmailVerified,
			},
			OAuthLinks: []identity.OAuthLink{{
				Provider:   name,
				ProviderID: profile.ProviderID,
			}},
			CreatedAt: now,
		}
		if err := e.store.Create(ctx, ident); err != nil {
			return nil, mapStoreError(err)
		}
		e.metricInc(MetricRegisterSuccess)

	default:
		return nil, mapStoreError(err)
	}

	result, err := e.establishSession(ctx, ident.ID, now, "")
	if err != nil {
		e.metricInc(MetricOAuthLoginFailure)
		return nil, err
	}

	e.metricInc(MetricOAuthLoginSuccess)
	return result, nil
}
