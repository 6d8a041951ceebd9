package auth

import (
	"context"
	"errors"
	"time"

	"github.com/krishshahi/homeaze-auth/identity"
	"github.com/krishshahi/homeaze-auth/mfa"
	"github.com/krishshahi/homeaze-auth/session"
	"github.com/krishshahi/homeaze-auth/token"
)

// EnrollMFA describes the enrollmfa operation and its observable behavior.
//
// EnrollMFA may return an error when input validation, dependency calls, or security checks fail.
// EnrollMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) EnrollMFA(ctx context.Context, identityID string) (*mfa.Enrollment, error) {
	if e == nil || e.mfa == nil {
		return nil, ErrEngineNotReady
	}

	ident, err := e.store.Load(ctx, identityID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if ident.MFA.Enabled {
		return nil, ErrMFAAlreadyEnabled
	}

	settings, enrollment, err := e.mfa.BeginEnrollment(ident.Email)
	if err != nil {
		return nil, err
	}

	updated, err := e.updateIdentity(ctx, identityID, func(doc *identity.Identity) error {
		if doc.MFA.Enabled {
			return mfa.ErrAlreadyEnabled
		}
		doc.MFA = settings
		return nil
	})
	if err != nil {
		if errors.Is(err, mfa.ErrAlreadyEnabled) {
			return nil, ErrMFAAlreadyEnabled
		}
		return nil, mapStoreError(err)
	}

	// Enrollment material goes out through the notification channel for
	// out-of-band delivery; it is never persisted in plaintext.
	e.emit(ctx, NotifyMFAEnrollment, updated, "", map[string]string{
		"secret":           enrollment.Secret,
		"provisioning_uri": enrollment.ProvisioningURI,
	})

	return &enrollment, nil
}

// ConfirmMFA describes the confirmmfa operation and its observable behavior.
//
// ConfirmMFA may return an error when input validation, dependency calls, or security checks fail.
// ConfirmMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmMFA(ctx context.Context, identityID, code string) error {
	if e == nil || e.mfa == nil {
		return ErrEngineNotReady
	}

	now := time.Now()
	updated, err := e.updateIdentity(ctx, identityID, func(doc *identity.Identity) error {
		next, err := e.mfa.ConfirmEnrollment(doc.MFA, code, now)
		if err != nil {
			return err
		}
		doc.MFA = next
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, mfa.ErrCodeInvalid):
			e.metricInc(MetricMFAFailure)
			return ErrMFAInvalid
		case errors.Is(err, mfa.ErrNotEnrolled):
			return ErrMFANotPending
		case errors.Is(err, mfa.ErrAlreadyEnabled):
			return ErrMFAAlreadyEnabled
		}
		return mapStoreError(err)
	}

	e.metricInc(MetricMFASuccess)
	e.emit(ctx, NotifyMFAEnabled, updated, "", nil)
	return nil
}

// VerifyMFAChallenge describes the verifymfachallenge operation and its observable behavior.
//
// VerifyMFAChallenge may return an error when input validation, dependency calls, or security checks fail.
// VerifyMFAChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyMFAChallenge(ctx context.Context, pendingToken, code string) (*LoginResult, error) {
	if e == nil || e.mfa == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseKind(pendingToken, token.KindPendingMFA)
	if err != nil {
		return nil, mapTokenError(err)
	}

	now := time.Now()

	ident, err := e.store.Load(ctx, claims.IdentityID())
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, mapStoreError(err)
	}

	// Repeated bad MFA proofs count against the same lockout budget as
	// bad passwords.
	if e.lockout.Locked(ident.Lockout, now) {
		e.metricInc(MetricLoginLocked)
		return nil, lockedError(e.lockout.Remaining(ident.Lockout, now))
	}
	if statusErr := statusToError(ident.Status); statusErr != nil {
		return nil, statusErr
	}
	if !ident.MFA.Enabled {
		return nil, ErrMFANotEnabled
	}
	if !session.Validate(ident.Sessions, claims.SessionID, now) {
		return nil, ErrSessionInvalid
	}

	usedBackup := false
	updated, err := e.updateIdentity(ctx, ident.ID, func(doc *identity.Identity) error {
		usedBackup = false
		next, err := e.mfa.VerifyTOTP(doc.MFA, code, now)
		if err == nil {
			doc.MFA = next
			doc.Lockout = e.lockout.RecordSuccess(doc.Lockout)
			return nil
		}
		if !errors.Is(err, mfa.ErrCodeInvalid) {
			return err
		}

		next, err = e.mfa.ConsumeBackupCode(doc.MFA, code, now)
		if err != nil {
			return err
		}
		usedBackup = true
		doc.MFA = next
		doc.Lockout = e.lockout.RecordSuccess(doc.Lockout)
		return nil
	})
	if err != nil {
		if errors.Is(err, mfa.ErrCodeInvalid) {
			return nil, e.recordAuthFailure(ctx, ident.ID, ErrMFAInvalid, MetricMFAFailure)
		}
		if errors.Is(err, mfa.ErrNotEnrolled) {
			return nil, ErrMFANotEnabled
		}
		return nil, mapStoreError(err)
	}

	pair, err := e.issueTokenPair(updated.ID, claims.SessionID, updated.Role)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricMFASuccess)
	if usedBackup {
		e.metricInc(MetricBackupCodeUsed)
	}
	e.metricInc(MetricLoginSuccess)
	e.emit(ctx, NotifyNewLogin, updated, claims.SessionID, nil)

	return &LoginResult{
		Status:       LoginAuthenticated,
		IdentityID:   updated.ID,
		SessionID:    claims.SessionID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// DisableMFA describes the disablemfa operation and its observable behavior.
//
// DisableMFA may return an error when input validation, dependency calls, or security checks fail.
// DisableMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) DisableMFA(ctx context.Context, identityID, pass, code string) error {
	if e == nil || e.mfa == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	ident, err := e.store.Load(ctx, identityID)
	if err != nil {
		return mapStoreError(err)
	}
	if !ident.MFA.Enabled {
		return ErrMFANotEnabled
	}

	ok, verr := e.hasher.Verify(pass, ident.CredentialHash)
	if verr != nil || !ok {
		return ErrInvalidCredentials
	}

	// An empty code skips the second-factor check; a supplied code must
	// be a live TOTP proof.
	if code != "" {
		if _, terr := e.mfa.VerifyTOTP(ident.MFA, code, time.Now()); terr != nil {
			return ErrMFAInvalid
		}
	}

	updated, err := e.updateIdentity(ctx, identityID, func(doc *identity.Identity) error {
		doc.MFA = e.mfa.Disable(doc.MFA)
		return nil
	})
	if err != nil {
		return mapStoreError(err)
	}

	e.emit(ctx, NotifyMFADisabled, updated, "", nil)
	return nil
}
