package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func enrollAndConfirm(t *testing.T, f *engineFixture, identityID string) []string {
	t.Helper()

	enrollment, err := f.engine.EnrollMFA(context.Background(), identityID)
	if err != nil {
		t.Fatalf("EnrollMFA failed: %v", err)
	}
	if enrollment.Secret == "" || enrollment.ProvisioningURI == "" {
		t.Fatal("expected secret and provisioning URI")
	}
	if len(enrollment.BackupCodes) != 10 {
		t.Fatalf("expected 10 backup codes, got %d", len(enrollment.BackupCodes))
	}

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if err := f.engine.ConfirmMFA(context.Background(), identityID, code); err != nil {
		t.Fatalf("ConfirmMFA failed: %v", err)
	}
	return enrollment.BackupCodes
}

func mfaSecret(t *testing.T, f *engineFixture, identityID string) string {
	t.Helper()

	doc, err := f.engine.store.Load(context.Background(), identityID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return doc.MFA.Secret
}

func TestMFAEnrollConfirmAndChallenge(t *testing.T) {
	f := newTestEngine(t)
	ident := f.register(t)
	enrollAndConfirm(t, f, ident.ID)

	// Enrollment material is handed to the notifier for out-of-band
	// delivery.
	enrollNote := f.waitNotification(t, NotifyMFAEnrollment)
	if enrollNote.Metadata["secret"] == "" || enrollNote.Metadata["provisioning_uri"] == "" {
		t.Fatalf("expected enrollment material in the notification, got %+v", enrollNote.Metadata)
	}

	res, err := f.engine.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Status != LoginMFARequired {
		t.Fatalf("expected mfa_required, got %s", res.Status)
	}
	if res.PendingToken == "" || res.AccessToken != "" {
		t.Fatal("expected only a pending token before MFA verification")
	}

	// Pending tokens are scoped to MFA verification.
	if _, err := f.engine.AuthenticateRequest(context.Background(), res.PendingToken); !errors.Is(err, ErrMFARequired) {
		t.Fatalf("expected ErrMFARequired for pending token, got %v", err)
	}
	if _, err := f.engine.Refresh(context.Background(), res.PendingToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for pending token on refresh, got %v", err)
	}

	code, err := totp.GenerateCode(mfaSecret(t, f, ident.ID), time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	final, err := f.engine.VerifyMFAChallenge(context.Background(), res.PendingToken, code)
	if err != nil {
		t.Fatalf("VerifyMFAChallenge failed: %v", err)
	}
	if final.Status != LoginAuthenticated {
		t.Fatalf("expected authenticated status, got %s", final.Status)
	}
	if final.SessionID != res.SessionID {
		t.Fatal("verification must complete the session issued at login")
	}

	if _, err := f.engine.AuthenticateRequest(context.Background(), final.AccessToken); err != nil {
		t.Fatalf("access token rejected after MFA: %v", err)
	}

	f.waitNotification(t, NotifyMFAEnabled)
}

func TestMFABackupCodeSingleUse(t *testing.T) {
	f := newTestEngine(t)
	ident := f.register(t)
	codes := enrollAndConfirm(t, f, ident.ID)

	res, err := f.engine.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	final, err := f.engine.VerifyMFAChallenge(context.Background(), res.PendingToken, codes[0])
	if err != nil {
		t.Fatalf("backup code rejected: %v", err)
	}
	if final.Status != LoginAuthenticated {
		t.Fatalf("expected authenticated status, got %s", final.Status)
	}

	res2, err := f.engine.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if _, err := f.engine.VerifyMFAChallenge(context.Background(), res2.PendingToken, codes[0]); !errors.Is(err, ErrMFAInvalid) {
		t.Fatalf("expected spent backup code to be rejected, got %v", err)
	}

	// A different code from the set still works.
	if _, err := f.engine.VerifyMFAChallenge(context.Background(), res2.PendingToken, codes[1]); err != nil {
		t.Fatalf("unspent backup code rejected: %v", err)
	}

	if f.engine.MetricsSnapshot().Counters[MetricBackupCodeUsed] != 2 {
		t.Fatal("expected backup code usage to be counted twice")
	}
}

func TestMFAFailuresFoldIntoLockout(t *testing.T) {
	f := newTestEngine(t)
	ident := f.register(t)
	enrollAndConfirm(t, f, ident.ID)

	res, err := f.engine.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		if _, err := f.engine.VerifyMFAChallenge(context.Background(), res.PendingToken, "000000"); !errors.Is(err, ErrMFAInvalid) {
			t.Fatalf("attempt %d: expected ErrMFAInvalid, got %v", i+1, err)
		}
	}
	if _, err := f.engine.VerifyMFAChallenge(context.Background(), res.PendingToken, "000000"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected fifth bad proof to lock the account, got %v", err)
	}

	// The lock also blocks the password path.
	if _, err := f.engine.Login(context.Background(), testEmail, testPassword); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

func TestMFAEnrollmentEdges(t *testing.T) {
	f := newTestEngine(t)
	ident := f.register(t)

	if err := f.engine.ConfirmMFA(context.Background(), ident.ID, "000000"); !errors.Is(err, ErrMFANotPending) {
		t.Fatalf("expected ErrMFANotPending before enrollment, got %v", err)
	}

	enrollAndConfirm(t, f, ident.ID)

	if _, err := f.engine.EnrollMFA(context.Background(), ident.ID); !errors.Is(err, ErrMFAAlreadyEnabled) {
		t.Fatalf("expected ErrMFAAlreadyEnabled, got %v", err)
	}

	// Confirm failures before enablement do not advance the lockout counter.
	f2 := newTestEngine(t)
	ident2 := f2.register(t)
	if _, err := f2.engine.EnrollMFA(context.Background(), ident2.ID); err != nil {
		t.Fatalf("EnrollMFA failed: %v", err)
	}
	for i := 0; i < 6; i++ {
		if err := f2.engine.ConfirmMFA(context.Background(), ident2.ID, "000000"); !errors.Is(err, ErrMFAInvalid) {
			t.Fatalf("expected ErrMFAInvalid, got %v", err)
		}
	}
	if _, err := f2.engine.Login(context.Background(), testEmail, testPassword); err != nil {
		t.Fatalf("enrollment confirm failures must not lock the account: %v", err)
	}
}

func TestDisableMFA(t *testing.T) {
	f := newTestEngine(t)
	ident := f.register(t)

	if err := f.engine.DisableMFA(context.Background(), ident.ID, testPassword, ""); !errors.Is(err, ErrMFANotEnabled) {
		t.Fatalf("expected ErrMFANotEnabled, got %v", err)
	}

	enrollAndConfirm(t, f, ident.ID)

	if err := f.engine.DisableMFA(context.Background(), ident.ID, "wrong-password", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// A supplied code must be a live proof.
	if err := f.engine.DisableMFA(context.Background(), ident.ID, testPassword, "000000"); !errors.Is(err, ErrMFAInvalid) {
		t.Fatalf("expected ErrMFAInvalid for bad code, got %v", err)
	}
	code, err := totp.GenerateCode(mfaSecret(t, f, ident.ID), time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if err := f.engine.DisableMFA(context.Background(), ident.ID, testPassword, code); err != nil {
		t.Fatalf("DisableMFA failed: %v", err)
	}

	res, err := f.engine.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Status != LoginAuthenticated {
		t.Fatalf("expected direct authentication after disable, got %s", res.Status)
	}

	f.waitNotification(t, NotifyMFADisabled)
}
