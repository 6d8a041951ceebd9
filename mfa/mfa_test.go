package mfa

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

func testEngine() *Engine {
	return NewEngine(Config{Issuer: "homeaze-test"})
}

func liveCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("GenerateCodeCustom failed: %v", err)
	}
	return code
}

func enrolled(t *testing.T, e *Engine) (Settings, Enrollment) {
	t.Helper()

	settings, enrollment, err := e.BeginEnrollment("alice@example.com")
	if err != nil {
		t.Fatalf("BeginEnrollment failed: %v", err)
	}

	now := time.Now()
	settings, err = e.ConfirmEnrollment(settings, liveCode(t, settings.Secret, now), now)
	if err != nil {
		t.Fatalf("ConfirmEnrollment failed: %v", err)
	}
	return settings, enrollment
}

func TestBeginEnrollmentShape(t *testing.T) {
	e := testEngine()

	settings, enrollment, err := e.BeginEnrollment("alice@example.com")
	if err != nil {
		t.Fatalf("BeginEnrollment failed: %v", err)
	}

	if settings.Enabled {
		t.Fatal("expected pending settings, not enabled")
	}
	if !settings.Pending() {
		t.Fatal("expected pending state")
	}
	if enrollment.Secret == "" || enrollment.ProvisioningURI == "" {
		t.Fatal("expected secret and provisioning URI")
	}
	if len(enrollment.BackupCodes) != 10 {
		t.Fatalf("expected 10 backup codes, got %d", len(enrollment.BackupCodes))
	}
	if len(settings.BackupCodes) != 10 {
		t.Fatalf("expected 10 stored hashes, got %d", len(settings.BackupCodes))
	}
	for i, code := range enrollment.BackupCodes {
		if code == "" {
			t.Fatalf("backup code %d empty", i)
		}
	}
}

func TestConfirmEnrollmentWrongCode(t *testing.T) {
	e := testEngine()

	settings, _, err := e.BeginEnrollment("alice@example.com")
	if err != nil {
		t.Fatalf("BeginEnrollment failed: %v", err)
	}

	_, err = e.ConfirmEnrollment(settings, "000000", time.Now())
	if !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}
}

func TestConfirmEnrollmentTransitionsToEnabled(t *testing.T) {
	e := testEngine()
	settings, _ := enrolled(t, e)

	if !settings.Enabled {
		t.Fatal("expected enabled after confirm")
	}
	if settings.LastUsedAt == nil {
		t.Fatal("expected last-used timestamp")
	}
}

func TestConfirmWithoutEnrollment(t *testing.T) {
	e := testEngine()

	if _, err := e.ConfirmEnrollment(Settings{}, "123456", time.Now()); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestVerifyTOTPWithDrift(t *testing.T) {
	e := testEngine()
	settings, _ := enrolled(t, e)

	now := time.Now()
	// A code from the previous time step must still verify (skew 1).
	code := liveCode(t, settings.Secret, now.Add(-30*time.Second))
	if _, err := e.VerifyTOTP(settings, code, now); err != nil {
		t.Fatalf("expected previous-window code to verify, got %v", err)
	}
}

func TestVerifyTOTPRejectsStaleCode(t *testing.T) {
	e := testEngine()
	settings, _ := enrolled(t, e)

	now := time.Now()
	code := liveCode(t, settings.Secret, now.Add(-5*time.Minute))
	if _, err := e.VerifyTOTP(settings, code, now); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid for stale code, got %v", err)
	}
}

func TestBackupCodeSingleUse(t *testing.T) {
	e := testEngine()
	settings, enrollment := enrolled(t, e)

	now := time.Now()
	code := enrollment.BackupCodes[3]

	settings, err := e.ConsumeBackupCode(settings, code, now)
	if err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if !settings.BackupCodes[3].Used || settings.BackupCodes[3].UsedAt == nil {
		t.Fatal("expected matched code to be marked used")
	}

	if _, err := e.ConsumeBackupCode(settings, code, now); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected second consume to fail with ErrCodeInvalid, got %v", err)
	}
}

func TestBackupCodeNormalization(t *testing.T) {
	e := testEngine()
	settings, enrollment := enrolled(t, e)

	// Lowercase input with surrounding whitespace still matches.
	code := " " + strings.ToLower(enrollment.BackupCodes[0]) + " "
	if _, err := e.ConsumeBackupCode(settings, code, time.Now()); err != nil {
		t.Fatalf("expected normalized code to match, got %v", err)
	}
}

func TestBackupCodeUnknownRejected(t *testing.T) {
	e := testEngine()
	settings, _ := enrolled(t, e)

	if _, err := e.ConsumeBackupCode(settings, "NOTACODE42", time.Now()); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}
}

func TestDisableClearsEverything(t *testing.T) {
	e := testEngine()
	settings, _ := enrolled(t, e)

	settings = e.Disable(settings)
	if settings.Enabled || settings.Secret != "" || len(settings.BackupCodes) != 0 {
		t.Fatalf("expected cleared settings, got %+v", settings)
	}
}

func TestVerifyTOTPWhenDisabled(t *testing.T) {
	e := testEngine()

	if _, err := e.VerifyTOTP(Settings{}, "123456", time.Now()); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}
