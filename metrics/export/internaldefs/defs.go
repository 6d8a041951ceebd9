package internaldefs

import (
	auth "github.com/krishshahi/homeaze-auth"
)

// CounterDef defines a public type used by auth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   auth.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by auth APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   auth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the auth engine.
var CounterDefs = []CounterDef{
	{ID: auth.MetricLoginSuccess, Name: "homeaze_auth_login_success_total", Help: "Successful login attempts."},
	{ID: auth.MetricLoginFailure, Name: "homeaze_auth_login_failure_total", Help: "Failed login attempts."},
	{ID: auth.MetricLoginLocked, Name: "homeaze_auth_login_locked_total", Help: "Login attempts rejected during a lockout window."},
	{ID: auth.MetricLockoutTriggered, Name: "homeaze_auth_lockout_triggered_total", Help: "Lockouts tripped by the failure threshold."},
	{ID: auth.MetricMFAChallengeIssued, Name: "homeaze_auth_mfa_challenge_issued_total", Help: "Login flows deferred to MFA step-up."},
	{ID: auth.MetricMFASuccess, Name: "homeaze_auth_mfa_success_total", Help: "Successful MFA verifications."},
	{ID: auth.MetricMFAFailure, Name: "homeaze_auth_mfa_failure_total", Help: "Failed MFA verifications."},
	{ID: auth.MetricBackupCodeUsed, Name: "homeaze_auth_backup_code_used_total", Help: "Successful backup-code authentications."},
	{ID: auth.MetricRefreshSuccess, Name: "homeaze_auth_refresh_success_total", Help: "Successful refresh operations."},
	{ID: auth.MetricRefreshFailure, Name: "homeaze_auth_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: auth.MetricSessionCreated, Name: "homeaze_auth_session_created_total", Help: "Created sessions."},
	{ID: auth.MetricSessionEvicted, Name: "homeaze_auth_session_evicted_total", Help: "Sessions evicted by the per-identity capacity."},
	{ID: auth.MetricSessionRevoked, Name: "homeaze_auth_session_revoked_total", Help: "Revoked sessions."},
	{ID: auth.MetricSuspiciousActivity, Name: "homeaze_auth_suspicious_activity_total", Help: "Logins flagged by the suspicious activity heuristic."},
	{ID: auth.MetricRegisterSuccess, Name: "homeaze_auth_register_success_total", Help: "Successful identity registrations."},
	{ID: auth.MetricRegisterDuplicate, Name: "homeaze_auth_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: auth.MetricPasswordChangeSuccess, Name: "homeaze_auth_password_change_success_total", Help: "Successful password changes."},
	{ID: auth.MetricPasswordChangeInvalidOld, Name: "homeaze_auth_password_change_invalid_old_total", Help: "Password change attempts with invalid old password."},
	{ID: auth.MetricConflictRetry, Name: "homeaze_auth_conflict_retry_total", Help: "Identity saves retried after a version conflict."},
	{ID: auth.MetricOAuthLoginSuccess, Name: "homeaze_auth_oauth_login_success_total", Help: "Successful provider logins."},
	{ID: auth.MetricOAuthLoginFailure, Name: "homeaze_auth_oauth_login_failure_total", Help: "Failed provider logins."},
}

// HistogramDefs is an exported constant or variable used by the auth engine.
var HistogramDefs = []HistogramDef{
	{ID: auth.MetricAuthenticateLatency, Name: "homeaze_auth_authenticate_latency_seconds", Help: "AuthenticateRequest latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the auth engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the auth engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
