// Package auth provides the identity and session security engine for the
// Homeaze platform: argon2id credential verification, progressive lockout,
// bounded per-device session lists, TOTP/backup-code MFA, and JWT access,
// refresh, and pending-MFA tokens backed by a Redis identity store.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// auth is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (LoginResult, AuthResult, MetricsSnapshot, etc.). Domain mechanics — hashing, lockout
// arithmetic, session lists, TOTP, token codecs, the identity document — live in the
// sub-packages and never import auth back.
//
// # Concurrency contract
//
// All per-identity state (lockout counters, session lists, MFA settings) lives in one
// versioned identity document. Engine writes go through compare-and-swap saves and are
// retried on version conflict, so overlapping logins against the same identity never
// lose failure counts or session inserts.
//
// # What this package must NOT do
//
//   - Expose the Redis client, Lua scripts, or document encoding in its public API.
//   - Perform I/O during construction (Builder is allocation-only until Build).
//   - Import any sub-package that re-imports auth (no import cycles).
package auth
