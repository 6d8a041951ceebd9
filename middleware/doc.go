// Package middleware exposes HTTP middleware adapters that enforce
// authentication on top of auth.Engine request validation.
//
// # Guards
//
//   - [Guard] — full validation: token signature, kind, and live session.
//
// The guard reads the Authorization header, calls Engine.AuthenticateRequest,
// and injects the validated result into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authentication logic itself — all decisions are delegated to the Engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
