package auth

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the auth engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is an exported constant or variable used by the auth engine.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountInactive is an exported constant or variable used by the auth engine.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAccountSuspended is an exported constant or variable used by the auth engine.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrIdentityNotFound is an exported constant or variable used by the auth engine.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityExists is an exported constant or variable used by the auth engine.
	ErrIdentityExists = errors.New("identity already exists")
	// ErrTokenExpired is an exported constant or variable used by the auth engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is an exported constant or variable used by the auth engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSessionInvalid is an exported constant or variable used by the auth engine.
	ErrSessionInvalid = errors.New("session invalid or revoked")
	// ErrMFARequired is an exported constant or variable used by the auth engine.
	ErrMFARequired = errors.New("mfa required")
	// ErrMFAInvalid is an exported constant or variable used by the auth engine.
	ErrMFAInvalid = errors.New("invalid mfa code")
	// ErrMFANotEnabled is an exported constant or variable used by the auth engine.
	ErrMFANotEnabled = errors.New("mfa not enabled")
	// ErrMFAAlreadyEnabled is an exported constant or variable used by the auth engine.
	ErrMFAAlreadyEnabled = errors.New("mfa already enabled")
	// ErrMFANotPending is an exported constant or variable used by the auth engine.
	ErrMFANotPending = errors.New("mfa enrollment not pending")
	// ErrPasswordPolicy is an exported constant or variable used by the auth engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrConcurrencyConflict is an exported constant or variable used by the auth engine.
	ErrConcurrencyConflict = errors.New("concurrent identity update conflict")
	// ErrStoreUnavailable is an exported constant or variable used by the auth engine.
	ErrStoreUnavailable = errors.New("identity store unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the auth engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrProviderUnknown is an exported constant or variable used by the auth engine.
	ErrProviderUnknown = errors.New("unknown oauth provider")
	// ErrProviderToken is an exported constant or variable used by the auth engine.
	ErrProviderToken = errors.New("oauth provider token rejected")
)
