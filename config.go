package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/krishshahi/homeaze-auth/lockout"
)

// Config defines a public type used by auth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token    TokenConfig
	Session  SessionConfig
	Lockout  LockoutConfig
	Password PasswordConfig
	MFA      MFAConfig
	Notify   NotifyConfig
	Metrics  MetricsConfig
	Retry    RetryConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by auth APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	PendingTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by auth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string
	TTL         time.Duration
	MaxSessions int
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig defines a public type used by auth APIs.
//
// LockoutConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LockoutConfig struct {
	Threshold int
	Schedule  []time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by auth APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
}

// MFAConfig defines a public type used by auth APIs.
//
// MFAConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MFAConfig struct {
	Issuer           string
	Digits           int
	Period           int
	Skew             int
	BackupCodeCount  int
	BackupCodeLength int
}

// NotifyConfig defines a public type used by auth APIs.
//
// NotifyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NotifyConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by auth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// RetryConfig defines a public type used by auth APIs.
//
// RetryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RetryConfig struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			PendingTTL:    10 * time.Minute,
			SigningMethod: "ed25519",
			Issuer:        "homeaze",
		},
		Session: SessionConfig{
			RedisPrefix: "ha",
			TTL:         7 * 24 * time.Hour,
			MaxSessions: 5,
		},
		Lockout: LockoutConfig{
			Threshold: lockout.DefaultThreshold,
			Schedule:  lockout.DefaultSchedule,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   8,
		},
		MFA: MFAConfig{
			Issuer:           "homeaze",
			Digits:           6,
			Period:           30,
			Skew:             1,
			BackupCodeCount:  10,
			BackupCodeLength: 10,
		},
		Notify: NotifyConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   5 * time.Millisecond,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	if len(cfg.Lockout.Schedule) > 0 {
		out.Lockout.Schedule = append([]time.Duration(nil), cfg.Lockout.Schedule...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.PendingTTL <= 0 {
		return errors.New("Token PendingTTL must be > 0")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must be >= AccessTTL")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}

	if c.Token.SigningMethod != "ed25519" && c.Token.SigningMethod != "hs256" {
		return errors.New("unsupported token signing method")
	}

	if c.Token.SigningMethod == "ed25519" && len(c.Token.PrivateKey) == 0 {
		return errors.New("ed25519 requires PrivateKey")
	}
	if c.Token.SigningMethod == "ed25519" && len(c.Token.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.Token.SigningMethod == "hs256" && len(c.Token.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}

	// Session
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be blank")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.MaxSessions <= 0 {
		return errors.New("Session MaxSessions must be > 0")
	}

	// Lockout
	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout Threshold must be > 0")
	}
	if len(c.Lockout.Schedule) == 0 {
		return errors.New("Lockout Schedule must not be empty")
	}
	for _, d := range c.Lockout.Schedule {
		if d <= 0 {
			return errors.New("Lockout Schedule durations must be > 0")
		}
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}

	// MFA
	if c.MFA.Digits != 6 && c.MFA.Digits != 8 {
		return errors.New("MFA Digits must be 6 or 8")
	}
	if c.MFA.Period <= 0 {
		return errors.New("MFA Period must be > 0")
	}
	if c.MFA.Skew < 0 {
		return errors.New("MFA Skew must be >= 0")
	}
	if c.MFA.BackupCodeCount <= 0 {
		return errors.New("MFA BackupCodeCount must be > 0")
	}
	if c.MFA.BackupCodeLength < 8 {
		return errors.New("MFA BackupCodeLength must be >= 8")
	}

	// Notify
	if c.Notify.Enabled && c.Notify.BufferSize <= 0 {
		return errors.New("Notify BufferSize must be > 0 when Notify is enabled")
	}

	// Retry
	if c.Retry.MaxAttempts == 0 {
		return errors.New("Retry MaxAttempts must be > 0")
	}
	if c.Retry.BaseDelay <= 0 {
		return errors.New("Retry BaseDelay must be > 0")
	}

	return nil
}
