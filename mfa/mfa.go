// Package mfa implements multi-factor enrollment and verification:
// TOTP shared secrets with one-window clock-drift tolerance, and
// single-use backup codes stored only as SHA-256 hashes.
package mfa

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrNotEnrolled is an exported constant or variable used by the auth engine.
var ErrNotEnrolled = errors.New("mfa not enrolled")

// ErrAlreadyEnabled is an exported constant or variable used by the auth engine.
var ErrAlreadyEnabled = errors.New("mfa already enabled")

// ErrCodeInvalid is an exported constant or variable used by the auth engine.
var ErrCodeInvalid = errors.New("invalid mfa code")

const backupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// BackupCode is a single-use fallback credential. Used transitions
// false to true exactly once and is permanent.
type BackupCode struct {
	Hash   [32]byte   `json:"hash"`
	Used   bool       `json:"used"`
	UsedAt *time.Time `json:"used_at,omitempty"`
}

// Settings is the per-identity MFA record embedded in the identity
// document. Enabled false with a non-empty Secret means enrollment is
// pending confirmation.
type Settings struct {
	Enabled     bool         `json:"enabled"`
	Secret      string       `json:"secret,omitempty"`
	BackupCodes []BackupCode `json:"backup_codes,omitempty"`
	LastUsedAt  *time.Time   `json:"last_used_at,omitempty"`
}

// Pending reports whether enrollment has begun but not been confirmed.
func (s Settings) Pending() bool {
	return !s.Enabled && s.Secret != ""
}

// Enrollment is returned once at enrollment time. The secret and the
// plaintext backup codes are never recoverable afterwards.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
}

// Config defines a public type used by homeaze-auth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Issuer           string
	Digits           int
	Period           int
	Skew             int
	BackupCodeCount  int
	BackupCodeLength int
}

// Engine defines a public type used by homeaze-auth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config Config
}

// NewEngine creates an MFA Engine, substituting defaults for zero
// config values (6 digits, 30s period, one window of skew, 10 backup
// codes of 10 characters).
func NewEngine(cfg Config) *Engine {
	if cfg.Issuer == "" {
		cfg.Issuer = "homeaze"
	}
	if cfg.Digits <= 0 {
		cfg.Digits = 6
	}
	if cfg.Period <= 0 {
		cfg.Period = 30
	}
	if cfg.Skew <= 0 {
		cfg.Skew = 1
	}
	if cfg.BackupCodeCount <= 0 {
		cfg.BackupCodeCount = 10
	}
	if cfg.BackupCodeLength <= 0 {
		cfg.BackupCodeLength = 10
	}
	return &Engine{config: cfg}
}

// BeginEnrollment generates a fresh shared secret and backup code batch
// for the given account label. The returned Settings are in the pending
// state; callers persist them and deliver the Enrollment material
// out of band.
func (e *Engine) BeginEnrollment(label string) (Settings, Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.config.Issuer,
		AccountName: label,
		Period:      uint(e.config.Period),
		Digits:      otp.Digits(e.config.Digits),
	})
	if err != nil {
		return Settings{}, Enrollment{}, err
	}

	plain, records, err := e.newBackupCodes()
	if err != nil {
		return Settings{}, Enrollment{}, err
	}

	settings := Settings{
		Enabled:     false,
		Secret:      key.Secret(),
		BackupCodes: records,
	}
	enrollment := Enrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		BackupCodes:     plain,
	}
	return settings, enrollment, nil
}

// ConfirmEnrollment verifies a live code against the pending secret and
// transitions the settings to Enabled.
func (e *Engine) ConfirmEnrollment(s Settings, code string, now time.Time) (Settings, error) {
	if s.Enabled {
		return s, ErrAlreadyEnabled
	}
	if !s.Pending() {
		return s, ErrNotEnrolled
	}
	if !e.verifyTOTP(s.Secret, code, now) {
		return s, ErrCodeInvalid
	}

	s.Enabled = true
	t := now
	s.LastUsedAt = &t
	return s, nil
}

// VerifyTOTP checks a live code against the enabled secret, tolerating
// one time step of clock drift in either direction.
func (e *Engine) VerifyTOTP(s Settings, code string, now time.Time) (Settings, error) {
	if !s.Enabled || s.Secret == "" {
		return s, ErrNotEnrolled
	}
	if !e.verifyTOTP(s.Secret, code, now) {
		return s, ErrCodeInvalid
	}

	t := now
	s.LastUsedAt = &t
	return s, nil
}

// ConsumeBackupCode matches the supplied code against the unused backup
// codes and marks the match used permanently. A code is accepted at most
// once.
func (e *Engine) ConsumeBackupCode(s Settings, code string, now time.Time) (Settings, error) {
	if !s.Enabled {
		return s, ErrNotEnrolled
	}

	hash := hashBackupCode(code)
	matched := -1
	// Scan the full batch regardless of an early match so timing does
	// not reveal which slot matched.
	for i := range s.BackupCodes {
		equal := subtle.ConstantTimeCompare(hash[:], s.BackupCodes[i].Hash[:]) == 1
		if equal && !s.BackupCodes[i].Used && matched == -1 {
			matched = i
		}
	}
	if matched == -1 {
		return s, ErrCodeInvalid
	}

	t := now
	s.BackupCodes[matched].Used = true
	s.BackupCodes[matched].UsedAt = &t
	s.LastUsedAt = &t
	return s, nil
}

// Disable clears the secret and backup code batch wholesale.
func (e *Engine) Disable(s Settings) Settings {
	return Settings{}
}

func (e *Engine) verifyTOTP(secret, code string, now time.Time) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    uint(e.config.Period),
		Skew:      uint(e.config.Skew),
		Digits:    otp.Digits(e.config.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (e *Engine) newBackupCodes() ([]string, []BackupCode, error) {
	plain := make([]string, 0, e.config.BackupCodeCount)
	records := make([]BackupCode, 0, e.config.BackupCodeCount)

	for i := 0; i < e.config.BackupCodeCount; i++ {
		code, err := randomCode(e.config.BackupCodeLength)
		if err != nil {
			return nil, nil, err
		}
		plain = append(plain, code)
		records = append(records, BackupCode{Hash: hashBackupCode(code)})
	}
	return plain, records, nil
}

func randomCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(backupCodeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(backupCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func hashBackupCode(code string) [32]byte {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
	return sha256.Sum256([]byte(normalized))
}
