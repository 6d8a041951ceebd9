// Package token mints and verifies the three bearer token kinds:
// short-lived access tokens, longer-lived refresh tokens, and restricted
// pending-MFA tokens. Every token is signed, carries a fixed claim
// schema distinguished by kind, and holds no mutable state; revocation
// happens at the session layer, never inside token content.
package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind identifies the claim schema a token was minted with.
type Kind string

const (
	// KindAccess is an exported constant or variable used by the auth engine.
	KindAccess Kind = "access"
	// KindRefresh is an exported constant or variable used by the auth engine.
	KindRefresh Kind = "refresh"
	// KindPendingMFA is an exported constant or variable used by the auth engine.
	KindPendingMFA Kind = "pending_mfa"
)

// SigningMethod defines a public type used by homeaze-auth APIs.
//
// SigningMethod instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SigningMethod string

const (
	// MethodEd25519 is an exported constant or variable used by the auth engine.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 is an exported constant or variable used by the auth engine.
	MethodHS256 SigningMethod = "hs256"
)

// ErrExpired is an exported constant or variable used by the auth engine.
var ErrExpired = errors.New("token expired")

// ErrInvalid is an exported constant or variable used by the auth engine.
var ErrInvalid = errors.New("token invalid")

// ErrKindMismatch is an exported constant or variable used by the auth engine.
var ErrKindMismatch = errors.New("token kind mismatch")

// Claims is the fixed, versioned payload schema shared by all kinds.
// Role is present only on access tokens; MFAPending only on pending-MFA
// tokens. The schema is validated on parse, not trusted structurally.
type Claims struct {
	Kind       Kind   `json:"tk"`
	SessionID  string `json:"sid"`
	Role       string `json:"role,omitempty"`
	MFAPending bool   `json:"mfa_pending,omitempty"`
	jwt.RegisteredClaims
}

// IdentityID returns the subject claim.
func (c *Claims) IdentityID() string {
	return c.Subject
}

// Config defines a public type used by homeaze-auth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	PendingTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// Manager defines a public type used by homeaze-auth APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// NewManager validates the signing configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 10 * time.Minute
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// IssueAccess mints an access token bound to the given session.
func (m *Manager) IssueAccess(identityID, sessionID, role string) (string, error) {
	return m.issue(Claims{
		Kind:      KindAccess,
		SessionID: sessionID,
		Role:      role,
	}, identityID, m.config.AccessTTL)
}

// IssueRefresh mints a refresh token bound to the given session.
func (m *Manager) IssueRefresh(identityID, sessionID string) (string, error) {
	return m.issue(Claims{
		Kind:      KindRefresh,
		SessionID: sessionID,
	}, identityID, m.config.RefreshTTL)
}

// IssuePendingMFA mints the restricted token that proves password
// success but not full authentication. It is honored only by the MFA
// verification endpoint.
func (m *Manager) IssuePendingMFA(identityID, sessionID string) (string, error) {
	return m.issue(Claims{
		Kind:       KindPendingMFA,
		SessionID:  sessionID,
		MFAPending: true,
	}, identityID, m.config.PendingTTL)
}

// Parse verifies signature, expiry, and issuer and returns the claims.
// It never consults session state; callers must validate the referenced
// session separately.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.verifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrInvalid
	}

	switch claims.Kind {
	case KindAccess, KindRefresh:
		if claims.MFAPending {
			return nil, ErrInvalid
		}
	case KindPendingMFA:
		if !claims.MFAPending {
			return nil, ErrInvalid
		}
	default:
		return nil, ErrInvalid
	}

	return claims, nil
}

// ParseKind verifies the token and additionally enforces the expected
// kind, rejecting cross-kind replay.
func (m *Manager) ParseKind(tokenStr string, kind Kind) (*Claims, error) {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrKindMismatch
	}
	return claims, nil
}

func (m *Manager) issue(claims Claims, identityID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   identityID,
		Issuer:    m.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	tok := jwt.NewWithClaims(m.method(), claims)
	key, err := m.signKey()
	if err != nil {
		return "", err
	}
	return tok.SignedString(key)
}

func (m *Manager) method() jwt.SigningMethod {
	if m.config.SigningMethod == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (m *Manager) signKey() (interface{}, error) {
	if m.config.SigningMethod == MethodHS256 {
		return m.config.PrivateKey, nil
	}
	return parseEdPrivateKey(m.config.PrivateKey)
}

func (m *Manager) verifyKey() (interface{}, error) {
	if m.config.SigningMethod == MethodHS256 {
		return m.config.PrivateKey, nil
	}
	return parseEdPublicKey(m.config.PublicKey)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
