package auth

import (
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/krishshahi/homeaze-auth/identity"
	"github.com/krishshahi/homeaze-auth/lockout"
	"github.com/krishshahi/homeaze-auth/mfa"
	"github.com/krishshahi/homeaze-auth/oauth"
	"github.com/krishshahi/homeaze-auth/password"
	"github.com/krishshahi/homeaze-auth/redistore"
	"github.com/krishshahi/homeaze-auth/session"
	"github.com/krishshahi/homeaze-auth/token"
)

// Builder defines a public type used by auth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store     identity.Store
	notifier  Notifier
	hasher    password.Hasher
	providers map[string]oauth.Provider

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityStore describes the withidentitystore operation and its observable behavior.
//
// WithIdentityStore may return an error when input validation, dependency calls, or security checks fail.
// WithIdentityStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithIdentityStore(store identity.Store) *Builder {
	b.store = store
	return b
}

// WithNotifier describes the withnotifier operation and its observable behavior.
//
// WithNotifier may return an error when input validation, dependency calls, or security checks fail.
// WithNotifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithHasher describes the withhasher operation and its observable behavior.
//
// WithHasher may return an error when input validation, dependency calls, or security checks fail.
// WithHasher does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

// WithOAuthProvider describes the withoauthprovider operation and its observable behavior.
//
// WithOAuthProvider may return an error when input validation, dependency calls, or security checks fail.
// WithOAuthProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithOAuthProvider(name string, p oauth.Provider) *Builder {
	if b.providers == nil {
		b.providers = make(map[string]oauth.Provider)
	}
	b.providers[strings.ToLower(name)] = p
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithNotificationsEnabled describes the withnotificationsenabled operation and its observable behavior.
//
// WithNotificationsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithNotificationsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNotificationsEnabled(enabled bool) *Builder {
	b.config.Notify.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or identity store required")
		}
		store = redistore.New(b.redis, cfg.Session.RedisPrefix)
	}

	engine := &Engine{
		config:   cfg,
		store:    store,
		sessions: session.NewManager(cfg.Session.TTL, cfg.Session.MaxSessions),
		lockout:  lockout.NewPolicy(cfg.Lockout.Threshold, cfg.Lockout.Schedule),
		policy:   password.NewPolicy(cfg.Password.MinLength),
	}

	engine.mfa = mfa.NewEngine(mfa.Config{
		Issuer:           cfg.MFA.Issuer,
		Digits:           cfg.MFA.Digits,
		Period:           cfg.MFA.Period,
		Skew:             cfg.MFA.Skew,
		BackupCodeCount:  cfg.MFA.BackupCodeCount,
		BackupCodeLength: cfg.MFA.BackupCodeLength,
	})
	engine.notify = newNotifyDispatcher(cfg.Notify, b.notifier)
	engine.metrics = NewMetrics(cfg.Metrics)

	if len(b.providers) > 0 {
		engine.providers = make(map[string]oauth.Provider, len(b.providers))
		for name, p := range b.providers {
			engine.providers[name] = p
		}
	}

	if b.hasher != nil {
		engine.hasher = b.hasher
	} else {
		ph, err := password.NewArgon2(password.Argon2Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		engine.hasher = ph
	}

	tm, err := token.NewManager(token.Config{
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		PendingTTL:    cfg.Token.PendingTTL,
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = tm

	b.built = true

	return engine, nil
}
