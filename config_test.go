package auth

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with key valid",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "hs256 valid",
			mutate: func(c *Config) {
				c.Token.SigningMethod = "hs256"
			},
			wantValid: true,
		},
		{
			name: "unknown signing method invalid",
			mutate: func(c *Config) {
				c.Token.SigningMethod = "rs256"
			},
			wantValid: false,
		},
		{
			name: "missing signing key invalid",
			mutate: func(c *Config) {
				c.Token.PrivateKey = nil
			},
			wantValid: false,
		},
		{
			name: "zero access ttl invalid",
			mutate: func(c *Config) {
				c.Token.AccessTTL = 0
			},
			wantValid: false,
		},
		{
			name: "refresh shorter than access invalid",
			mutate: func(c *Config) {
				c.Token.RefreshTTL = c.Token.AccessTTL / 2
			},
			wantValid: false,
		},
		{
			name: "negative leeway invalid",
			mutate: func(c *Config) {
				c.Token.Leeway = -time.Second
			},
			wantValid: false,
		},
		{
			name: "zero session cap invalid",
			mutate: func(c *Config) {
				c.Session.MaxSessions = 0
			},
			wantValid: false,
		},
		{
			name: "blank session prefix invalid",
			mutate: func(c *Config) {
				c.Session.RedisPrefix = "   "
			},
			wantValid: false,
		},
		{
			name: "zero lockout threshold invalid",
			mutate: func(c *Config) {
				c.Lockout.Threshold = 0
			},
			wantValid: false,
		},
		{
			name: "empty lockout schedule invalid",
			mutate: func(c *Config) {
				c.Lockout.Schedule = nil
			},
			wantValid: false,
		},
		{
			name: "tiny argon memory invalid",
			mutate: func(c *Config) {
				c.Password.Memory = 16
			},
			wantValid: false,
		},
		{
			name: "mfa digits 8 valid",
			mutate: func(c *Config) {
				c.MFA.Digits = 8
			},
			wantValid: true,
		},
		{
			name: "mfa digits 7 invalid",
			mutate: func(c *Config) {
				c.MFA.Digits = 7
			},
			wantValid: false,
		},
		{
			name: "short backup codes invalid",
			mutate: func(c *Config) {
				c.MFA.BackupCodeLength = 4
			},
			wantValid: false,
		},
		{
			name: "zero retry attempts invalid",
			mutate: func(c *Config) {
				c.Retry.MaxAttempts = 0
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Token.SigningMethod = "hs256"
			cfg.Token.PrivateKey = []byte("test-secret")
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigIsolatesMutableFields(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.PrivateKey = []byte("test-secret")

	clone := cloneConfig(cfg)
	clone.Token.PrivateKey[0] = 'X'
	clone.Lockout.Schedule[0] = time.Hour

	if cfg.Token.PrivateKey[0] == 'X' {
		t.Fatal("clone shares the signing key buffer")
	}
	if cfg.Lockout.Schedule[0] == time.Hour {
		t.Fatal("clone shares the lockout schedule slice")
	}
}
