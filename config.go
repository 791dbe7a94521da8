package authcore

import (
	"errors"
	"time"
)

// Config is the full configuration tree for a [Service].
//
// Config instances are intended to be assembled during initialization and
// then treated as immutable; [Builder.Build] clones the tree so later
// mutation of the caller's copy has no effect.
type Config struct {
	Session  SessionConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session-key generation and cache key layout.
type SessionConfig struct {
	// RedisPrefix namespaces cache keys when the Redis-backed session
	// store is used. Ignored by in-process stores.
	RedisPrefix string
	// KeyLength is the length in characters of generated session keys.
	// Keys are drawn uniformly from the 94 printable ASCII symbols, so the
	// default of 32 carries well over 128 bits of entropy. One length is
	// used for both timed and untimed sessions.
	KeyLength int
	// DefaultTTL bounds sessions issued by Login when non-zero. Zero means
	// Login issues sessions with no expiry; LoginFor always uses the ttl
	// it is given.
	DefaultTTL time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the Argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// UpgradeOnLogin rehashes a stored credential after a successful
	// verify when its recorded parameters are weaker than the configured
	// ones. The rewrite is best effort; a failed update never fails the
	// login.
	UpgradeOnLogin bool
	// ExternalLength is the length of the random password generated for
	// externally vouched accounts. The plaintext is hashed and discarded.
	ExternalLength int
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is
	// saturated. Dropped counts are observable via [Service.AuditDropped].
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metrics registry.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistograms records login latency buckets in addition to
	// outcome counters.
	EnableLatencyHistograms bool
}

const (
	minSessionKeyLength = 20
	minExternalPassword = 16
)

// DefaultConfig returns the baseline configuration: 32-character session
// keys, Argon2id at 64 MB / t=3 / p=2, audit and metrics enabled.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: "ac",
			KeyLength:   32,
			DefaultTTL:  0,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
			ExternalLength: 32,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; the clone exists so adding
	// reference-typed fields later cannot silently alias caller state.
	return cfg
}

// Validate checks the configuration floors. It rejects session keys short
// enough to fall under 128 bits of entropy regardless of what the caller
// asks for.
func (c Config) Validate() error {
	if c.Session.RedisPrefix == "" {
		return errors.New("session redis prefix must not be empty")
	}
	if c.Session.KeyLength < minSessionKeyLength {
		return errors.New("session key length must be >= 20")
	}
	if c.Session.DefaultTTL < 0 {
		return errors.New("session default ttl must not be negative")
	}
	if c.Password.ExternalLength < minExternalPassword {
		return errors.New("external password length must be >= 16")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}

	// Argon2 floors are owned by the password package; surface them here
	// so Build fails before any hashing happens.
	return validatePasswordConfig(c.Password)
}
