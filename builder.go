package authcore

import (
	"errors"

	internalaudit "github.com/kvels/authcore/internal/audit"
	"github.com/kvels/authcore/password"
)

// Builder assembles a [Service]. Configure it during initialization and
// call [Builder.Build] exactly once.
type Builder struct {
	config    Config
	users     UserStore
	sessions  SessionStore
	validator Validator
	auditSink AuditSink

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The builder keeps its own
// copy, so later mutation of cfg has no effect.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the user persistence backend. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithSessionStore sets the session cache backend. Required. For Redis,
// pass session.NewStore(client, cfg.Session.RedisPrefix).
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

// WithValidator replaces the signup form validator. Passing nil restores
// [DefaultValidator].
func (b *Builder) WithValidator(v Validator) *Builder {
	b.validator = v
	return b
}

// WithAuditSink sets the destination for audit events. Without a sink the
// dispatcher still runs but events go to a [NoOpSink].
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles login latency histograms on top of plain
// counters.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and dependencies and constructs the
// service. The builder cannot be reused afterwards.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.sessions == nil {
		return nil, errors.New("session store required")
	}

	hasher, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	validator := b.validator
	if validator == nil {
		validator = DefaultValidator()
	}

	var dispatcher *internalaudit.Dispatcher
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = internalaudit.NoOpSink{}
		}
		dispatcher = internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink)
	}

	b.built = true

	return &Service{
		config:    cfg,
		users:     b.users,
		sessions:  b.sessions,
		hasher:    hasher,
		validator: validator,
		audit:     dispatcher,
		metrics:   NewMetrics(cfg.Metrics),
	}, nil
}
