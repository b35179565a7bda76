package extension

import (
	"time"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/event"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/store"
)

// Option configures the provenance Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a provenance.Option through to the underlying engine.
func WithLedgerOption(opt provenance.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, provenance.WithPlugin(p))
	}
}

// WithSink publishes every ledger event to s.
func WithSink(s event.Sink) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, provenance.WithSink(s))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithAdmin sets the administrator identity.
func WithAdmin(admin string) Option {
	return func(e *Extension) { e.config.Admin = admin }
}

// WithStages sets the stage enumeration.
func WithStages(stages ...string) Option {
	return func(e *Extension) { e.config.Stages = stages }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithPluginTimeout bounds each plugin hook invocation.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithTokenSecret enables bearer-token caller resolution.
func WithTokenSecret(secret string) Option {
	return func(e *Extension) { e.config.TokenSecret = secret }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
