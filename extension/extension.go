// Package extension provides the Forge extension adapter for a provenance ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.provenance" or "provenance" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "provenance"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Supply-chain product provenance ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the provenance ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *provenance.Ledger
	store      store.Store
	source     identity.Source
	ledgerOpts []provenance.Option
}

// New creates a new provenance Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *provenance.Ledger { return e.engine }

// Source returns the caller resolver built from the token settings, or nil
// when no token secret is configured.
func (e *Extension) Source() identity.Source { return e.source }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.build(); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*provenance.Ledger, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	if e.source != nil {
		return vessel.Provide(fapp.Container(), func() (identity.Source, error) {
			return e.source, nil
		})
	}
	return nil
}

// build constructs the store, the identity source and the engine from the
// resolved config.
func (e *Extension) build() error {
	if e.config.Admin == "" {
		return errors.New("provenance: extension requires an admin identity")
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	if e.config.TokenSecret != "" {
		var topts []identity.TokenOption
		if e.config.TokenIssuer != "" {
			topts = append(topts, identity.WithIssuer(e.config.TokenIssuer))
		}
		if e.config.TokenAudience != "" {
			topts = append(topts, identity.WithAudience(e.config.TokenAudience))
		}
		e.source = identity.NewTokenSource([]byte(e.config.TokenSecret), topts...)
	}

	eng, err := provenance.New(e.store, identity.Identity(e.config.Admin), e.buildLedgerOpts()...)
	if err != nil {
		return err
	}
	e.engine = eng
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("provenance: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("provenance: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs provenance.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []provenance.Option {
	opts := make([]provenance.Option, 0, len(e.ledgerOpts)+3)

	if len(e.config.Stages) > 0 {
		opts = append(opts, provenance.WithStages(product.Stages(e.config.Stages)))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, provenance.WithPluginTimeout(e.config.PluginTimeout))
	}
	opts = append(opts, provenance.WithMigrate(!e.config.DisableMigrate))

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("provenance: configuration is required but not found in config files; " +
				"ensure 'extensions.provenance' or 'provenance' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("provenance: configuration loaded",
		forge.F("admin", e.config.Admin),
		forge.F("stages", e.config.Stages),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("token_auth", e.config.TokenSecret != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.provenance", "provenance"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("provenance: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("provenance: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps and
// programmatic bool flags override when true.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.Admin == "" {
		yamlConfig.Admin = programmaticConfig.Admin
	}
	if len(yamlConfig.Stages) == 0 {
		yamlConfig.Stages = programmaticConfig.Stages
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if yamlConfig.TokenSecret == "" {
		yamlConfig.TokenSecret = programmaticConfig.TokenSecret
	}
	if yamlConfig.TokenIssuer == "" {
		yamlConfig.TokenIssuer = programmaticConfig.TokenIssuer
	}
	if yamlConfig.TokenAudience == "" {
		yamlConfig.TokenAudience = programmaticConfig.TokenAudience
	}

	return mergeWithDefaults(yamlConfig)
}
