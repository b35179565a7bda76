package extension

import "time"

// Config holds the provenance extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.provenance" or "provenance" keys).
type Config struct {
	// Admin is the identity of the permanent administrator. Required.
	Admin string `json:"admin" mapstructure:"admin" yaml:"admin"`

	// Stages replaces the default Manufactured/InTransit/Delivered enumeration.
	Stages []string `json:"stages" mapstructure:"stages" yaml:"stages"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// PluginTimeout bounds each plugin hook invocation (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// TokenSecret enables bearer-token caller resolution. When set, the
	// extension provides an identity.Source backed by HS256 tokens.
	TokenSecret string `json:"token_secret" mapstructure:"token_secret" yaml:"token_secret"`

	// TokenIssuer and TokenAudience are checked on every token when set.
	TokenIssuer   string `json:"token_issuer" mapstructure:"token_issuer" yaml:"token_issuer"`
	TokenAudience string `json:"token_audience" mapstructure:"token_audience" yaml:"token_audience"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PluginTimeout: 5 * time.Second,
	}
}
