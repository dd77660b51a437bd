package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no timeout: the
	// generation backend is a local collaborator and is allowed to block.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-index/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// GeneratorConfig holds settings for the outline generation service client.
type GeneratorConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the generation service root (default http://localhost:8000).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// LegacyEnvelope accepts responses whose "index" field is the document
	// JSON encoded as a string.
	LegacyEnvelope bool `json:"legacy_envelope" yaml:"legacy_envelope"`
}

// StateConfig holds settings for persisted client state.
type StateConfig struct {
	// Dir is the directory holding state.db (default .research-index).
	Dir string `json:"dir" yaml:"dir"`
}

// ServeConfig holds settings for the HTTP API.
type ServeConfig struct {
	// Addr is the listen address (default :8090).
	Addr string `json:"addr" yaml:"addr"`
}

// AppConfig groups all component configurations.
type AppConfig struct {
	Generator GeneratorConfig `json:"generator" yaml:"generator"`
	State     StateConfig     `json:"state" yaml:"state"`
	Serve     ServeConfig     `json:"serve" yaml:"serve"`
}
