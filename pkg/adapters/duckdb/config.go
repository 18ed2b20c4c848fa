package duckdb

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load before any CSV is read (e.g. "httpfs").
	Extensions []string `mapstructure:"extensions"`

	// Secrets for reading CSV files from cloud storage.
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings applied at session level (e.g. memory_limit, threads).
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Type: "s3", "gcs", "azure", "r2", "huggingface"
	Type string `mapstructure:"type"`

	// Provider: "config", "credential_chain", "service_account", etc.
	Provider string `mapstructure:"provider"`

	Region string `mapstructure:"region,omitempty"`

	// Scope limits the secret to specific paths (string or []string)
	Scope any `mapstructure:"scope,omitempty"`

	KeyID    string `mapstructure:"key_id,omitempty"`
	Secret   string `mapstructure:"secret,omitempty"`
	Endpoint string `mapstructure:"endpoint,omitempty"`

	// URLStyle: "vhost" or "path" for S3
	URLStyle string `mapstructure:"url_style,omitempty"`

	UseSSL *bool `mapstructure:"use_ssl,omitempty"`
}

// ParseParams decodes the free-form params map from the engine config.
// Scalar settings are accepted in any form (numbers, bools) and stringified.
func ParseParams(raw map[string]any) (*Params, error) {
	var p Params
	if len(raw) == 0 {
		return &p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return &p, nil
}
