package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (COSLACK_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: COSLACK_SLACK_BOT_TOKEN -> slack_bot_token, etc.
	if err := k.Load(env.Provider("COSLACK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "COSLACK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration can run the given transport.
func (c *Config) Validate(transport Transport) error {
	if c.SlackBotToken == "" {
		return fmt.Errorf("slack_bot_token is required (set COSLACK_SLACK_BOT_TOKEN)")
	}
	if c.CohereAPIKey == "" {
		return fmt.Errorf("cohere_api_key is required (set COSLACK_COHERE_API_KEY)")
	}
	if c.CohereModel == "" {
		return fmt.Errorf("cohere_model is required")
	}
	if c.FeedbackChannel == "" {
		return fmt.Errorf("feedback_channel is required")
	}

	switch transport {
	case TransportSocket:
		if c.SlackAppToken == "" {
			return fmt.Errorf("slack_app_token is required for socket mode (set COSLACK_SLACK_APP_TOKEN)")
		}
	case TransportHTTP:
		if c.SlackSigningSecret == "" {
			return fmt.Errorf("slack_signing_secret is required for http mode (set COSLACK_SLACK_SIGNING_SECRET)")
		}
		if c.ListenAddr == "" {
			return fmt.Errorf("listen_addr is required for http mode")
		}
	default:
		return fmt.Errorf("invalid transport %q", transport)
	}

	return nil
}
