package config

import (
	"fmt"
	"os"
)

// DefaultConfig returns the configuration defaults applied before the file
// and environment overlays.
func DefaultConfig() *Config {
	return &Config{
		CohereModel: "command",
		OpenAIModel: "gpt-4-1106-preview",
		ListenAddr:  ":8000",
		LogLevel:    "info",
	}
}

// starterConfig is the template written by the init command. Kept by hand so
// the file carries comments; values must stay in sync with DefaultConfig.
const starterConfig = `# coslack configuration. Every key can also be supplied through a COSLACK_*
# environment variable (e.g. COSLACK_SLACK_BOT_TOKEN), which overrides this
# file. Tokens are secrets and usually belong in the environment.

# Slack bot token (xoxb-...).
slack_bot_token: ""
# Slack app-level token (xapp-...), required for the socket transport.
slack_app_token: ""
# Slack signing secret, required for the http transport.
slack_signing_secret: ""

# Cohere API key and chat model for answering questions.
cohere_api_key: ""
cohere_model: "command"

# OpenAI API key and model for thread summaries.
openai_api_key: ""
openai_model: "gpt-4-1106-preview"

# Channel ID that receives feedback records.
feedback_channel: ""

# HTTP bind address for the http transport.
listen_addr: ":8000"

# Directory for the local feedback log. Empty disables it.
data_dir: ""

log_level: "info"
`

// WriteStarter writes the commented starter configuration to path.
func WriteStarter(path string) error {
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
