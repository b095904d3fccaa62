package config

// Transport selects how Slack delivers events to the app.
type Transport string

const (
	// TransportSocket uses Socket Mode over a websocket (no public URL).
	TransportSocket Transport = "socket"
	// TransportHTTP receives Events API and interactivity webhooks over HTTP.
	TransportHTTP Transport = "http"
)

// Config is the top-level configuration, corresponding to .coslack.yml.
// Tokens are normally supplied through COSLACK_* environment variables
// rather than the file.
type Config struct {
	SlackBotToken      string `yaml:"slack_bot_token" koanf:"slack_bot_token"`
	SlackAppToken      string `yaml:"slack_app_token" koanf:"slack_app_token"`
	SlackSigningSecret string `yaml:"slack_signing_secret" koanf:"slack_signing_secret"`

	CohereAPIKey string `yaml:"cohere_api_key" koanf:"cohere_api_key"`
	CohereModel  string `yaml:"cohere_model" koanf:"cohere_model"`

	OpenAIAPIKey string `yaml:"openai_api_key" koanf:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model" koanf:"openai_model"`

	// FeedbackChannel is the channel ID that receives feedback records.
	FeedbackChannel string `yaml:"feedback_channel" koanf:"feedback_channel"`

	// ListenAddr is the HTTP bind address for the http transport.
	ListenAddr string `yaml:"listen_addr" koanf:"listen_addr"`

	// DataDir, when set, enables the local feedback idempotency log.
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	LogLevel string `yaml:"log_level" koanf:"log_level"`
}
