package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"michi/internal/audio"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBackendURL   = "http://localhost:3001"
	DefaultProcessURL   = "http://18.141.160.29:5000/process_input"
	DefaultChatLogsURL  = "http://localhost:5000/api/chat-logs"
	DefaultKnowledgeURL = "http://localhost:8000/rag/knowledge"
	DefaultBrokerURL    = "wss://broker.emqx.io:8084/mqtt"
	DefaultTopic        = "testtopic/mwtt"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultSampleRate   = 16000
	DefaultPlayer       = audio.DefaultPlayerCommand

	envPrefix = "MICHI"
)

// Config is the terminal client configuration
type Config struct {
	BackendURL   string        `yaml:"backend_url" mapstructure:"backend_url"`
	Token        string        `yaml:"token,omitempty" mapstructure:"token"`
	TokenExpiry  int64         `yaml:"token_expiry,omitempty" mapstructure:"token_expiry"` // Unix timestamp
	UserName     string        `yaml:"user_name,omitempty" mapstructure:"user_name"`
	ProcessURL   string        `yaml:"process_url" mapstructure:"process_url"`
	ChatLogsURL  string        `yaml:"chat_logs_url" mapstructure:"chat_logs_url"`
	KnowledgeURL string        `yaml:"knowledge_url" mapstructure:"knowledge_url"`
	MQTT         MQTTConfig    `yaml:"mqtt" mapstructure:"mqtt"`
	HTTPTimeout  time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`
	SampleRate   int           `yaml:"sample_rate" mapstructure:"sample_rate"`
	// Player is the command line that plays replies from stdin; empty disables playback
	Player       string        `yaml:"player" mapstructure:"player"`

	path string
}

// MQTTConfig holds the test console broker settings
type MQTTConfig struct {
	BrokerURL string `yaml:"broker_url" mapstructure:"broker_url"`
	Topic     string `yaml:"topic" mapstructure:"topic"`
}

// DefaultPath returns ~/.michi/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".michi", "config.yaml")
}

// Default returns a config populated with defaults
func Default() *Config {
	return &Config{
		BackendURL:   DefaultBackendURL,
		ProcessURL:   DefaultProcessURL,
		ChatLogsURL:  DefaultChatLogsURL,
		KnowledgeURL: DefaultKnowledgeURL,
		MQTT: MQTTConfig{
			BrokerURL: DefaultBrokerURL,
			Topic:     DefaultTopic,
		},
		HTTPTimeout: DefaultHTTPTimeout,
		SampleRate:  DefaultSampleRate,
		Player:      DefaultPlayer,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend_url", d.BackendURL)
	v.SetDefault("token", "")
	v.SetDefault("token_expiry", 0)
	v.SetDefault("user_name", "")
	v.SetDefault("process_url", d.ProcessURL)
	v.SetDefault("chat_logs_url", d.ChatLogsURL)
	v.SetDefault("knowledge_url", d.KnowledgeURL)
	v.SetDefault("mqtt.broker_url", d.MQTT.BrokerURL)
	v.SetDefault("mqtt.topic", d.MQTT.Topic)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("sample_rate", d.SampleRate)
	v.SetDefault("player", d.Player)
}

// Load reads the config file at path (DefaultPath when empty). A missing file
// yields defaults. MICHI_* environment variables override file values,
// e.g. MICHI_BACKEND_URL or MICHI_MQTT_TOPIC.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.path = path
	cfg.BackendURL = strings.TrimSuffix(cfg.BackendURL, "/")
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	return &cfg, nil
}

// Path returns the file this config was loaded from
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Save writes the configuration with owner-only permissions
func (c *Config) Save() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
