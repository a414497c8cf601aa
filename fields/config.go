package fields

import (
	"os"

	"github.com/goccy/go-json"
)

// Config timerd system-level configurations.
type Config struct {
	Port                  string `json:"port"`
	DatabasePath          string `json:"database_path"`
	RedisAddress          string `json:"redis_address"`
	JWTKey                string `json:"jwt_key"`
	WebhookTimeoutSeconds int    `json:"webhook_timeout_seconds"`
	FiringsChannel        string `json:"firings_channel"`
	RecentFiringsKey      string `json:"recent_firings_key"`
	RecentFiringsLimit    int64  `json:"recent_firings_limit"`
	IsDebug               bool   `json:"is_debug"`
}

// Defaults fills in every zero-valued field.
func (c *Config) Defaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "timerd.db"
	}
	if c.RedisAddress == "" {
		c.RedisAddress = "localhost:6379"
	}
	if c.WebhookTimeoutSeconds == 0 {
		c.WebhookTimeoutSeconds = 30
	}
	if c.FiringsChannel == "" {
		c.FiringsChannel = "timerd:firings"
	}
	if c.RecentFiringsKey == "" {
		c.RecentFiringsKey = "timerd:recent_firings"
	}
	if c.RecentFiringsLimit == 0 {
		c.RecentFiringsLimit = 100
	}
}

// LoadConfig reads a JSON config file and applies defaults. A missing path
// yields a pure-defaults config, which is how tests and dev runs start.
func LoadConfig(path string) (Config, error) {
	var config Config
	if path == "" {
		path = os.Getenv("TIMERD_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, err
		}
		if err := json.Unmarshal(data, &config); err != nil {
			log.Printf("Error in parsing config file: %v", err)
			return config, err
		}
	}
	config.Defaults()
	return config, nil
}
