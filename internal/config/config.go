package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values
const (
	DefaultAdminHost = "0.0.0.0"
	DefaultAdminPort = "8088"
	DefaultOpenAIModel = "gpt-4o-mini"

	DefaultHTTPClientTimeout = 120 * time.Second
	DefaultStabilityWait     = 300 * time.Second
	DefaultScanInterval      = 60 * time.Second

	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
)

type Config struct {
	// Filesystem roots
	Root     string // XL_IDP_ROOT_UNZIPPING
	QueueDir string // XL_IDP_PATH_UNZIPPING

	// Admin HTTP server
	AdminHost string
	AdminPort string

	// Timing
	HTTPClientTimeout time.Duration
	StabilityWait     time.Duration
	ScanInterval      time.Duration

	// Proxy pool
	ProxyList []string

	// Search engine (XML River)
	XMLRiverUser string
	XMLRiverKey  string

	// Translation
	OpenAIAPIKey string
	OpenAIModel  string

	// Logging
	LogMaxSizeMB  int
	LogMaxBackups int
}

// LoadConfig reads configuration from the environment, applying the same
// fallback-default pattern the host application uses throughout.
func LoadConfig() *Config {
	root := getEnv("XL_IDP_ROOT_UNZIPPING", "")
	queueDir := getEnv("XL_IDP_PATH_UNZIPPING", "")

	xmlRiverUser := getEnv("XML_RIVER_USER", "")
	xmlRiverKey := getEnv("XML_RIVER_KEY", "")
	if xmlRiverUser == "" || xmlRiverKey == "" {
		slog.Info("search engine resolver disabled (XML_RIVER_USER/XML_RIVER_KEY not set)")
	}

	openAIAPIKey := getEnv("OPENAI_API_KEY", "")
	if openAIAPIKey == "" {
		slog.Info("translation disabled (OPENAI_API_KEY not set), Uzbek names kept verbatim")
	}

	return &Config{
		Root:     root,
		QueueDir: queueDir,

		AdminHost: getEnv("ADMIN_HOST", DefaultAdminHost),
		AdminPort: getEnv("ADMIN_PORT", DefaultAdminPort),

		HTTPClientTimeout: getEnvDuration("HTTP_CLIENT_TIMEOUT", DefaultHTTPClientTimeout),
		StabilityWait:     getEnvDuration("STABILITY_WAIT", DefaultStabilityWait),
		ScanInterval:      getEnvDuration("SCAN_INTERVAL", DefaultScanInterval),

		ProxyList: splitCSV(getEnv("PROXY_LIST", "")),

		XMLRiverUser: xmlRiverUser,
		XMLRiverKey:  xmlRiverKey,

		OpenAIAPIKey: openAIAPIKey,
		OpenAIModel:  getEnv("OPENAI_MODEL", DefaultOpenAIModel),

		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", DefaultLogMaxSizeMB),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", DefaultLogMaxBackups),
	}
}

// ValidateConfig checks config values and returns an error on failure.
// Call after LoadConfig to fail fast on invalid configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.Root == "" {
		return fmt.Errorf("XL_IDP_ROOT_UNZIPPING must be set")
	}
	if cfg.QueueDir == "" {
		return fmt.Errorf("XL_IDP_PATH_UNZIPPING must be set")
	}
	if cfg.AdminPort != "" {
		if _, err := strconv.Atoi(cfg.AdminPort); err != nil {
			return fmt.Errorf("ADMIN_PORT must be numeric, got %q", cfg.AdminPort)
		}
	}
	if cfg.HTTPClientTimeout <= 0 {
		return fmt.Errorf("HTTP_CLIENT_TIMEOUT must be positive")
	}
	if cfg.StabilityWait <= 0 {
		return fmt.Errorf("STABILITY_WAIT must be positive")
	}
	if cfg.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be positive")
	}
	if cfg.LogMaxSizeMB <= 0 || cfg.LogMaxBackups <= 0 {
		return fmt.Errorf("LOG_MAX_SIZE_MB and LOG_MAX_BACKUPS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var items []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
