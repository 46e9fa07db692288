package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion is the expected version of the config file.
const CurrentVersion = 1

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version int     `koanf:"version"`
	Server  Server  `koanf:"server"`
	Logging Logging `koanf:"logging"`
	Social  Social  `koanf:"social"`
	OpenAI  OpenAI  `koanf:"openai"`
	Cache   Cache   `koanf:"cache"`
	Redis   Redis   `koanf:"redis"`
	Status  Status  `koanf:"status"`
}

// Server contains HTTP server configuration.
type Server struct {
	// Address to bind to.
	Host string `koanf:"host"`
	// Port to listen on.
	Port int `koanf:"port"`
	// Upstream request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
}

// Logging contains logger configuration.
type Logging struct {
	// Logging level (debug, info, warn, error).
	Level string `koanf:"level"`
	// Optional log file path; empty disables the file core.
	File string `koanf:"file"`
}

// Social contains socialdata.tools API configuration.
type Social struct {
	// Base URL for the API.
	BaseURL string `koanf:"base_url"`
	// Bearer token for authentication.
	APIKey string `koanf:"api_key"`
}

// OpenAI contains configuration for the OpenAI-compatible classifier endpoint.
type OpenAI struct {
	// Base URL for the API.
	BaseURL string `koanf:"base_url"`
	// API key for authentication.
	APIKey string `koanf:"api_key"`
	// Model to use for sentiment classification.
	Model string `koanf:"model"`
	// Maximum concurrent requests.
	MaxConcurrent int64 `koanf:"max_concurrent"`
}

// Cache contains verdict cache configuration.
type Cache struct {
	// Backend selects the cache implementation ("redis" or "memory").
	Backend string `koanf:"backend"`
	// TTLHours is how long a verdict stays fresh.
	TTLHours int `koanf:"ttl_hours"`
}

// TTL returns the verdict lifetime as a duration, defaulting to 24 hours.
func (c *Cache) TTL() time.Duration {
	if c.TTLHours <= 0 {
		return 24 * time.Hour
	}

	return time.Duration(c.TTLHours) * time.Hour
}

// Redis contains Redis connection configuration.
type Redis struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Status contains status store configuration.
type Status struct {
	// Backend selects the durable store ("sanity" or "postgres").
	Backend    string     `koanf:"backend"`
	Sanity     Sanity     `koanf:"sanity"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
}

// Sanity contains configuration for the Sanity document store backend.
type Sanity struct {
	// Project ID of the Sanity project.
	ProjectID string `koanf:"project_id"`
	// Dataset name within the project.
	Dataset string `koanf:"dataset"`
	// API token with write access.
	Token string `koanf:"token"`
	// API version date (YYYY-MM-DD).
	APIVersion string `koanf:"api_version"`
}

// PostgreSQL contains configuration for the Postgres backend.
type PostgreSQL struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	DBName       string `koanf:"db_name"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	// Connection lifetimes in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	MaxIdleTime int `koanf:"max_idle_time"`
}

// LoadConfig loads the configuration from nicelist.toml.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".nicelist",
		homeDir + "/.nicelist/config",
		"/etc/nicelist/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := path + "/nicelist.toml"
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path

			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: nicelist.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(version int) error {
	if version == 0 {
		return ErrConfigVersionMissing
	}

	if version != CurrentVersion {
		return fmt.Errorf("%w: expected version %d, got %d",
			ErrConfigVersionMismatch, CurrentVersion, version)
	}

	return nil
}
