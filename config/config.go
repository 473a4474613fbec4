package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Cache    CacheConfig
	Display  DisplayConfig
	Batch    BatchConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig holds search aggregator API configuration
type ProviderConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	RequestsPerHour int    `mapstructure:"requests_per_hour"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// DisplayConfig holds ranking/display shaping configuration
type DisplayConfig struct {
	GroupCap  int     `mapstructure:"group_cap"`
	PageSize  int     `mapstructure:"page_size"`
	PriceBand float64 `mapstructure:"price_band"`
}

// BatchConfig holds batch orchestration configuration
type BatchConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
	MaxItems    int           `mapstructure:"max_items"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Best-effort .env load; existing environment variables win and a
	// missing file is fine.
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricelens/")

	// Environment variable settings
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Provider defaults
	v.SetDefault("provider.base_url", "https://api.pricelens.example.com")
	v.SetDefault("provider.requests_per_hour", 1000)

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")

	// Display defaults
	v.SetDefault("display.group_cap", 5)
	v.SetDefault("display.page_size", 6)
	v.SetDefault("display.price_band", 0.9)

	// Batch defaults
	v.SetDefault("batch.max_attempts", 3)
	v.SetDefault("batch.backoff", "1s")
	v.SetDefault("batch.max_items", 5)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Provider.APIKey == "" {
		return fmt.Errorf("provider API key is required (set PRICELENS_PROVIDER_API_KEY)")
	}

	if config.Display.GroupCap <= 0 {
		return fmt.Errorf("display group cap must be positive, got: %d", config.Display.GroupCap)
	}

	if config.Display.PageSize <= 0 {
		return fmt.Errorf("display page size must be positive, got: %d", config.Display.PageSize)
	}

	if config.Batch.MaxAttempts <= 0 {
		return fmt.Errorf("batch max attempts must be positive, got: %d", config.Batch.MaxAttempts)
	}

	return nil
}
