package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Gemini     GeminiConfig
	OCR        OCRConfig
	Extraction ExtractionConfig
	Search     SearchConfig
	Database   DatabaseConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	UploadDir      string   `mapstructure:"upload_dir"`
}

// GeminiConfig holds vision model configuration. An empty API key is
// allowed; extraction then falls back to a deterministic stub record.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OCRConfig holds local text-recognition configuration
type OCRConfig struct {
	Languages string `mapstructure:"languages"`
}

// ExtractionConfig selects the extraction strategy
type ExtractionConfig struct {
	Strategy     string `mapstructure:"strategy"` // "vision" or "pattern"
	DebugLogging bool   `mapstructure:"debug_logging"`
}

// SearchConfig holds web-search configuration
type SearchConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Region  string `mapstructure:"region"`
}

// DatabaseConfig holds persistence configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/packlens/")

	// Environment variable settings
	v.SetEnvPrefix("PACKLENS")
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
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.upload_dir", "uploaded_images")

	// Vision model defaults. The empty api_key default registers the
	// key so the env var is visible to Unmarshal.
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")

	// OCR defaults
	v.SetDefault("ocr.languages", "jpn+eng")

	// Extraction defaults
	v.SetDefault("extraction.strategy", "vision")
	v.SetDefault("extraction.debug_logging", false)

	// Search defaults
	v.SetDefault("search.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.region", "jp-jp")

	// Database defaults
	v.SetDefault("database.path", "products.db")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Extraction.Strategy != "vision" && config.Extraction.Strategy != "pattern" {
		return fmt.Errorf("extraction strategy must be 'vision' or 'pattern', got: %s", config.Extraction.Strategy)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	return nil
}
