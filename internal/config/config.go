// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port            string        `mapstructure:"PORT"`
	DBHost          string        `mapstructure:"DB_HOST"`
	DBPort          string        `mapstructure:"DB_PORT"`
	DBUser          string        `mapstructure:"DB_USER"`
	DBPassword      string        `mapstructure:"DB_PASSWORD"`
	DBName          string        `mapstructure:"DB_NAME"`
	DBSSLMode       string        `mapstructure:"DB_SSLMODE"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	SessionSecret   string        `mapstructure:"SESSION_SECRET"`
	HFToken         string        `mapstructure:"HF_TOKEN"`
	HFAPIURL        string        `mapstructure:"HF_API_URL"`
	HFModel         string        `mapstructure:"HF_MODEL"`
	ImageTimeout    time.Duration `mapstructure:"IMAGE_TIMEOUT"`
	StaticDir       string        `mapstructure:"STATIC_DIR"`
	StaticURL       string        `mapstructure:"STATIC_URL"`
	LexiconPath     string        `mapstructure:"LEXICON_PATH"`
	DisplayTimezone string        `mapstructure:"DISPLAY_TIMEZONE"`
	DraftTTL        time.Duration `mapstructure:"DRAFT_TTL"`
	FeatureFlags    string        `mapstructure:"FEATURE_FLAGS"`
	Env             string        `mapstructure:"APP_ENV"`
	TracingEnabled  bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string        `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64       `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; env vars alone are a valid configuration.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to merge 'config.%s.yml': %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	viper.SetDefault("PORT", "8293")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "shapediary")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("SESSION_SECRET", "dev-session-secret-change-in-production")
	viper.SetDefault("HF_API_URL", "https://router.huggingface.co/hf-inference/models")
	viper.SetDefault("HF_MODEL", "ByteDance/SDXL-Lightning")
	viper.SetDefault("IMAGE_TIMEOUT", 60*time.Second)
	viper.SetDefault("STATIC_DIR", "static")
	viper.SetDefault("STATIC_URL", "static")
	viper.SetDefault("LEXICON_PATH", "data/feelings.csv")
	viper.SetDefault("DISPLAY_TIMEZONE", "Asia/Tokyo")
	viper.SetDefault("DRAFT_TTL", time.Hour)
	viper.SetDefault("FEATURE_FLAGS", "image_generation=on")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.HFToken = strings.TrimSpace(config.HFToken)
	// The URL path the static directory is served under. Stored image paths
	// embed it, so it is kept slash-free regardless of how it was configured.
	config.StaticURL = strings.Trim(config.StaticURL, "/")
	if config.StaticURL == "" {
		config.StaticURL = "static"
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	// The image-generation credential has no usable default; refuse to start without it.
	if c.HFToken == "" {
		return errors.New("HF_TOKEN is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	if isProduction {
		if c.SessionSecret == "dev-session-secret-change-in-production" {
			return errors.New("SESSION_SECRET must be changed from the default value in production")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	} else {
		if len(c.SessionSecret) < 32 {
			log.Println("WARNING: SESSION_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	return nil
}
