package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alkime/snacks/internal/content"
	"github.com/alkime/snacks/internal/keyring"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"

	// CSPStrict selects the locked-down Content-Security-Policy.
	CSPStrict = "strict"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	// Security settings
	HSTSMaxAge     int      `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode        string   `envconfig:"CSP_MODE" default:"relaxed"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	// Static web client, served from / when set
	StaticDir string `envconfig:"STATIC_DIR"`

	// Largest accepted audio upload in bytes (Whisper caps files at 25 MiB)
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"26214400"`

	// Provider settings
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey    string `envconfig:"ANTHROPIC_API_KEY"`
	TranscriptionModel string `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-1"`
	GenerationProvider string `envconfig:"GENERATION_PROVIDER" default:"openai"`
	GenerationModel    string `envconfig:"GENERATION_MODEL"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from .env file and environment variables.
// Provider keys missing from the environment are looked up in the keychain.
func LoadConfig() (*Config, error) {
	// .env is optional; production sets real environment variables
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("error loading .env file", "error", err)
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	config.OpenAIAPIKey = keyring.Resolve(keyring.OpenAI, config.OpenAIAPIKey)
	if config.GenerationProvider == content.ProviderAnthropic {
		config.AnthropicAPIKey = keyring.Resolve(keyring.Anthropic, config.AnthropicAPIKey)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required for transcription"))
	}

	if !slices.Contains([]string{content.ProviderOpenAI, content.ProviderAnthropic}, c.GenerationProvider) {
		errs = append(errs, fmt.Errorf("GENERATION_PROVIDER must be %q or %q, got %q",
			content.ProviderOpenAI, content.ProviderAnthropic, c.GenerationProvider))
	}

	if c.GenerationProvider == content.ProviderAnthropic && c.AnthropicAPIKey == "" {
		errs = append(errs, errors.New("ANTHROPIC_API_KEY is required when GENERATION_PROVIDER=anthropic"))
	}

	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}

	if c.HSTSMaxAge < 0 {
		errs = append(errs, fmt.Errorf("HSTS_MAX_AGE must not be negative, got %d", c.HSTSMaxAge))
	}

	if slices.Contains(c.AllowedOrigins, "*") && len(c.AllowedOrigins) > 1 {
		errs = append(errs, errors.New("ALLOWED_ORIGINS cannot mix \"*\" with explicit origins"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// GenerationAPIKey returns the key for the configured workout provider.
func (c *Config) GenerationAPIKey() string {
	if c.GenerationProvider == content.ProviderAnthropic {
		return c.AnthropicAPIKey
	}

	return c.OpenAIAPIKey
}

// BuildCSP constructs Content Security Policy based on mode.
func BuildCSP(mode string) string {
	if strings.EqualFold(mode, CSPStrict) {
		// Production CSP; the web client records audio and calls same-origin APIs
		return "default-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self'; " +
			"img-src 'self' data:; " +
			"media-src 'self' blob:; " +
			"connect-src 'self'; " +
			"object-src 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	}

	// Development/relaxed CSP
	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; " +
		"media-src 'self' blob:"
}
