package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

// DefaultBaseURL is the hadithapi.com hadith listing endpoint
const DefaultBaseURL = "https://hadithapi.com/api/hadiths"

// DefaultEnvFile is loaded from the working directory when present
const DefaultEnvFile = ".env"

var (
	ErrMissingAPIKey = errors.New("HADITH_API_KEY is not set")
	ErrInvalidURL    = errors.New("invalid base URL")
)

// Config holds the settings for a single inspection run
type Config struct {
	APIKey       string
	BaseURL      string
	HadithNumber int           // 0 means fetch a random hadith
	Timeout      time.Duration // 0 means no timeout
	RecordDir    string
}

// Load reads the optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load() (*Config, error) {
	return LoadFrom(DefaultEnvFile)
}

// LoadFrom is Load with an explicit env file path. A missing file is not an error.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
			log.Debugf("No env file at %s, using process environment only", envFile)
		}
	}

	cfg := &Config{
		APIKey:    os.Getenv("HADITH_API_KEY"),
		BaseURL:   os.Getenv("HADITH_API_URL"),
		RecordDir: os.Getenv("HADITH_RECORD_DIR"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if raw := os.Getenv("HADITH_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid HADITH_TIMEOUT %q: %w", raw, err)
		}
		cfg.Timeout = timeout
	}

	return cfg, nil
}

// Validate checks the settings needed for a live request
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, c.BaseURL)
	}
	if c.HadithNumber < 0 {
		return fmt.Errorf("hadith number must be positive, got %d", c.HadithNumber)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}
