// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"strings"

	env "github.com/caarlos0/env/v11"
)

// Backend names accepted by StoreConfig and BlobConfig.
const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"

	BlobLocal = "local"
	BlobGCS   = "gcs"
)

// Config is the complete service configuration.
type Config struct {
	HTTP    HTTPConfig    `envPrefix:"HTTP_"`
	Store   StoreConfig   `envPrefix:"STORE_"`
	Blob    BlobConfig    `envPrefix:"BLOB_"`
	Gemini  GeminiConfig  `envPrefix:"GEMINI_"`
	OCR     OCRConfig     `envPrefix:"OCR_"`
	Workers WorkersConfig `envPrefix:"WORKER_"`
}

// HTTPConfig configures the public HTTP server.
type HTTPConfig struct {
	Port           int      `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// StoreConfig selects and configures the job store backend.
type StoreConfig struct {
	Backend          string `env:"BACKEND" envDefault:"memory"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:"jobs.db"`
	FirestoreProject string `env:"FIRESTORE_PROJECT"`
}

// BlobConfig selects and configures document storage.
type BlobConfig struct {
	Backend   string `env:"BACKEND" envDefault:"local"`
	LocalDir  string `env:"LOCAL_DIR" envDefault:"data/blobs"`
	GCSBucket string `env:"GCS_BUCKET"`
}

// GeminiConfig configures the AI structuring client. An empty APIKey puts
// the service in mock mode: AI jobs are served by the local heuristic
// extractor instead of the remote model.
type GeminiConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gemini-2.0-flash"`
	BaseURL string `env:"BASE_URL"`
}

// OCRConfig configures the external OCR tooling.
type OCRConfig struct {
	TesseractBinary string `env:"TESSERACT_BIN" envDefault:"tesseract"`
	PdftoppmBinary  string `env:"PDFTOPPM_BIN" envDefault:"pdftoppm"`
	Language        string `env:"LANGUAGE" envDefault:"eng"`
	MaxPages        int    `env:"MAX_PAGES" envDefault:"10"`
	DPI             int    `env:"DPI" envDefault:"200"`
}

// WorkersConfig sizes the processing pool.
type WorkersConfig struct {
	Count     int `env:"COUNT" envDefault:"4"`
	QueueSize int `env:"QUEUE_SIZE" envDefault:"16"`
}

// Load parses the environment and applies guardrails.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sanitize clamps out-of-range values to usable defaults.
func (c *Config) Sanitize() {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		c.HTTP.Port = 8080
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Blob.Backend = strings.ToLower(strings.TrimSpace(c.Blob.Backend))
	if c.OCR.MaxPages <= 0 {
		c.OCR.MaxPages = 10
	}
	if c.OCR.DPI <= 0 {
		c.OCR.DPI = 200
	}
	if c.Workers.Count <= 0 {
		c.Workers.Count = 4
	}
	if c.Workers.QueueSize <= 0 {
		c.Workers.QueueSize = 16
	}
}

// Validate rejects combinations that cannot start.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite:
	case StoreFirestore:
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("STORE_FIRESTORE_PROJECT is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Blob.Backend {
	case BlobLocal:
	case BlobGCS:
		if c.Blob.GCSBucket == "" {
			return fmt.Errorf("BLOB_GCS_BUCKET is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown blob backend %q", c.Blob.Backend)
	}
	return nil
}

// MockAI reports whether AI structuring should run in mock mode.
func (c *Config) MockAI() bool { return c.Gemini.APIKey == "" }
