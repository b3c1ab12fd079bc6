package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	envconfig "recipe-box/pkg/config"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendBolt      = "bolt"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// DefaultStoreKey is the namespace key under which the local recipe collection is saved.
const DefaultStoreKey = "my_saved_recipes_v1"

// AppConfig is the configuration shared by the API server, the worker and the CLI.
// Values come from defaults, then an optional YAML file, then environment variables.
type AppConfig struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	MealDB   MealDBConfig   `yaml:"mealdb"`
	Images   ImageConfig    `yaml:"images"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	LogLevel string         `yaml:"log_level"`
}

type HTTPConfig struct {
	Addr               string        `yaml:"addr"`
	ReadHeaderTimeout  time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	CSPEnabled         bool          `yaml:"csp_enabled"`
	CSPReportOnly      bool          `yaml:"csp_report_only"`

	// SearchRateLimit requests per SearchRateWindow are allowed per client IP
	// on the search endpoint.
	SearchRateLimit  int           `yaml:"search_rate_limit"`
	SearchRateWindow time.Duration `yaml:"search_rate_window"`
}

type StoreConfig struct {
	Backend             string `yaml:"backend"`
	Path                string `yaml:"path"`
	Key                 string `yaml:"key"`
	DatabaseURL         string `yaml:"database_url"`
	FirestoreProject    string `yaml:"firestore_project"`
	FirestoreCollection string `yaml:"firestore_collection"`
	SeedDefaults        bool   `yaml:"seed_defaults"`
}

type MealDBConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   float64       `yaml:"rate_limit"`
	Burst       int           `yaml:"burst"`
	MaxBodySize int64         `yaml:"max_body_size"`
}

type ImageConfig struct {
	Proxy           bool  `yaml:"proxy"`
	Height          uint  `yaml:"height"`
	MaxBodySize     int64 `yaml:"max_body_size"`
	MaxPixels       int64 `yaml:"max_pixels"`
	DenyPrivateIPs  bool  `yaml:"deny_private_ips"`
	CacheMaxEntries int   `yaml:"cache_max_entries"`
}

type SnapshotConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
	Dir      string `yaml:"dir"`
	Keep     int    `yaml:"keep"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		HTTP: HTTPConfig{
			Addr:               ":8080",
			ReadHeaderTimeout:  10 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			CORSAllowedOrigins: []string{"*"},
			RequestTimeout:     30 * time.Second,
			CSPEnabled:         true,
			SearchRateLimit:    60,
			SearchRateWindow:   time.Minute,
		},
		Store: StoreConfig{
			Backend:             BackendBolt,
			Path:                "recipes.bolt",
			Key:                 DefaultStoreKey,
			FirestoreCollection: "kv",
			SeedDefaults:        true,
		},
		MealDB: MealDBConfig{
			BaseURL:     "https://www.themealdb.com/api/json/v1/1",
			Timeout:     10 * time.Second,
			RateLimit:   5,
			Burst:       10,
			MaxBodySize: 5 * 1024 * 1024,
		},
		Images: ImageConfig{
			Proxy:           true,
			Height:          500,
			MaxBodySize:     10 * 1024 * 1024,
			MaxPixels:       40_000_000,
			DenyPrivateIPs:  true,
			CacheMaxEntries: 128,
		},
		Snapshot: SnapshotConfig{
			Cron:     "0 3 * * *",
			Timezone: "UTC",
			Dir:      "snapshots",
			Keep:     7,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration. When RECIPE_BOX_CONFIG names a YAML file it is
// applied over the defaults; environment variables override both.
func Load() (*AppConfig, error) {
	cfg := Default()

	if path := os.Getenv("RECIPE_BOX_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile decodes a YAML file on top of the current values.
// The path parameter is expected to come from a trusted source (environment or CLI flag).
func (c *AppConfig) mergeFile(path string) error {
	// #nosec G304 -- path is provided by the operator, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	c.HTTP.Addr = envconfig.GetEnvString("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.CORSAllowedOrigins = envconfig.GetEnvStringList("CORS_ALLOWED_ORIGINS", c.HTTP.CORSAllowedOrigins)
	c.HTTP.RequestTimeout = envconfig.GetEnvDuration("HTTP_REQUEST_TIMEOUT", c.HTTP.RequestTimeout)
	c.HTTP.CSPEnabled = envconfig.GetEnvBool("CSP_ENABLED", c.HTTP.CSPEnabled)
	c.HTTP.CSPReportOnly = envconfig.GetEnvBool("CSP_REPORT_ONLY", c.HTTP.CSPReportOnly)
	c.HTTP.SearchRateLimit = envconfig.GetEnvInt("SEARCH_RATE_LIMIT", c.HTTP.SearchRateLimit)
	c.HTTP.SearchRateWindow = envconfig.GetEnvDuration("SEARCH_RATE_WINDOW", c.HTTP.SearchRateWindow)

	c.Store.Backend = strings.ToLower(envconfig.GetEnvString("STORE_BACKEND", c.Store.Backend))
	c.Store.Path = envconfig.GetEnvString("STORE_PATH", c.Store.Path)
	c.Store.Key = envconfig.GetEnvString("STORE_KEY", c.Store.Key)
	c.Store.DatabaseURL = envconfig.GetEnvString("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.FirestoreProject = envconfig.GetEnvString("FIRESTORE_PROJECT_ID", c.Store.FirestoreProject)
	c.Store.FirestoreCollection = envconfig.GetEnvString("FIRESTORE_COLLECTION", c.Store.FirestoreCollection)
	c.Store.SeedDefaults = envconfig.GetEnvBool("SEED_DEFAULTS", c.Store.SeedDefaults)

	c.MealDB.BaseURL = envconfig.GetEnvString("MEALDB_BASE_URL", c.MealDB.BaseURL)
	c.MealDB.Timeout = envconfig.GetEnvDuration("MEALDB_TIMEOUT", c.MealDB.Timeout)
	c.MealDB.RateLimit = envconfig.GetEnvFloat("MEALDB_RATE_LIMIT", c.MealDB.RateLimit)
	c.MealDB.Burst = envconfig.GetEnvInt("MEALDB_BURST", c.MealDB.Burst)
	c.MealDB.MaxBodySize = envconfig.GetEnvInt64("MEALDB_MAX_BODY_SIZE", c.MealDB.MaxBodySize)

	c.Images.Proxy = envconfig.GetEnvBool("IMAGE_PROXY_ENABLED", c.Images.Proxy)
	c.Images.DenyPrivateIPs = envconfig.GetEnvBool("IMAGE_PROXY_DENY_PRIVATE_IPS", c.Images.DenyPrivateIPs)
	c.Images.MaxPixels = envconfig.GetEnvInt64("IMAGE_PROXY_MAX_PIXELS", c.Images.MaxPixels)

	c.Snapshot.Cron = envconfig.GetEnvString("SNAPSHOT_CRON", c.Snapshot.Cron)
	c.Snapshot.Timezone = envconfig.GetEnvString("SNAPSHOT_TIMEZONE", c.Snapshot.Timezone)
	c.Snapshot.Dir = envconfig.GetEnvString("SNAPSHOT_DIR", c.Snapshot.Dir)
	c.Snapshot.Keep = envconfig.GetEnvInt("SNAPSHOT_KEEP", c.Snapshot.Keep)

	c.LogLevel = envconfig.GetEnvString("LOG_LEVEL", c.LogLevel)
}

// Validate checks configuration correctness.
func (c *AppConfig) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR cannot be empty")
	}
	if err := envconfig.ValidatePositiveDuration(c.HTTP.RequestTimeout); err != nil {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT: %w", err)
	}
	if c.HTTP.SearchRateLimit <= 0 {
		return fmt.Errorf("SEARCH_RATE_LIMIT must be positive")
	}
	if err := envconfig.ValidatePositiveDuration(c.HTTP.SearchRateWindow); err != nil {
		return fmt.Errorf("SEARCH_RATE_WINDOW: %w", err)
	}

	switch c.Store.Backend {
	case BackendBolt, BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the %s backend", c.Store.Backend)
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendFirestore:
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND %q is not one of bolt, sqlite, postgres, firestore, memory", c.Store.Backend)
	}

	if strings.TrimSpace(c.Store.Key) == "" {
		return fmt.Errorf("STORE_KEY cannot be empty")
	}

	if !strings.HasPrefix(c.MealDB.BaseURL, "http://") && !strings.HasPrefix(c.MealDB.BaseURL, "https://") {
		return fmt.Errorf("MEALDB_BASE_URL must be an http or https URL")
	}
	if err := envconfig.ValidatePositiveDuration(c.MealDB.Timeout); err != nil {
		return fmt.Errorf("MEALDB_TIMEOUT: %w", err)
	}
	if c.MealDB.RateLimit <= 0 || c.MealDB.Burst <= 0 {
		return fmt.Errorf("MEALDB_RATE_LIMIT and MEALDB_BURST must be positive")
	}
	if c.MealDB.MaxBodySize <= 0 {
		return fmt.Errorf("MEALDB_MAX_BODY_SIZE must be positive")
	}

	if c.Images.Height == 0 || c.Images.MaxBodySize <= 0 {
		return fmt.Errorf("images height and max_body_size must be positive")
	}
	if c.Images.MaxPixels <= 0 {
		return fmt.Errorf("IMAGE_PROXY_MAX_PIXELS must be positive")
	}

	if c.Snapshot.Keep < 1 {
		return fmt.Errorf("SNAPSHOT_KEEP must be at least 1")
	}

	return nil
}
