// Package config loads application configuration from environment variables
// and an optional notemap.yaml file. It provides a centralized Config struct
// used across the application.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"notemap/internal/sizing"
	"notemap/internal/tree"
)

// configFileEnv names the variable that points at an explicit config file.
const configFileEnv = "NOTEMAP_CONFIG"

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible storage for backup snapshots
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// Sizing and layout
	Weights      sizing.Weights
	TreeMaxDepth int
	TreePageSize int
	LayoutSeed   uint64
}

// defaults maps each configuration key (the lowercased env variable name)
// to its development default.
var defaults = map[string]any{
	"app_host":              "0.0.0.0",
	"app_port":              "8080",
	"app_env":               "development",
	"postgres_host":         "localhost",
	"postgres_port":         "5432",
	"postgres_user":         "notemap",
	"postgres_password":     "changeme",
	"postgres_db":           "notemap",
	"valkey_host":           "localhost",
	"valkey_port":           "6379",
	"valkey_password":       "",
	"s3_endpoint":           "",
	"s3_region":             "fsn1",
	"s3_access_key":         "",
	"s3_secret_key":         "",
	"s3_bucket":             "notemap-backups",
	"size_weight_notes":     sizing.DefaultWeights().NoteCount,
	"size_weight_frequency": sizing.DefaultWeights().EditFrequency,
	"size_weight_manual":    sizing.DefaultWeights().Manual,
	"tree_max_depth":        tree.DefaultMaxDepth,
	"tree_page_size":        tree.DefaultPageSize,
	"layout_seed":           uint64(1),
}

// Load reads configuration from the environment, falling back to a
// notemap.yaml in the working directory (or the file named by
// NOTEMAP_CONFIG) and then to development defaults. Returns an error if
// critical values are missing in production mode.
func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path := os.Getenv(configFileEnv); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("notemap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Host: v.GetString("app_host"),
		Port: v.GetString("app_port"),
		Env:  v.GetString("app_env"),

		DBHost:     v.GetString("postgres_host"),
		DBPort:     v.GetString("postgres_port"),
		DBUser:     v.GetString("postgres_user"),
		DBPassword: v.GetString("postgres_password"),
		DBName:     v.GetString("postgres_db"),

		ValkeyHost:     v.GetString("valkey_host"),
		ValkeyPort:     v.GetString("valkey_port"),
		ValkeyPassword: v.GetString("valkey_password"),

		S3Endpoint:  v.GetString("s3_endpoint"),
		S3Region:    v.GetString("s3_region"),
		S3AccessKey: v.GetString("s3_access_key"),
		S3SecretKey: v.GetString("s3_secret_key"),
		S3Bucket:    v.GetString("s3_bucket"),

		Weights: sizing.Weights{
			NoteCount:     v.GetFloat64("size_weight_notes"),
			EditFrequency: v.GetFloat64("size_weight_frequency"),
			Manual:        v.GetFloat64("size_weight_manual"),
		},
		TreeMaxDepth: v.GetInt("tree_max_depth"),
		TreePageSize: v.GetInt("tree_page_size"),
		LayoutSeed:   v.GetUint64("layout_seed"),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}
	if cfg.TreeMaxDepth < 0 {
		return nil, fmt.Errorf("TREE_MAX_DEPTH must not be negative, got %d", cfg.TreeMaxDepth)
	}
	if cfg.TreePageSize <= 0 {
		return nil, fmt.Errorf("TREE_PAGE_SIZE must be positive, got %d", cfg.TreePageSize)
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ValkeyAddr returns the Valkey address (host:port).
func (c *Config) ValkeyAddr() string {
	return c.ValkeyHost + ":" + c.ValkeyPort
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// BackupsEnabled reports whether S3 credentials are configured.
func (c *Config) BackupsEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
