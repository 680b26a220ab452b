// Package config loads the service configuration.
//
// Loading order:
//  1. .env (secrets and APP_ENV)
//  2. configs/{APP_ENV}.yaml
//  3. environment variables, which override the YAML values
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/book-network/cmd/api/auth"
	"github.com/book-network/cmd/api/logging"
	"github.com/book-network/cmd/api/storage"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	CoversLocal = "local"
	CoversMinIO = "minio"
)

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	URL            string `yaml:"url"`
	MigrationsPath string `yaml:"migrations_path"`
}

type AccountsConfig struct {
	ActivationTTL time.Duration `yaml:"activation_ttl"`
}

type CoversConfig struct {
	Backend  string              `yaml:"backend"`
	LocalDir string              `yaml:"local_dir"`
	MinIO    storage.MinIOConfig `yaml:"minio"`
}

type NotificationsConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	Env           Environment         `yaml:"-"`
	Store         string              `yaml:"store"`
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          auth.Config         `yaml:"auth"`
	Accounts      AccountsConfig      `yaml:"accounts"`
	Covers        CoversConfig        `yaml:"covers"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Log           logging.Config      `yaml:"log"`
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
}

func Default() *Config {
	return &Config{
		Env:   EnvDevelopment,
		Store: StoreMemory,
		Server: ServerConfig{
			Port:           8080,
			RequestTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         "postgres",
			MigrationsPath: "migrations",
		},
		Auth:     auth.DefaultConfig(),
		Accounts: AccountsConfig{ActivationTTL: 15 * time.Minute},
		Covers: CoversConfig{
			Backend:  CoversLocal,
			LocalDir: "uploads",
			MinIO:    storage.MinIOConfig{Bucket: "book-network"},
		},
		Notifications: NotificationsConfig{
			BaseURL: "https://ntfy.sh/book_network",
			Timeout: 5 * time.Second,
		},
		Log: logging.Config{Level: "info", Format: "text"},
	}
}

/* Loads .env, the YAML file of APP_ENV and the environment overrides, then validates the result. */
func Load() (*Config, error) {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := parseEnv(os.Getenv("APP_ENV"))
	cfg := Default()
	cfg.Env = env

	paths := configPaths
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		paths = []string{dir}
	}
	err := loadYAML(cfg, paths, fmt.Sprintf("%s.yaml", env))
	if err != nil {
		return nil, err
	}

	err = applyEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

/* Decodes the first file named filename found in paths over cfg. A missing file is not an error. */
func loadYAML(cfg *Config, paths []string, filename string) error {
	for _, base := range paths {
		path := filepath.Join(base, filename)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		return nil
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Store, "STORE")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.MigrationsPath, "DATABASE_MIGRATIONS_PATH")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Covers.Backend, "COVERS_BACKEND")
	setString(&cfg.Covers.LocalDir, "COVERS_LOCAL_DIR")
	setString(&cfg.Covers.MinIO.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Covers.MinIO.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Covers.MinIO.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Covers.MinIO.Bucket, "MINIO_BUCKET")
	setString(&cfg.Notifications.BaseURL, "NTFY_BASE_URL")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	errs := []error{
		setBool(&cfg.Covers.MinIO.UseSSL, "MINIO_USE_SSL"),
		setBool(&cfg.Notifications.Enabled, "NTFY_ENABLED"),
		setInt(&cfg.Server.Port, "HTTP_PORT"),
		setDuration(&cfg.Server.RequestTimeout, "HTTP_REQUEST_TIMEOUT"),
		setDuration(&cfg.Auth.AccessTokenTTL, "JWT_ACCESS_TOKEN_TTL"),
		setDuration(&cfg.Notifications.Timeout, "NTFY_TIMEOUT"),
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = i
	return nil
}

// Durations must carry a unit suffix, like 5s.
func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = d
	return nil
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

/* Reports every missing or inconsistent setting at once. */
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.Env == EnvProduction && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must have at least 32 characters in production"))
	}

	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when store is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q, want %q or %q", c.Store, StoreMemory, StorePostgres))
	}

	switch c.Covers.Backend {
	case CoversLocal:
		if c.Covers.LocalDir == "" {
			errs = append(errs, errors.New("covers local_dir is required for the local backend"))
		}
	case CoversMinIO:
		if c.Covers.MinIO.Endpoint == "" || c.Covers.MinIO.AccessKey == "" || c.Covers.MinIO.SecretKey == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown covers backend %q", c.Covers.Backend))
	}

	if c.Notifications.Enabled && c.Notifications.BaseURL == "" {
		errs = append(errs, errors.New("NTFY_BASE_URL is required when notifications are enabled"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid http port %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Store: %s, DB: %s, Covers: %s, Port: %d}",
		c.Env, c.Store, maskPassword(c.Database.URL), c.Covers.Backend, c.Server.Port)
}

var passwordInURL = regexp.MustCompile(`(://[^:]+:)([^@]+)(@)`)

func maskPassword(url string) string {
	return passwordInURL.ReplaceAllString(url, "${1}***${3}")
}
