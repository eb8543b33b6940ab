package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvProduction is the deployment mode that selects the production signing secret
const EnvProduction = "production"

const dotEnvFile = ".env"

// Config holds all configuration for the application
type Config struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port          int    `yaml:"port"`
	Host          string `yaml:"host"`
	AllowedOrigin string `yaml:"allowed_origin"`
	StaticDir     string `yaml:"static_dir"`
	MaxUploadMB   int64  `yaml:"max_upload_mb"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// StorageConfig holds S3-compatible object storage configuration
type StorageConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"` // optional CDN/base for object URLs
}

// JWTConfig holds the signing secrets per deployment mode
type JWTConfig struct {
	Secret    string `yaml:"secret"`
	DevSecret string `yaml:"dev_secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when neither file nor environment set a value
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Port:          3000,
			Host:          "0.0.0.0",
			AllowedOrigin: "*",
			MaxUploadMB:   20,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Storage: StorageConfig{
			Endpoint: "https://storage.yandexcloud.net",
			Region:   "ru-central1",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file, then applies .env and environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads path into the environment. A missing file is fine, a malformed one is not.
// Variables already set in the real environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "APP_ENV")
	setString(&c.Server.Host, "HOST")
	setString(&c.Server.AllowedOrigin, "CORS_ORIGIN")
	setString(&c.Server.StaticDir, "STATIC_DIR")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Storage.Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.Region, "S3_REGION")
	setString(&c.Storage.Bucket, "S3_BUCKET_NAME")
	setString(&c.Storage.AccessKey, "S3_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "S3_SECRET_KEY")
	setString(&c.Storage.PublicBaseURL, "S3_PUBLIC_BASE_URL")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.JWT.DevSecret, "JWT_SECRET_DEV")
	setString(&c.Log.Level, "LOG_LEVEL")

	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	return nil
}

// Validate checks that the configuration can start the server
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if c.SigningSecret() == "" {
		return fmt.Errorf("jwt secret for %q mode is required", c.Env)
	}
	return nil
}

// IsProduction reports whether the process runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SigningSecret returns the token signing secret for the configured deployment mode
func (c *Config) SigningSecret() string {
	return c.JWT.SecretFor(c.Env)
}

// SecretFor selects the production secret in production and the dev secret otherwise.
// Outside production the production secret is used when no dev secret is set.
func (j JWTConfig) SecretFor(env string) string {
	if env == EnvProduction {
		return j.Secret
	}
	if j.DevSecret != "" {
		return j.DevSecret
	}
	return j.Secret
}

// MaxUploadBytes returns the upload size limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}
