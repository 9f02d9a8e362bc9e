package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Extract  ExtractConfig  `yaml:"extract"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ExtractConfig holds extraction worker and artifact configuration
type ExtractConfig struct {
	ArtifactCacheDir string        `yaml:"artifact_cache_dir"`
	MaxFileSizeMB    int           `yaml:"max_file_size_mb"`
	Workers          int           `yaml:"workers"`
	QueueSize        int           `yaml:"queue_size"`
	ProcessTimeout   time.Duration `yaml:"process_timeout"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8001"),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Extract: ExtractConfig{
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			MaxFileSizeMB:    getEnvAsInt("MAX_FILE_SIZE_MB", 10),
			Workers:          getEnvAsInt("EXTRACT_WORKERS", 4),
			QueueSize:        getEnvAsInt("EXTRACT_QUEUE_SIZE", 64),
			ProcessTimeout:   getEnvAsDuration("EXTRACT_PROCESS_TIMEOUT", 30*time.Second),
		},
	}
}

// LoadConfigFile loads configuration from the environment, then overlays
// values from a YAML file. Fields absent from the file keep their
// environment-derived values.
func LoadConfigFile(path string) (*Config, error) {
	cfg := LoadConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(err, "read config file")
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, WrapError(err, "parse config file")
	}
	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Extract.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_WORKERS must be at least 1", ErrInvalidInput)
	}
	if c.Extract.MaxFileSizeMB < 1 {
		return NewAppError("CONFIG_ERROR", "MAX_FILE_SIZE_MB must be at least 1", ErrInvalidInput)
	}
	return nil
}
