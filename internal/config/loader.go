package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chess99/BookDistill/internal/storage"
	"github.com/chess99/BookDistill/pkg/types"
	"gopkg.in/yaml.v3"
)

// envPrefix marks environment variables that override file settings
const envPrefix = "BD_"

// Load reads and parses the configuration file.
// Values not present in the file keep their defaults, and environment
// variables with the BD_ prefix override both.
func Load(configPath string) (*types.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault loads configPath when it is set and otherwise starts from the defaults
func LoadOrDefault(configPath string) (*types.Config, error) {
	if configPath != "" {
		return Load(configPath)
	}
	return finish(GetDefault())
}

func finish(cfg *types.Config) (*types.Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid and fills in defaults for
// optional tuning values.
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Server.ParseTimeout < 0 {
		return fmt.Errorf("invalid parse timeout: %d", cfg.Server.ParseTimeout)
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 100
	}

	switch cfg.Storage.Adapter {
	case storage.AdapterLocal:
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	case storage.AdapterS3:
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
		if cfg.Storage.S3.MaxRetries <= 0 {
			cfg.Storage.S3.MaxRetries = 3
		}
	default:
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	if cfg.Parser.MaxEntryMB <= 0 {
		cfg.Parser.MaxEntryMB = 256
	}
	if cfg.Parser.BatchConcurrency <= 0 {
		cfg.Parser.BatchConcurrency = 4
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "":
		cfg.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "":
		cfg.Logging.Format = "json"
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s (must be 'json' or 'console')", cfg.Logging.Format)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *types.Config) error {
	strs := map[string]*string{
		"SERVER_HOST":                  &cfg.Server.Host,
		"STORAGE_ADAPTER":              &cfg.Storage.Adapter,
		"STORAGE_LOCAL_BASE_PATH":      &cfg.Storage.Local.BasePath,
		"STORAGE_S3_BUCKET":            &cfg.Storage.S3.Bucket,
		"STORAGE_S3_REGION":            &cfg.Storage.S3.Region,
		"STORAGE_S3_ENDPOINT":          &cfg.Storage.S3.Endpoint,
		"STORAGE_S3_PREFIX":            &cfg.Storage.S3.Prefix,
		"STORAGE_S3_ACCESS_KEY_ID":     &cfg.Storage.S3.AccessKeyID,
		"STORAGE_S3_SECRET_ACCESS_KEY": &cfg.Storage.S3.SecretAccessKey,
		"LOG_LEVEL":                    &cfg.Logging.Level,
		"LOG_FORMAT":                   &cfg.Logging.Format,
	}
	for name, dst := range strs {
		if val := os.Getenv(envPrefix + name); val != "" {
			*dst = val
		}
	}

	ints := map[string]*int{
		"SERVER_PORT":              &cfg.Server.Port,
		"SERVER_MAX_UPLOAD_MB":     &cfg.Server.MaxUploadMB,
		"SERVER_PARSE_TIMEOUT":     &cfg.Server.ParseTimeout,
		"PARSER_MAX_ENTRY_MB":      &cfg.Parser.MaxEntryMB,
		"PARSER_BATCH_CONCURRENCY": &cfg.Parser.BatchConcurrency,
	}
	for name, dst := range ints {
		val := os.Getenv(envPrefix + name)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}

	return nil
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15,
			WriteTimeout: 15,
			MaxUploadMB:  100,
		},
		Storage: types.StorageConfig{
			Adapter: storage.AdapterLocal,
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/bookdistill/storage",
			},
		},
		Parser: types.ParserConfig{
			MaxEntryMB:       256,
			BatchConcurrency: 4,
		},
		Logging: types.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
