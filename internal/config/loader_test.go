package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chess99/BookDistill/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
server:
  host: "localhost"
  port: 9090
  read_timeout: 10
  write_timeout: 10
  max_upload_mb: 20

storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"

parser:
  max_entry_mb: 64
  batch_concurrency: 2

logging:
  level: "debug"
  format: "console"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.MaxUploadMB)
	assert.Equal(t, "local", cfg.Storage.Adapter)
	assert.Equal(t, "/tmp/test", cfg.Storage.Local.BasePath)
	assert.Equal(t, 64, cfg.Parser.MaxEntryMB)
	assert.Equal(t, 2, cfg.Parser.BatchConcurrency)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  adapter: "local"
  local:
    base_path: "/tmp/partial"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 256, cfg.Parser.MaxEntryMB)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/tmp/partial", cfg.Storage.Local.BasePath)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("Invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  port: 70000\n"))
		assert.ErrorContains(t, err, "invalid server port")
	})
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, GetDefault().Server.Port, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*types.Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *types.Config) {},
			wantErr: false,
		},
		{
			name: "invalid port",
			modify: func(c *types.Config) {
				c.Server.Port = 0
			},
			wantErr: true,
		},
		{
			name: "negative parse timeout",
			modify: func(c *types.Config) {
				c.Server.ParseTimeout = -1
			},
			wantErr: true,
		},
		{
			name: "invalid storage adapter",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "invalid"
			},
			wantErr: true,
		},
		{
			name: "missing local base path",
			modify: func(c *types.Config) {
				c.Storage.Local.BasePath = ""
			},
			wantErr: true,
		},
		{
			name: "relative local base path",
			modify: func(c *types.Config) {
				c.Storage.Local.BasePath = "data"
			},
			wantErr: true,
		},
		{
			name: "missing s3 bucket",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "s3"
				c.Storage.S3.Region = "us-east-1"
			},
			wantErr: true,
		},
		{
			name: "missing s3 region",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "s3"
				c.Storage.S3.Bucket = "books"
			},
			wantErr: true,
		},
		{
			name: "valid s3",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "s3"
				c.Storage.S3.Bucket = "books"
				c.Storage.S3.Region = "us-east-1"
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			modify: func(c *types.Config) {
				c.Logging.Level = "verbose"
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			modify: func(c *types.Config) {
				c.Logging.Format = "xml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefault()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := GetDefault()
	cfg.Server.MaxUploadMB = 0
	cfg.Parser.MaxEntryMB = 0
	cfg.Parser.BatchConcurrency = 0
	cfg.Logging.Level = ""
	cfg.Logging.Format = ""
	cfg.Storage.Adapter = "s3"
	cfg.Storage.S3.Bucket = "books"
	cfg.Storage.S3.Region = "eu-west-1"

	require.NoError(t, Validate(cfg))
	assert.Equal(t, 100, cfg.Server.MaxUploadMB)
	assert.Equal(t, 256, cfg.Parser.MaxEntryMB)
	assert.Equal(t, 4, cfg.Parser.BatchConcurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Storage.S3.MaxRetries)
}

func TestEnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
server:
  host: "localhost"
  port: 8080
storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"
`)

	t.Setenv("BD_SERVER_PORT", "9999")
	t.Setenv("BD_STORAGE_LOCAL_BASE_PATH", "/tmp/override")
	t.Setenv("BD_PARSER_MAX_ENTRY_MB", "8")
	t.Setenv("BD_LOG_LEVEL", "warn")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/tmp/override", cfg.Storage.Local.BasePath)
	assert.Equal(t, 8, cfg.Parser.MaxEntryMB)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvOverrides_InvalidNumber(t *testing.T) {
	t.Setenv("BD_SERVER_PORT", "eighty")

	_, err := LoadOrDefault("")
	assert.ErrorContains(t, err, "BD_SERVER_PORT")
}

func TestGetDefault(t *testing.T) {
	cfg := GetDefault()
	require.NotNil(t, cfg)
	assert.Positive(t, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Storage.Adapter)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load("../../config/example.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Server.ParseTimeout)
	assert.Equal(t, "local", cfg.Storage.Adapter)
	assert.Equal(t, 3, cfg.Storage.S3.MaxRetries)
	assert.Equal(t, 4, cfg.Parser.BatchConcurrency)
	assert.Equal(t, "json", cfg.Logging.Format)
}
