package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "sqlite", cfg.Catalog.Dialect)
	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(defaultConfigWithOverrides(), path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Catalog.Dialect)
	assert.Equal(t, "s3", cfg.Backend.Kind)
}

func defaultConfigWithOverrides() *Config {
	cfg := defaultConfig()
	cfg.Catalog.Dialect = "postgres"
	cfg.Catalog.Host = "db.internal"
	cfg.Catalog.Database = "corevault"
	cfg.Backend.Kind = "s3"
	cfg.Backend.Bucket = "corevault-objects"
	return cfg
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	cfg := defaultConfig()
	cfg.HTTP.ListenAddr = ""
	assert.Error(t, validate.Struct(cfg))
}
