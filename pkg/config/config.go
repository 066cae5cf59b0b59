// Package config loads the CoreVault daemon's static configuration: viper
// for file/env layering, mapstructure decode hooks for human-readable
// durations and byte sizes, go-playground/validator for structural
// validation.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (COREVAULT_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// An environment variable only overrides a key that the configuration file
// sets. When no configuration file is found, the defaults are used and the
// environment is not read. No command-line flags feed into Config.
//
// Tenant-level policy (quotas, blocked extensions, compliance mode) is NOT
// here — it lives in the tenant-config projection (pkg/tenantconfig),
// managed out of band and kept out of this static Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mladen4o/ClovaLink/internal/bytesize"
)

// Config is the root of the CoreVault daemon's static configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	Catalog      CatalogConfig      `mapstructure:"catalog" yaml:"catalog"`
	Backend      BackendConfig      `mapstructure:"backend" yaml:"backend"`
	TenantCache  TenantCacheConfig  `mapstructure:"tenant_cache" yaml:"tenant_cache"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler" yaml:"scheduler"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" yaml:"orchestrator"`
	HTTP         HTTPConfig         `mapstructure:"http" yaml:"http"`
	Metrics      MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry" yaml:"telemetry"`
	Admin        AdminConfig        `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls log/slog output behavior (internal/logger).
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error DEBUG INFO WARN ERROR" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// CatalogConfig configures C3's GORM store (spec §4.3 Persisted state layout).
type CatalogConfig struct {
	Dialect string `mapstructure:"dialect" validate:"required,oneof=sqlite postgres" yaml:"dialect"`

	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path,omitempty"`

	Host         string `mapstructure:"host" yaml:"host,omitempty"`
	Port         int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port,omitempty"`
	Database     string `mapstructure:"database" yaml:"database,omitempty"`
	User         string `mapstructure:"user" yaml:"user,omitempty"`
	Password     string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode      string `mapstructure:"ssl_mode" yaml:"ssl_mode,omitempty"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns,omitempty"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns,omitempty"`
}

// BackendConfig configures C1's object storage adapter (spec §4.1).
type BackendConfig struct {
	Kind string `mapstructure:"kind" validate:"required,oneof=localdir s3" yaml:"kind"`

	// localdir
	BasePath string `mapstructure:"base_path" yaml:"base_path,omitempty"`

	// s3
	Bucket          string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Region          string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	UsePathStyle    bool   `mapstructure:"use_path_style" yaml:"use_path_style,omitempty"`

	// ScratchDir is where the content-addressed store streams uploads before
	// they are hashed and committed (spec §4.2 step 1).
	ScratchDir string `mapstructure:"scratch_dir" validate:"required" yaml:"scratch_dir"`
}

// TenantCacheConfig configures the embedded badger projection of
// per-tenant policy (pkg/tenantconfig; spec §9's cached projection).
type TenantCacheConfig struct {
	Path string `mapstructure:"path" validate:"required" yaml:"path"`
}

// SchedulerConfig configures C5's size-classed semaphores (spec §4.5).
type SchedulerConfig struct {
	SmallThreshold  bytesize.Size `mapstructure:"small_threshold" yaml:"small_threshold,omitempty"`
	MediumThreshold bytesize.Size `mapstructure:"medium_threshold" yaml:"medium_threshold,omitempty"`

	SmallCapacity  int64 `mapstructure:"small_capacity" yaml:"small_capacity,omitempty"`
	MediumCapacity int64 `mapstructure:"medium_capacity" yaml:"medium_capacity,omitempty"`
	LargeCapacity  int64 `mapstructure:"large_capacity" yaml:"large_capacity,omitempty"`
}

// OrchestratorConfig configures C6's policy knobs (spec §4.6).
type OrchestratorConfig struct {
	PresignedURLsEnabled bool          `mapstructure:"presigned_urls_enabled" yaml:"presigned_urls_enabled"`
	PresignTTL           time.Duration `mapstructure:"presign_ttl" yaml:"presign_ttl,omitempty"`
	CDNHost              string        `mapstructure:"cdn_host" yaml:"cdn_host,omitempty"`
	MaxPackSize          bytesize.Size `mapstructure:"max_pack_size" yaml:"max_pack_size,omitempty"`
	MaxAutoRenameProbes  int           `mapstructure:"max_auto_rename_probes" yaml:"max_auto_rename_probes,omitempty"`
}

// HTTPConfig configures the chi-based inbound operation surface (spec §6).
type HTTPConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout,omitempty"`

	// JWTPublicKeyPath points at the PEM-encoded key the gateway verifies
	// inbound bearer tokens against (spec §1: "authentication token
	// verification is explicitly in scope; issuing tokens is not").
	// Required for the HTTP surface to start; left optional here so a bare
	// catalog/backend smoke test doesn't need a key on disk to validate.
	JWTPublicKeyPath string `mapstructure:"jwt_public_key_path" yaml:"jwt_public_key_path,omitempty"`

	SchemaEndpointEnabled bool `mapstructure:"schema_endpoint_enabled" yaml:"schema_endpoint_enabled"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port,omitempty"`
}

// TelemetryConfig configures OpenTelemetry trace export (internal/telemetry).
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure,omitempty"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate,omitempty"`
}

// AdminConfig seeds the first platform-admin actor during `corevaultd init`.
type AdminConfig struct {
	TenantID string `mapstructure:"tenant_id" yaml:"tenant_id,omitempty"`
	ActorID  string `mapstructure:"actor_id" yaml:"actor_id,omitempty"`
}

var validate = validator.New()

// Load reads configuration from file, environment, and defaults, then
// validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks())); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration the way Load does, but returns a
// user-actionable error (pointing at `corevaultd init`) when the config
// file is simply missing, rather than viper's bare "not found" error.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"initialize one first:\n  corevaultd init\n\n"+
				"or point at an existing file:\n  corevaultd start --config /path/to/config.yaml",
				DefaultConfigPath())
		}
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}
	return Load(configPath)
}

// DefaultConfigExists reports whether a config file exists at the default path.
func DefaultConfigExists() bool {
	_, err := os.Stat(DefaultConfigPath())
	return err == nil
}

// Save writes cfg to path as YAML, with owner-only permissions since the
// file may carry database and object-storage credentials.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func defaultConfig() *Config {
	return &Config{
		Logging:         LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		ShutdownTimeout: 30 * time.Second,
		Catalog:         CatalogConfig{Dialect: "sqlite", SQLitePath: "./corevault-catalog.db"},
		Backend:         BackendConfig{Kind: "localdir", BasePath: "./corevault-objects", ScratchDir: "./corevault-scratch"},
		TenantCache:     TenantCacheConfig{Path: "./corevault-tenant-cache"},
		Scheduler: SchedulerConfig{
			SmallThreshold: bytesize.MiB, MediumThreshold: 64 * bytesize.MiB,
			SmallCapacity: 256, MediumCapacity: 32, LargeCapacity: 4,
		},
		Orchestrator: OrchestratorConfig{
			PresignTTL: 15 * time.Minute, MaxPackSize: 500 * bytesize.MiB, MaxAutoRenameProbes: 20,
		},
		HTTP:      HTTPConfig{ListenAddr: ":8080", ReadTimeout: 30 * time.Second, WriteTimeout: 5 * time.Minute},
		Metrics:   MetricsConfig{Enabled: true, Port: 9090},
		Telemetry: TelemetryConfig{Enabled: false, Endpoint: "localhost:4317", Insecure: true, SampleRate: 0.1},
	}
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("COREVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(byteSizeHook(), durationHook())
}

func byteSizeHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.Size(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.Size(v), nil
		case int64:
			return bytesize.Size(v), nil
		case float64:
			return bytesize.Size(v), nil
		default:
			return data, nil
		}
	}
}

func durationHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "corevault")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "corevault")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}
