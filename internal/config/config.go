// Package config provides configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jobrunner/envmap/internal/domain"
)

// Environmental data modes.
const (
	APIModeLive   = "live"
	APIModeStatic = "static"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Layers     LayersConfig     `mapstructure:"layers"`
	Projection ProjectionConfig `mapstructure:"projection"`
	API        APIConfig        `mapstructure:"api"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Mirror     MirrorConfig     `mapstructure:"mirror"`
	TLS        TLSConfig        `mapstructure:"tls"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	FrontendEnabled bool          `mapstructure:"frontend_enabled"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"` // e.g., ["https://example.com", "*.sub.domain.tld"]
}

// Enabled returns true if CORS is configured with at least one allowed origin.
func (c *CORSConfig) Enabled() bool {
	return len(c.AllowedOrigins) > 0
}

// StorageConfig holds layer asset storage configuration.
type StorageConfig struct {
	Type      string      `mapstructure:"type"` // s3, azure, http, local
	LocalPath string      `mapstructure:"local_path"`
	S3        S3Config    `mapstructure:"s3"`
	Azure     AzureConfig `mapstructure:"azure"`
	HTTP      HTTPConfig  `mapstructure:"http"`
}

// S3Config holds AWS S3 configuration.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// AzureConfig holds Azure Blob Storage configuration.
type AzureConfig struct {
	Container        string `mapstructure:"container"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	ConnectionString string `mapstructure:"connection_string"`
	Prefix           string `mapstructure:"prefix"`
}

// HTTPConfig holds HTTP download configuration.
type HTTPConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	IndexFile string        `mapstructure:"index_file"` // default: index.txt
	Timeout   time.Duration `mapstructure:"timeout"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
}

// LayersConfig holds the layer registry and loading options.
type LayersConfig struct {
	// Definitions replaces the built-in Dominica layers when non-empty.
	Definitions    []domain.LayerConfig `mapstructure:"definitions"`
	Concurrency    int                  `mapstructure:"concurrency"` // 0 = one goroutine per layer
	Timeout        time.Duration        `mapstructure:"timeout"`     // per layer
	ReloadInterval time.Duration        `mapstructure:"reload_interval"`
	TempDir        string               `mapstructure:"temp_dir"` // GeoPackage scratch files
}

// Registry returns the configured layers, or the built-in set when none
// are defined.
func (c *LayersConfig) Registry() (*domain.Registry, error) {
	if len(c.Definitions) == 0 {
		return domain.NewRegistry(domain.DefaultLayers())
	}
	return domain.NewRegistry(c.Definitions)
}

// ProjectionConfig selects the UTM zone assumed for projected coordinates.
type ProjectionConfig struct {
	UTMZone  int  `mapstructure:"utm_zone"`
	Northern bool `mapstructure:"northern"`
}

// APIConfig holds the environmental prediction API configuration.
type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Mode    string        `mapstructure:"mode"` // live, static
	Timeout time.Duration `mapstructure:"timeout"`
}

// WatchConfig holds hot-reload configuration for local storage.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// MirrorConfig holds the target of the mirror command.
type MirrorConfig struct {
	Dir string `mapstructure:"dir"`
}

// TLSConfig holds TLS/CertMagic configuration.
type TLSConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Domains  []string     `mapstructure:"domains"`
	Email    string       `mapstructure:"email"`
	CacheDir string       `mapstructure:"cache_dir"`
	Staging  bool         `mapstructure:"staging"` // Use Let's Encrypt staging
	DNS      TLSDNSConfig `mapstructure:"dns"`
}

// TLSDNSConfig holds the Azure DNS settings for DNS-01 challenges.
type TLSDNSConfig struct {
	SubscriptionID    string `mapstructure:"subscription_id"`
	ResourceGroupName string `mapstructure:"resource_group_name"`
	ClientID          string `mapstructure:"client_id"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// Defaults sets the default configuration values.
func Defaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
	viper.SetDefault("server.idle_timeout", 120*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.frontend_enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{})

	// Storage defaults
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local_path", "./public")
	viper.SetDefault("storage.http.index_file", "index.txt")
	viper.SetDefault("storage.http.timeout", 5*time.Minute)

	// Layer loading defaults
	viper.SetDefault("layers.concurrency", 0)
	viper.SetDefault("layers.timeout", 2*time.Minute)
	viper.SetDefault("layers.reload_interval", time.Duration(0))
	viper.SetDefault("layers.temp_dir", "")

	// Dominica lies in UTM zone 20N
	viper.SetDefault("projection.utm_zone", 20)
	viper.SetDefault("projection.northern", true)

	// Environmental API defaults
	viper.SetDefault("api.url", "http://localhost:8080")
	viper.SetDefault("api.mode", APIModeLive)
	viper.SetDefault("api.timeout", 10*time.Second)

	viper.SetDefault("watch.enabled", true)
	viper.SetDefault("watch.debounce", 500*time.Millisecond)

	viper.SetDefault("mirror.dir", "./mirror")

	// TLS defaults
	viper.SetDefault("tls.enabled", false)
	viper.SetDefault("tls.cache_dir", "./.certmagic")
	viper.SetDefault("tls.staging", false)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// LoadDotEnv loads variables from .env files without overriding the
// environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load loads configuration from environment and config file.
func Load(configPath string) (*Config, error) {
	Defaults()

	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	// Environment variable binding
	viper.SetEnvPrefix("ENVMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The frontend build variable is honored as well.
	_ = viper.BindEnv("api.url", "ENVMAP_API_URL", "VITE_API_URL")

	// Config file
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/envmap")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &domain.ConfigError{Field: "server.port", Message: fmt.Sprintf("invalid server port: %d", c.Server.Port)}
	}

	if c.TLS.Enabled {
		if len(c.TLS.Domains) == 0 {
			return &domain.ConfigError{Field: "tls.domains", Message: "TLS enabled but no domains specified"}
		}
		if c.TLS.Email == "" {
			return &domain.ConfigError{Field: "tls.email", Message: "TLS enabled but no email specified"}
		}
	}

	if err := c.Storage.validate(); err != nil {
		return err
	}

	switch c.API.Mode {
	case APIModeLive:
		u, err := url.Parse(c.API.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &domain.ConfigError{Field: "api.url", Message: fmt.Sprintf("invalid API URL: %q", c.API.URL)}
		}
	case APIModeStatic:
	default:
		return &domain.ConfigError{Field: "api.mode", Message: fmt.Sprintf("unknown API mode: %s", c.API.Mode)}
	}

	if c.Layers.Concurrency < 0 {
		return &domain.ConfigError{Field: "layers.concurrency", Message: "must not be negative"}
	}
	if c.Layers.ReloadInterval < 0 {
		return &domain.ConfigError{Field: "layers.reload_interval", Message: "must not be negative"}
	}
	if c.Projection.UTMZone < 1 || c.Projection.UTMZone > 60 {
		return &domain.ConfigError{Field: "projection.utm_zone", Message: fmt.Sprintf("invalid UTM zone: %d", c.Projection.UTMZone)}
	}

	if _, err := c.Layers.Registry(); err != nil {
		return err
	}

	return nil
}

func (c *StorageConfig) validate() error {
	switch c.Type {
	case "local":
		if c.LocalPath == "" {
			return &domain.ConfigError{Field: "storage.local_path", Message: "local storage path is required"}
		}
	case "s3":
		if c.S3.Bucket == "" {
			return &domain.ConfigError{Field: "storage.s3.bucket", Message: "S3 bucket is required"}
		}
		if c.S3.Region == "" {
			return &domain.ConfigError{Field: "storage.s3.region", Message: "S3 region is required"}
		}
	case "azure":
		if c.Azure.Container == "" {
			return &domain.ConfigError{Field: "storage.azure.container", Message: "azure container is required"}
		}
		if c.Azure.AccountName == "" && c.Azure.ConnectionString == "" {
			return &domain.ConfigError{Field: "storage.azure", Message: "azure account name or connection string is required"}
		}
	case "http":
		if c.HTTP.BaseURL == "" {
			return &domain.ConfigError{Field: "storage.http.base_url", Message: "HTTP base URL is required"}
		}
	default:
		return &domain.ConfigError{Field: "storage.type", Message: fmt.Sprintf("unknown storage type: %s", c.Type)}
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
