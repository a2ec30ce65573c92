package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/romanconv/romanconv/internal/config/common"
	"github.com/romanconv/romanconv/internal/util"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"
)

// Config holds the configuration for the roman numeral API service.
type Config struct {
	Service *ServiceConfig        `json:"service,omitempty"`
	Metrics *common.MetricsConfig `json:"metrics,omitempty"`
	Tracing *common.TracingConfig `json:"tracing,omitempty"`
}

// ServiceConfig holds API service-specific configuration.
type ServiceConfig struct {
	Address               string                     `json:"address,omitempty"`
	LogLevel              string                     `json:"logLevel,omitempty"`
	StaticDir             string                     `json:"staticDir,omitempty"`
	Cors                  *CorsConfig                `json:"cors,omitempty"`
	HttpReadTimeout       util.Duration              `json:"httpReadTimeout,omitempty"`
	HttpReadHeaderTimeout util.Duration              `json:"httpReadHeaderTimeout,omitempty"`
	HttpWriteTimeout      util.Duration              `json:"httpWriteTimeout,omitempty"`
	HttpIdleTimeout       util.Duration              `json:"httpIdleTimeout,omitempty"`
	HttpMaxNumHeaders     int                        `json:"httpMaxNumHeaders,omitempty"`
	HttpMaxHeaderBytes    int                        `json:"httpMaxHeaderBytes,omitempty"`
	HttpMaxUrlLength      int                        `json:"httpMaxUrlLength,omitempty"`
	HttpMaxRequestSize    int                        `json:"httpMaxRequestSize,omitempty"`
	RateLimit             *common.RateLimitConfig    `json:"rateLimit,omitempty"`
	HealthChecks          *common.HealthChecksConfig `json:"healthChecks,omitempty"`
}

// CorsConfig lists the values sent in the Access-Control-Allow-* response headers.
type CorsConfig struct {
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
	AllowedMethods []string `json:"allowedMethods,omitempty"`
	AllowedHeaders []string `json:"allowedHeaders,omitempty"`
}

// ConfigOption is a functional option for configuring the service config.
type ConfigOption func(*Config)

// WithTracingEnabled enables tracing.
func WithTracingEnabled() ConfigOption {
	return func(c *Config) {
		c.Tracing = &common.TracingConfig{
			Enabled: true,
		}
	}
}

// WithStaticDir serves the single-page front end from dir.
func WithStaticDir(dir string) ConfigOption {
	return func(c *Config) {
		c.Service.StaticDir = dir
	}
}

// NewDefault returns a default configuration.
func NewDefault(opts ...ConfigOption) *Config {
	c := &Config{
		Service: &ServiceConfig{
			Address:  ":8080",
			LogLevel: "info",
			Cors: &CorsConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
			},
			HttpReadTimeout:       util.Duration(30 * time.Second),
			HttpReadHeaderTimeout: util.Duration(10 * time.Second),
			HttpWriteTimeout:      util.Duration(30 * time.Second),
			HttpIdleTimeout:       util.Duration(2 * time.Minute),
			HttpMaxNumHeaders:     32,
			HttpMaxHeaderBytes:    32 * 1024, // 32KB
			HttpMaxUrlLength:      2000,
			HttpMaxRequestSize:    1024 * 1024, // 1MB
			RateLimit:             common.NewDefaultRateLimit(),
			HealthChecks:          common.NewDefaultHealthChecks(),
		},
		Metrics: common.NewDefaultMetrics(),
		Tracing: common.NewDefaultTracingConfig(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return common.ConfigFile()
}

// Load loads the configuration from a file on top of the defaults.
func Load(cfgFile string) (*Config, error) {
	contents, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	c := NewDefault()
	if err := yaml.Unmarshal(contents, c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	return c, nil
}

// LoadOrGenerate loads the config or generates a default one if not found.
func LoadOrGenerate(cfgFile string) (*Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if err := common.EnsureConfigDir(cfgFile); err != nil {
			return nil, err
		}
		if err := Save(NewDefault(), cfgFile); err != nil {
			return nil, err
		}
	}

	cfg, err := Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a file.
func Save(cfg *Config, cfgFile string) error {
	return common.SaveConfig(cfg, cfgFile)
}

// applyEnvOverrides honours the PORT and LOG_LEVEL variables of the container runtime.
func (c *Config) applyEnvOverrides() {
	if c.Service != nil {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			if _, err := strconv.ParseUint(port, 10, 16); err == nil {
				c.Service.Address = ":" + port
			}
		}
		if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
			c.Service.LogLevel = level
		}
	}
	if c.Tracing != nil {
		c.Tracing.ApplyEnvOverrides()
	}
}

func (c *Config) applyDefaults() {
	if c.Service == nil {
		return
	}
	if c.Service.Cors != nil {
		c.Service.Cors.AllowedOrigins = normalize(c.Service.Cors.AllowedOrigins)
		c.Service.Cors.AllowedMethods = lo.Map(normalize(c.Service.Cors.AllowedMethods), func(m string, _ int) string {
			return strings.ToUpper(m)
		})
		c.Service.Cors.AllowedHeaders = normalize(c.Service.Cors.AllowedHeaders)
	}
}

func normalize(values []string) []string {
	trimmed := lo.Map(values, func(v string, _ int) string { return strings.TrimSpace(v) })
	return lo.Uniq(lo.Compact(trimmed))
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service == nil {
		return fmt.Errorf("service configuration is missing")
	}
	s := c.Service
	if s.Address == "" {
		return fmt.Errorf("service.address must be set")
	}
	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("service.logLevel: %w", err)
	}
	for name, d := range map[string]util.Duration{
		"httpReadTimeout":       s.HttpReadTimeout,
		"httpReadHeaderTimeout": s.HttpReadHeaderTimeout,
		"httpWriteTimeout":      s.HttpWriteTimeout,
		"httpIdleTimeout":       s.HttpIdleTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("service.%s must be positive", name)
		}
	}
	if s.HttpMaxNumHeaders <= 0 || s.HttpMaxUrlLength <= 0 || s.HttpMaxRequestSize <= 0 || s.HttpMaxHeaderBytes <= 0 {
		return fmt.Errorf("service HTTP size limits must be positive")
	}
	if s.StaticDir != "" {
		fi, err := os.Stat(s.StaticDir)
		if err != nil {
			return fmt.Errorf("service.staticDir: %w", err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("service.staticDir: %s is not a directory", s.StaticDir)
		}
	}
	if s.RateLimit != nil {
		if err := s.RateLimit.Validate(); err != nil {
			return err
		}
	}
	if s.HealthChecks != nil {
		if err := s.HealthChecks.Validate(); err != nil {
			return err
		}
	}
	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return err
		}
	}
	if c.Tracing != nil {
		if err := c.Tracing.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) String() string {
	contents, err := json.Marshal(c)
	if err != nil {
		return "<error>"
	}
	return string(contents)
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	if c.Service != nil {
		return c.Service.LogLevel
	}
	return "info"
}
