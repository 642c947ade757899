package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civiclink/guardrails/pkg/guardrails/input_validation"
	"github.com/civiclink/guardrails/pkg/guardrails/output_sanitization"
	"github.com/civiclink/guardrails/pkg/infra/agent"
	"github.com/civiclink/guardrails/pkg/infra/audit"
	"github.com/civiclink/guardrails/pkg/infra/logger"
	"github.com/civiclink/guardrails/pkg/middleware"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig               `mapstructure:"server"`
	Metrics      MetricsConfig              `mapstructure:"metrics"`
	Logging      logger.Config              `mapstructure:"logging"`
	Validation   input_validation.Config    `mapstructure:"validation"`
	Sanitization output_sanitization.Config `mapstructure:"sanitization"`
	Agent        agent.Config               `mapstructure:"agent"`
	Audit        audit.Config               `mapstructure:"audit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	MetricsPort     int           `mapstructure:"metrics_port"`
	BodyLimit       int           `mapstructure:"body_limit"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	CORS middleware.CORSConfig `mapstructure:"cors"`
}

type MetricsConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	EnableFlags      bool `mapstructure:"enable_flags"`
	EnableRedactions bool `mapstructure:"enable_redactions"`
	EnableLatency    bool `mapstructure:"enable_latency"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.body_limit", 1024*1024)
	v.SetDefault("server.read_timeout", "30s")
	// Agent calls can run long; the write timeout has to cover them.
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.cors.allow_origins", []string{})
	v.SetDefault("server.cors.allow_credentials", false)
	v.SetDefault("server.cors.max_age", 600)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.enable_flags", true)
	v.SetDefault("metrics.enable_redactions", true)
	v.SetDefault("metrics.enable_latency", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.buffer_size", 32*1024)

	v.SetDefault("validation.max_length", input_validation.DefaultMaxLength)
	v.SetDefault("validation.suspicious_threshold", input_validation.DefaultSuspiciousThreshold)
	v.SetDefault("validation.extra_injection_patterns", []string{})

	v.SetDefault("sanitization.fallback_message", output_sanitization.DefaultFallbackMessage)
	v.SetDefault("sanitization.protected_numbers", output_sanitization.DefaultProtectedNumbers)

	v.SetDefault("agent.url", "http://localhost:8081/v1/agent/invoke")
	v.SetDefault("agent.timeout", "60s")
	v.SetDefault("agent.breaker.timeout", "30s")
	v.SetDefault("agent.breaker.max_failures", 5)
	v.SetDefault("agent.breaker.max_requests", 1)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.host", "localhost")
	v.SetDefault("audit.port", 6379)
	v.SetDefault("audit.password", "")
	v.SetDefault("audit.db", 0)
	v.SetDefault("audit.queue_size", audit.DefaultQueueSize)
	v.SetDefault("audit.publish_timeout", audit.DefaultPublishTimeout.String())
	v.SetDefault("audit.tls", false)
	v.SetDefault("audit.channel", audit.DefaultChannel)
}

// Load reads config.yaml from configPath, ./config or the working directory,
// then applies environment overrides (server.port -> SERVER_PORT). A missing
// file is not an error; defaults and the environment still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.Port {
		return fmt.Errorf("server.metrics_port must differ from server.port")
	}
	if c.Agent.URL == "" {
		return fmt.Errorf("agent.url is required")
	}
	if c.Validation.SuspiciousThreshold < 0 || c.Validation.SuspiciousThreshold > 1 {
		return fmt.Errorf("validation.suspicious_threshold must be within [0, 1], got %v", c.Validation.SuspiciousThreshold)
	}
	if c.Audit.Enabled && c.Audit.Host == "" {
		return fmt.Errorf("audit.host is required when audit is enabled")
	}
	return nil
}
