package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the receiver configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address. An empty host binds all interfaces.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type IngestionConfig struct {
	// MaxBodyBytes caps the request body. Zero means unlimited.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

func (a AdminConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type RelayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
	Name    string `mapstructure:"name"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AgentConfig is the host monitor agent configuration.
type AgentConfig struct {
	Agent   AgentSettings `mapstructure:"agent"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AgentSettings struct {
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
	DiskPath string        `mapstructure:"disk_path"`
	ProcRoot string        `mapstructure:"proc_root"`
	SysRoot  string        `mapstructure:"sys_root"`
	// LogFile is appended to when set, otherwise logs go to stdout.
	LogFile string `mapstructure:"log_file"`
	// MetricsAddr serves the agent's /metrics when set, e.g. ":9100".
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load reads the receiver configuration. RECEIVER_* environment variables
// override file values, e.g. RECEIVER_SERVER_PORT.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("ingestion.max_body_bytes", 0)
	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.host", "")
	v.SetDefault("admin.port", 9090)
	v.SetDefault("relay.enabled", false)
	v.SetDefault("relay.url", "nats://localhost:4222")
	v.SetDefault("relay.subject", "receiver.data")
	v.SetDefault("relay.name", "telhawk-receiver")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if err := read(v, configPath, "receiver", "RECEIVER"); err != nil {
		return nil, err
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

// LoadAgent reads the monitor agent configuration. MONITORD_* environment
// variables override file values, e.g. MONITORD_AGENT_URL.
func LoadAgent(configPath string) (*AgentConfig, error) {
	v := viper.New()

	v.SetDefault("agent.url", "http://localhost:8080/data")
	v.SetDefault("agent.interval", "10s")
	v.SetDefault("agent.timeout", "5s")
	v.SetDefault("agent.disk_path", "/")
	v.SetDefault("agent.proc_root", "/proc")
	v.SetDefault("agent.sys_root", "/sys")
	v.SetDefault("agent.log_file", "")
	v.SetDefault("agent.metrics_addr", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if err := read(v, configPath, "monitord", "MONITORD"); err != nil {
		return nil, err
	}

	var cfg AgentConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func read(v *viper.Viper, configPath, name, envPrefix string) error {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/telhawk/" + name)
	}

	// Environment variables override
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}
	return nil
}

// Validate checks the receiver configuration for values the servers cannot use.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Admin.Enabled && (c.Admin.Port < 1 || c.Admin.Port > 65535) {
		return fmt.Errorf("invalid admin.port %d", c.Admin.Port)
	}
	if c.Ingestion.MaxBodyBytes < 0 {
		return fmt.Errorf("ingestion.max_body_bytes must not be negative")
	}
	if c.Relay.Enabled && c.Relay.Subject == "" {
		return fmt.Errorf("relay.subject is required when the relay is enabled")
	}
	return nil
}

// Validate checks the agent configuration.
func (c *AgentConfig) Validate() error {
	if c.Agent.URL == "" {
		return fmt.Errorf("agent.url is required")
	}
	if c.Agent.Interval <= 0 {
		return fmt.Errorf("agent.interval must be positive")
	}
	return nil
}
