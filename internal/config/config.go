package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Queue    QueueConfig     `yaml:"queue"`
	Printer  PrinterConfig   `yaml:"printer"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
	Logging  LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type QueueConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxRetries      int           `yaml:"max_retries"`
	RetentionDays   int           `yaml:"retention_days"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type PrinterConfig struct {
	Address           string        `yaml:"address"`
	Port              int           `yaml:"port"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
	Simulation        bool          `yaml:"simulation"`
}

type WebhookConfig struct {
	Name   string   `yaml:"name"`
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret"`
	Events []string `yaml:"events"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/job_queue.db",
		},
		Queue: QueueConfig{
			PollInterval:    5 * time.Second,
			MaxRetries:      3,
			RetentionDays:   7,
			CleanupInterval: 24 * time.Hour,
		},
		Printer: PrinterConfig{
			Port:              9100,
			ConnectionTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return applyEnv(cfg), nil
}

func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("PRINTQ_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("PRINTQ_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("PRINTQ_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Queue.PollInterval = d
		}
	}

	if v := os.Getenv("PRINTQ_PRINTER_ADDRESS"); v != "" {
		cfg.Printer.Address = v
	}

	if v := os.Getenv("PRINTQ_SIMULATION"); v != "" {
		cfg.Printer.Simulation = v == "true" || v == "1"
	}

	if v := os.Getenv("PRINTQ_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Queue.PollInterval <= 0 {
		return fmt.Errorf("queue poll interval must be positive")
	}

	if c.Queue.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}

	if c.Queue.RetentionDays < 0 {
		return fmt.Errorf("retention days must be non-negative")
	}

	if c.Queue.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup interval must be positive")
	}

	if !c.Printer.Simulation {
		if c.Printer.Address == "" {
			return fmt.Errorf("printer address is required unless simulation is enabled")
		}
		if c.Printer.Port < 1 || c.Printer.Port > 65535 {
			return fmt.Errorf("printer port must be between 1 and 65535, got %d", c.Printer.Port)
		}
	}

	if c.Printer.ConnectionTimeout < 0 {
		return fmt.Errorf("printer connection timeout must be non-negative")
	}

	for i, wh := range c.Webhooks {
		if wh.URL == "" {
			return fmt.Errorf("webhook %d: url is required", i)
		}
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":  true,
		"text":  true,
		"plain": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text, plain)", c.Logging.Format)
	}

	return nil
}
