package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

const (
	DataModeLive     = "live"
	DataModeMock     = "mock"
	DataModeFallback = "fallback"

	ConnectionModeDirect = "direct"
	ConnectionModeProxy  = "proxy"
)

type Config struct {
	ParcelNinja ParcelNinjaConfig `yaml:"parcelninja"`
	Stores      []StoreConfig     `yaml:"stores"`
	Freshdesk   FreshdeskConfig   `yaml:"freshdesk"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
	ShipDesk    ShipDeskConfig    `yaml:"shipdesk"`
}

type ParcelNinjaConfig struct {
	BaseURL            string `yaml:"base_url"`
	ForwardURL         string `yaml:"forward_url"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	PageSize           int    `yaml:"page_size"`
	LookbackDays       int    `yaml:"lookback_days"`
	// 0: one calendar year
	SearchLookbackDays int    `yaml:"search_lookback_days"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	DataMode           string `yaml:"data_mode"`      // "live" | "mock" | "fallback"
	SimulatedToday     string `yaml:"simulated_today"` // YYYY-MM-DD, mock generator only
}

type StoreConfig struct {
	Name     string `yaml:"name"`
	StoreID  string `yaml:"store_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type FreshdeskConfig struct {
	Domain                  string `yaml:"domain"`
	APIKey                  string `yaml:"api_key"`
	ProxyURL                string `yaml:"proxy_url"`
	ConnectionMode          string `yaml:"connection_mode"` // "direct" | "proxy"
	MetadataCacheTTLSeconds int    `yaml:"metadata_cache_ttl_seconds"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	RecordsSyncedTopicName string `yaml:"records_synced_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ShipDeskConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	WorkerHTTPAddr            string `yaml:"worker_http_addr"`
	WorkerPollIntervalSeconds int    `yaml:"worker_poll_interval_seconds"`
}

// secrets that may be supplied through the environment instead of the yaml file.
type envOverrides struct {
	FreshdeskDomain         string `env:"FRESHDESK_DOMAIN"`
	FreshdeskAPIKey         string `env:"FRESHDESK_API_KEY"`
	FreshdeskProxyURL       string `env:"FRESHDESK_PROXY_URL"`
	FreshdeskConnectionMode string `env:"FRESHDESK_CONNECTION_MODE"`
	ParcelNinjaForwardURL   string `env:"PARCELNINJA_FORWARD_URL"`
	ParcelNinjaDataMode     string `env:"PARCELNINJA_DATA_MODE"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadDotEnv loads an optional env file. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("failed to parse env overrides: %w", err)
	}
	setIfNotEmpty(&c.Freshdesk.Domain, o.FreshdeskDomain)
	setIfNotEmpty(&c.Freshdesk.APIKey, o.FreshdeskAPIKey)
	setIfNotEmpty(&c.Freshdesk.ProxyURL, o.FreshdeskProxyURL)
	setIfNotEmpty(&c.Freshdesk.ConnectionMode, o.FreshdeskConnectionMode)
	setIfNotEmpty(&c.ParcelNinja.ForwardURL, o.ParcelNinjaForwardURL)
	setIfNotEmpty(&c.ParcelNinja.DataMode, o.ParcelNinjaDataMode)
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate reports configuration that makes normal operation impossible.
func (c *Config) Validate() error {
	if len(c.Stores) == 0 {
		return fmt.Errorf("at least one store is required")
	}
	seen := make(map[string]struct{}, len(c.Stores))
	for i, s := range c.Stores {
		if s.Name == "" {
			return fmt.Errorf("stores[%d]: name is required", i)
		}
		if s.StoreID == "" {
			return fmt.Errorf("stores[%d] (%s): store_id is required", i, s.Name)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("stores[%d]: duplicate store name %q", i, s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	switch c.ParcelNinja.DataMode {
	case "", DataModeLive, DataModeMock, DataModeFallback:
	default:
		return fmt.Errorf("parcelninja.data_mode: unknown mode %q", c.ParcelNinja.DataMode)
	}

	switch c.Freshdesk.ConnectionMode {
	case "", ConnectionModeDirect, ConnectionModeProxy:
	default:
		return fmt.Errorf("freshdesk.connection_mode: unknown mode %q", c.Freshdesk.ConnectionMode)
	}
	if c.Freshdesk.ConnectionMode == ConnectionModeProxy && c.Freshdesk.ProxyURL == "" {
		return fmt.Errorf("freshdesk.proxy_url is required in proxy mode")
	}
	return nil
}
