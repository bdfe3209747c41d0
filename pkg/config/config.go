package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultWatchlist is used when no symbols are configured.
var DefaultWatchlist = []string{"RELIANCE", "TCS", "INFY", "HDFCBANK", "ICICIBANK"}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Provider struct {
		BaseURL       string        `yaml:"base_url"`
		Timeout       time.Duration `yaml:"timeout"`
		HistoryMonths int           `yaml:"history_months"` // how far back chunked fetches reach
		ChunkMonths   int           `yaml:"chunk_months"`   // width of each range query
		RateCapacity  float64       `yaml:"rate_capacity"`  // token bucket for outbound calls
		RateRefill    float64       `yaml:"rate_refill"`
	} `yaml:"provider"`
	Chart struct {
		CacheTTL      time.Duration `yaml:"cache_ttl"`
		QuoteCacheTTL time.Duration `yaml:"quote_cache_ttl"`
		MaxCandles    int           `yaml:"max_candles"`
	} `yaml:"chart"`
	Watchlist struct {
		Symbols      []string      `yaml:"symbols"`
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"watchlist"`
	Live struct {
		Backend      string        `yaml:"backend"` // kafka or clickhouse
		Source       string        `yaml:"source"`  // websocket or poll
		StreamURL    string        `yaml:"stream_url"`
		StreamToken  string        `yaml:"stream_token"`
		PollInterval time.Duration `yaml:"poll_interval"`
		Reconnect    time.Duration `yaml:"reconnect_delay"`
		PingInterval time.Duration `yaml:"ping_interval"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"live"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("WATCHLIST_SYMBOLS"); v != "" {
		c.Watchlist.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("LIVE_BACKEND"); v != "" {
		c.Live.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if len(c.Watchlist.Symbols) == 0 {
		c.Watchlist.Symbols = DefaultWatchlist
	}
	if c.Watchlist.PollInterval <= 0 {
		c.Watchlist.PollInterval = 10 * time.Second
	}
	if c.Live.PollInterval <= 0 {
		c.Live.PollInterval = 5 * time.Second
	}
	if c.Live.Source == "" {
		c.Live.Source = "poll"
	}
	if c.Provider.HistoryMonths <= 0 {
		c.Provider.HistoryMonths = 24
	}
	if c.Provider.ChunkMonths <= 0 {
		c.Provider.ChunkMonths = 3
	}
	if c.Chart.CacheTTL <= 0 {
		c.Chart.CacheTTL = time.Minute
	}
	if c.Chart.QuoteCacheTTL <= 0 {
		c.Chart.QuoteCacheTTL = 5 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Live.Backend != "" && c.Live.Backend != "kafka" && c.Live.Backend != "clickhouse" {
		return fmt.Errorf("live.backend must be 'kafka' or 'clickhouse', got '%s'", c.Live.Backend)
	}
	if c.Live.Source != "poll" && c.Live.Source != "websocket" {
		return fmt.Errorf("live.source must be 'poll' or 'websocket', got '%s'", c.Live.Source)
	}
	if c.Live.Source == "websocket" && c.Live.StreamURL == "" {
		return fmt.Errorf("live.stream_url is required for websocket source")
	}
	return nil
}
