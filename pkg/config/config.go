package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"FinEnrich/pkg/logger"
	"FinEnrich/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"required"`
	Log         logger.Config `yaml:"log"`
	Server      struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Source struct {
		Path string `yaml:"path" default:"data/stock_data.csv" validate:"required"`
	} `yaml:"source"`
	Pipeline struct {
		BatchSize  int           `yaml:"batch_size" default:"100" validate:"gte=0"`
		Workers    int           `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
		ZThreshold float64       `yaml:"z_threshold" default:"3" validate:"gt=0"`
		RunTimeout time.Duration `yaml:"run_timeout" default:"10m"`
	} `yaml:"pipeline"`
	Fetch struct {
		Timeout     time.Duration `yaml:"timeout" default:"10s"`
		HTTPTimeout time.Duration `yaml:"http_timeout" default:"15s"`
		RateLimit   struct {
			Quote     float64 `yaml:"quote" default:"5"`
			News      float64 `yaml:"news" default:"1"`
			Sentiment float64 `yaml:"sentiment" default:"1"`
			Burst     int     `yaml:"burst" default:"2" validate:"gte=1"`
		} `yaml:"rate_limit"`
	} `yaml:"fetch"`
	Yahoo struct {
		BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
	} `yaml:"yahoo"`
	News struct {
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url" default:"https://newsapi.org" validate:"url"`
		MaxItems int    `yaml:"max_items" default:"3" validate:"gte=1,lte=100"`
	} `yaml:"news"`
	Finnhub struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url" default:"https://finnhub.io" validate:"url"`
	} `yaml:"finnhub"`
	FX struct {
		BaseURL   string `yaml:"base_url" default:"https://api.exchangerate.host" validate:"url"`
		AccessKey string `yaml:"access_key"`
		Base      string `yaml:"base" default:"USD" validate:"len=3"`
		Quote     string `yaml:"quote" default:"INR" validate:"len=3"`
	} `yaml:"fx"`
	Output struct {
		CSVPath string `yaml:"csv_path" default:"output/final_cleaned_data.csv"`
	} `yaml:"output"`
	Mongo struct {
		Enabled    bool          `yaml:"enabled" default:"true"`
		URI        string        `yaml:"uri" default:"mongodb://localhost:27017"`
		Database   string        `yaml:"database" default:"etl_pipeline_data"`
		Collection string        `yaml:"collection" default:"financial_data"`
		Timeout    time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"mongo"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"enriched-stock-records"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"finenrich"`
		Table            string        `yaml:"table" default:"enriched_records"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Host     string        `yaml:"host" default:"localhost"`
		Port     int           `yaml:"port" default:"6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix" default:"finenrich"`
		LockTTL  time.Duration `yaml:"lock_ttl" default:"30m"`
	} `yaml:"redis"`
	Schedule struct {
		Enabled  bool   `yaml:"enabled" default:"true"`
		Cron     string `yaml:"cron" default:"29 14 * * *"`
		Timezone string `yaml:"timezone" default:"Local"`
	} `yaml:"schedule"`
}

var validate = validator.New()

// Default returns a Config populated only from default tags.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error; defaults plus environment are used instead.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		c = Default()
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			*dst = util.ParseIntDefault(v, *dst)
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("APP_ENV", &c.Environment)
	str("LOG_LEVEL", &c.Log.Level)
	str("SOURCE_PATH", &c.Source.Path)
	integer("BATCH_SIZE", &c.Pipeline.BatchSize)
	integer("WORKERS", &c.Pipeline.Workers)
	str("NEWS_API_KEY", &c.News.APIKey)
	str("FINNHUB_API_KEY", &c.Finnhub.APIKey)
	str("FX_ACCESS_KEY", &c.FX.AccessKey)
	str("OUTPUT_CSV_PATH", &c.Output.CSVPath)
	str("MONGO_URI", &c.Mongo.URI)
	boolean("MONGO_ENABLED", &c.Mongo.Enabled)
	boolean("KAFKA_ENABLED", &c.Kafka.Enabled)
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
	}
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	boolean("CLICKHOUSE_ENABLED", &c.ClickHouse.Enabled)
	str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	boolean("REDIS_ENABLED", &c.Redis.Enabled)
	str("REDIS_HOST", &c.Redis.Host)
	str("SCHEDULE_CRON", &c.Schedule.Cron)
	integer("PORT", &c.Server.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	if c.Mongo.Enabled && (c.Mongo.URI == "" || c.Mongo.Database == "" || c.Mongo.Collection == "") {
		return fmt.Errorf("mongo.uri, mongo.database and mongo.collection are required when mongo is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Table == "" {
		return fmt.Errorf("clickhouse.table is required when clickhouse is enabled")
	}
	if c.Schedule.Enabled && strings.TrimSpace(c.Schedule.Cron) == "" {
		return fmt.Errorf("schedule.cron is required when schedule is enabled")
	}
	return nil
}

// Location resolves the scheduler time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" || c.Schedule.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Schedule.Timezone)
}
