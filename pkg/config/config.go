package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"StockSeq/internal/domain/errs"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"dev" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Provider struct {
		APIKey       string        `yaml:"api_key"`
		AuthHeader   string        `yaml:"auth_header" default:"X-Api-Key"`
		BaseURL      string        `yaml:"base_url" default:"https://api.indianapi.com" validate:"required,url"`
		UserAgent    string        `yaml:"user_agent" default:"StockSeq/1.0"`
		Symbols      []string      `yaml:"symbols" default:"[\"TCS\",\"HDFC\",\"RELIANCE\",\"WIPRO\",\"INFY\"]"`
		HistoryDays  int           `yaml:"history_days" default:"250" validate:"gte=1"`
		Timeout      time.Duration `yaml:"timeout" default:"10s"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3" validate:"gte=1,lte=10"`
		BackoffBase  time.Duration `yaml:"backoff_base" default:"1s"`
		BackoffLong  time.Duration `yaml:"backoff_long_base" default:"5s"`
		Extras       []string      `yaml:"extras" validate:"dive,oneof=quote company"`
		Endpoints    struct {
			Historical string `yaml:"historical" default:"/api/historical"`
			Quote      string `yaml:"quote" default:"/api/quote"`
			Company    string `yaml:"company" default:"/api/company"`
		} `yaml:"endpoints"`
	} `yaml:"provider"`
	Quota struct {
		Backend     string `yaml:"backend" default:"file" validate:"oneof=file redis"`
		Path        string `yaml:"path" default:"logs/request_log.json"`
		RedisKey    string `yaml:"redis_key" default:"quota:ledger"`
		DailyLimit  int    `yaml:"daily_limit" default:"10" validate:"gte=1"`
		PeriodLimit int    `yaml:"period_limit" default:"500" validate:"gte=1"`
	} `yaml:"quota"`
	Storage struct {
		DataDir      string `yaml:"data_dir" default:"data"`
		ModelsDir    string `yaml:"models_dir" default:"models"`
		TableBackend string `yaml:"table_backend" default:"csv" validate:"oneof=csv clickhouse"`
	} `yaml:"storage"`
	Features struct {
		RecordsKey       string `yaml:"records_key" default:"data"`
		MAPeriods        []int  `yaml:"ma_periods" default:"[5,10,20]"`
		RSIPeriod        int    `yaml:"rsi_period" default:"14" validate:"gte=2"`
		VolatilityWindow int    `yaml:"volatility_window" default:"10" validate:"gte=2"`
		MinDataPoints    int    `yaml:"min_data_points" default:"30" validate:"gte=1"`
	} `yaml:"features"`
	Sequence struct {
		Lookback        int     `yaml:"lookback" default:"10" validate:"gte=1"`
		TargetColumn    string  `yaml:"target_column" default:"close"`
		TestSplit       float64 `yaml:"test_split" default:"0.1" validate:"gt=0,lt=1"`
		ValidationSplit float64 `yaml:"validation_split" default:"0.2" validate:"gt=0,lt=1"`
		MinSequences    int     `yaml:"min_sequences" default:"100" validate:"gte=1"`
	} `yaml:"sequence"`
	Inference struct {
		ScorerURL         string        `yaml:"scorer_url" default:"http://localhost:8000"`
		Timeout           time.Duration `yaml:"timeout" default:"5s"`
		Attempts          int           `yaml:"attempts" default:"2"`
		DefaultConfidence float64       `yaml:"default_confidence" default:"75" validate:"gte=0,lte=100"`
	} `yaml:"inference"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		StatsCacheTTL   time.Duration `yaml:"stats_cache_ttl" default:"2s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"stockseq"`
		PoolSize int    `yaml:"pool_size" default:"4" validate:"gte=1"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"stockseq"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecTime  time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	Publish struct {
		Enabled bool   `yaml:"enabled"`
		Topic   string `yaml:"topic" default:"stockseq.predictions"`
	} `yaml:"publish"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML configuration file on top of the defaults.
// A missing file is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, errs.Wrap(errs.KindConfiguration, "", err, "parse config")
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env, the YAML file, applies environment overrides and validates.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("INDIANAPI_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Provider.Symbols = splitList(v)
	}
	if v := os.Getenv("QUOTA_BACKEND"); v != "" {
		c.Quota.Backend = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errs.Wrap(errs.KindConfiguration, "", err, "validate config")
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return errs.New(errs.KindConfiguration, "", "provider credential missing: set INDIANAPI_KEY")
	}
	if len(c.Provider.Symbols) == 0 {
		return errs.New(errs.KindConfiguration, "", "provider.symbols cannot be empty")
	}
	if len(c.Features.MAPeriods) == 0 {
		return errs.New(errs.KindConfiguration, "", "features.ma_periods cannot be empty")
	}
	for _, p := range c.Features.MAPeriods {
		if p < 1 {
			return errs.Newf(errs.KindConfiguration, "", "features.ma_periods: invalid window %d", p)
		}
	}
	if need := c.minHistoryRows(); c.Provider.HistoryDays < need {
		return errs.Newf(errs.KindConfiguration, "",
			"provider.history_days %d cannot yield sequence.min_sequences %d: need at least %d rows",
			c.Provider.HistoryDays, c.Sequence.MinSequences, need)
	}
	if c.Publish.Enabled && len(c.Kafka.Brokers) == 0 {
		return errs.New(errs.KindConfiguration, "", "publish.enabled requires kafka.brokers")
	}
	return nil
}

// minHistoryRows is the smallest table that still yields min_sequences windows
// after the longest indicator warm-up. Calendar days give fewer rows than this.
func (c *Config) minHistoryRows() int {
	warm := max(c.Features.RSIPeriod, c.Features.VolatilityWindow)
	for _, p := range c.Features.MAPeriods {
		warm = max(warm, p-1)
	}
	return warm + c.Sequence.Lookback + c.Sequence.MinSequences
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
