package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"QOFA/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8001" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
		// Aggregated error logs are shipped to kafka.topics.logs when enabled.
		Collect       bool          `yaml:"collect"`
		FlushInterval time.Duration `yaml:"flush_interval" default:"30s"`
		FlushCount    int           `yaml:"flush_count" default:"100" validate:"gt=0"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Engine struct {
		BasisSize             int           `yaml:"basis_size" default:"50" validate:"gt=0,lte=1000"`
		DecoherenceTime       float64       `yaml:"decoherence_time" default:"3600" validate:"gt=0"`
		EntanglementThreshold float64       `yaml:"entanglement_threshold" default:"0.7" validate:"gt=0,lte=1"`
		CoherenceDecayRate    float64       `yaml:"coherence_decay_rate" default:"0.1" validate:"gte=0"`
		TimeSteps             int           `yaml:"time_steps" default:"100" validate:"gt=0"`
		PhaseScale            float64       `yaml:"phase_scale" default:"1" validate:"gt=0"`
		EnergyLookback        int           `yaml:"energy_lookback" default:"10" validate:"gte=0"`
		CorrelationThreshold  float64       `yaml:"correlation_threshold" default:"0.8" validate:"gte=0"`
		MagnitudeThreshold    float64       `yaml:"magnitude_threshold" default:"0.8" validate:"gte=0"`
		BlockVolume           float64       `yaml:"block_volume" default:"1000" validate:"gte=0"`
		VolumeSpikeFactor     float64       `yaml:"volume_spike_factor" default:"2" validate:"gte=0"`
		SignalConfidence      float64       `yaml:"signal_confidence" default:"0.7" validate:"gte=0,lte=1"`
		SignalExpiry          time.Duration `yaml:"signal_expiry" default:"720h"`
		Normalization         string        `yaml:"normalization" default:"peak" validate:"oneof=peak raw"`
	} `yaml:"engine"`

	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers" validate:"required_if=Enabled true"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Topics       struct {
			Ticks   string `yaml:"ticks" default:"qofa.ticks"`
			Signals string `yaml:"signals" default:"qofa.signals"`
			Logs    string `yaml:"logs" default:"qofa.logs"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"qofa-flow"`
			Workers    int           `yaml:"workers" default:"4" validate:"gt=0"`
			BufferSize int           `yaml:"buffer_size" default:"1000" validate:"gt=0"`
			RetryMax   int           `yaml:"retry_max" default:"3" validate:"gte=0"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"qofa.ticks.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost" validate:"required_if=Enabled true"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"qofa"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		AsyncInsert  bool          `yaml:"async_insert"`
		HistoryLimit int           `yaml:"history_limit" default:"500" validate:"gt=1"`
	} `yaml:"clickhouse"`

	Cache struct {
		TTL   time.Duration `yaml:"ttl" default:"30s"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	RateLimit struct {
		Enabled bool    `yaml:"enabled" default:"true"`
		RPS     float64 `yaml:"rps" default:"5" validate:"gt=0"`
		Burst   int     `yaml:"burst" default:"10" validate:"gt=0"`
	} `yaml:"ratelimit"`

	Pipeline struct {
		Window   int           `yaml:"window" default:"50" validate:"gte=2"`
		Stride   int           `yaml:"stride" default:"10" validate:"gt=0"`
		Shards   int           `yaml:"shards" default:"4" validate:"gt=0"`
		Buffer   int           `yaml:"buffer" default:"1024" validate:"gt=0"`
		Cooldown time.Duration `yaml:"cooldown" default:"1s"`
	} `yaml:"pipeline"`
}

var validate = validator.New()

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML file, fills unset fields with defaults and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML bytes over them and validates. Keys
// present in the document win, so an explicit `enabled: false` survives.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("QOFA_ENV"); ok && v != "" {
		c.Environment = v
	}
	if v, ok := lookup("QOFA_HTTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QOFA_HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("QOFA_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v, ok := lookup("CLICKHOUSE_HOST"); ok && v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v, ok := lookup("CLICKHOUSE_PASSWORD"); ok {
		c.ClickHouse.Password = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	return nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Pipeline.Stride > c.Pipeline.Window {
		return fmt.Errorf("pipeline.stride %d exceeds pipeline.window %d", c.Pipeline.Stride, c.Pipeline.Window)
	}
	return nil
}
