package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Storage   Storage   `envPrefix:"STORAGE_"`
		SQLite    SQLite    `envPrefix:"SQLITE_"`
		Redis     Redis     `envPrefix:"REDIS_"`
		S3        S3        `envPrefix:"S3_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
		Cache     Cache     `envPrefix:"CACHE_"`
		Precache  Precache  `envPrefix:"PRECACHE_"`
		Debug     Debug     `envPrefix:"DEBUG_"`

		// Styles is the upstream routing table. It is not read from the
		// environment directly: see LoadStyles and DefaultStyles.
		Styles []Style `env:"-" validate:"-"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"3000" validate:"required,numeric"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"0s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-tilecache"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	Storage struct {
		Backend string `env:"BACKEND" envDefault:"filesystem" validate:"oneof=filesystem sqlite redis s3 memory"`
		Dir     string `env:"DIR" envDefault:"tile-cache" validate:"required_if=Backend filesystem"`
	}

	SQLite struct {
		Path string `env:"PATH" envDefault:"tile-cache.db"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0" validate:"min=0"`
	}

	S3 struct {
		Bucket          string `env:"BUCKET"`
		Prefix          string `env:"PREFIX" envDefault:""`
		Region          string `env:"REGION" envDefault:"us-east-1"`
		Endpoint        string `env:"ENDPOINT" envDefault:""`
		UsePathStyle    bool   `env:"USE_PATH_STYLE" envDefault:"false"`
		AccessKeyID     string `env:"ACCESS_KEY_ID" envDefault:""`
		SecretAccessKey string `env:"SECRET_ACCESS_KEY" envDefault:""`
	}

	Upstream struct {
		UserAgent  string            `env:"USER_AGENT" envDefault:"guide-helper-tilecache/1.0 (+https://github.com/jaennil/guide_helper)" validate:"required"`
		Referer    string            `env:"REFERER" envDefault:"https://guidehelper.ru.tuna.am"`
		Timeout    time.Duration     `env:"TIMEOUT" envDefault:"30s" validate:"gt=0"`
		Shards     []string          `env:"SHARDS" envDefault:"a,b,c" validate:"min=1,dive,required,alphanum"`
		Tokens     map[string]string `env:"TOKENS"`
		StylesFile string            `env:"STYLES_FILE"`
		Offline    bool              `env:"OFFLINE" envDefault:"false"`
	}

	Cache struct {
		SingleFlight bool `env:"SINGLE_FLIGHT" envDefault:"false"`
	}

	Precache struct {
		Enabled        bool     `env:"ENABLED" envDefault:"true"`
		Depth          int      `env:"DEPTH" envDefault:"2" validate:"min=0,max=4"`
		Workers        int      `env:"WORKERS" envDefault:"8" validate:"min=1"`
		QueueSize      int      `env:"QUEUE_SIZE" envDefault:"1024" validate:"min=1"`
		MaxPending     int      `env:"MAX_PENDING" envDefault:"64" validate:"min=1"`
		MaxZoom        int      `env:"MAX_ZOOM" envDefault:"19" validate:"min=0,max=30"`
		BulkMaxZoom    int      `env:"BULK_MAX_ZOOM" envDefault:"14" validate:"min=0,max=30"`
		Schedule       string   `env:"SCHEDULE" envDefault:""`
		ScheduleStyles []string `env:"SCHEDULE_STYLES"`
		ScheduleZoom   int      `env:"SCHEDULE_ZOOM" envDefault:"5" validate:"min=0,max=30"`
	}

	Debug struct {
		HighlightFresh bool `env:"HIGHLIGHT_FRESH" envDefault:"false"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := cfg.loadStyles(); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadStyles fills Styles from the styles file, or the built-in table, and
// applies tokens from UPSTREAM_TOKENS on top.
func (c *Config) loadStyles() error {
	if c.Upstream.StylesFile != "" {
		styles, err := LoadStyles(c.Upstream.StylesFile)
		if err != nil {
			return fmt.Errorf("failed to load styles file: %w", err)
		}
		c.Styles = styles
	} else {
		c.Styles = DefaultStyles()
	}

	for i := range c.Styles {
		if token, ok := c.Upstream.Tokens[c.Styles[i].Name]; ok {
			c.Styles[i].Token = token
		}
	}

	return nil
}

// StyleNames returns configured style names in declaration order.
func (c *Config) StyleNames() []string {
	names := make([]string, 0, len(c.Styles))
	for _, s := range c.Styles {
		names = append(names, s.Name)
	}
	return names
}
