package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const configPathEnv = "RATES_CONFIG_PATH"

type RatesConfig struct {
	Env          string `yaml:"env" env:"RATES_ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	LogConfig    `yaml:"log_config"`
	Feeds        `yaml:"feeds"`
	Rates        `yaml:"rates"`
	Cache        `yaml:"cache"`
	RatesDB      `yaml:"rates_db"`
	KafkaService `yaml:"kafka-service"`
	Redis        `yaml:"redis"`
	RateLimit    `yaml:"rate_limit"`
}

type HTTPServer struct {
	Host         string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"30s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type Feeds struct {
	CoinGeckoURL     string        `yaml:"coingecko_url" env:"COINGECKO_URL" env-default:"https://api.coingecko.com/api/v3"`
	ERAPIURL         string        `yaml:"erapi_url" env:"ERAPI_URL" env-default:"https://open.er-api.com"`
	Timeout          time.Duration `yaml:"timeout" env:"FEED_TIMEOUT" env-default:"5s"`
	FallbackDisabled bool          `yaml:"fallback_disabled" env:"FEED_FALLBACK_DISABLED"`
}

// Rates are the last-resort values used when every feed for a pair fails.
type Rates struct {
	DefaultUSDNGN float64 `yaml:"default_usd_ngn" env-default:"1550"`
	DefaultUSDEUR float64 `yaml:"default_usd_eur" env-default:"0.92"`
	DefaultUSDGBP float64 `yaml:"default_usd_gbp" env-default:"0.79"`
	DefaultBTCUSD float64 `yaml:"default_btc_usd" env-default:"67500"`
}

type Cache struct {
	StaleAfter        time.Duration `yaml:"stale_after" env:"CACHE_STALE_AFTER" env-default:"30s"`
	RefreshInterval   time.Duration `yaml:"refresh_interval" env:"CACHE_REFRESH_INTERVAL" env-default:"60s"`
	RefreshTimeout    time.Duration `yaml:"refresh_timeout" env:"CACHE_REFRESH_TIMEOUT" env-default:"15s"`
	SnapshotRetention time.Duration `yaml:"snapshot_retention" env-default:"168h"`
}

// RatesDB is optional; snapshots are not persisted when Dsn is empty.
type RatesDB struct {
	Dsn            string `yaml:"dsn" env:"RATES_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"RATES_DB_MIGRATIONS" env-default:"migrations"`
}

type KafkaService struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic       string   `yaml:"topic" env:"KAFKA_RATES_TOPIC" env-default:"rate-events"`
	GroupID     string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"vaultx-rates"`
	SyncEnabled bool     `yaml:"sync_enabled" env:"KAFKA_SYNC_ENABLED"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	Key      string `yaml:"key" env-default:"vaultx:rates:table"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"20"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"40"`
}

func (s HTTPServer) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

func (s GRPCServer) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*RatesConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg RatesConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if cfg.Cache.StaleAfter <= 0 || cfg.Cache.RefreshInterval <= 0 {
		return nil, fmt.Errorf("cache intervals must be positive")
	}
	return &cfg, nil
}

func MustLoad() *RatesConfig {
	// .env is optional
	_ = godotenv.Load()

	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		log.Fatalf("%s was not found\n", configPathEnv)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}
