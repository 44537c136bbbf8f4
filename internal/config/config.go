package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Places    Places    `yaml:"places"`
	Scanner   Scanner   `yaml:"scanner"`
	Scheduler Scheduler `yaml:"scheduler"`
	Kafka     Kafka     `yaml:"kafka"`
	S3        S3        `yaml:"s3"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"10m"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Database holds database configuration
type Database struct {
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	MaxConns int `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"25"`
	MinConns int `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
}

// Places holds local-search data provider configuration
type Places struct {
	BaseURL     string  `yaml:"base_url" env:"PLACES_BASE_URL" env-default:"https://api.datalayer-serp.com"`
	APIKey      string  `yaml:"api_key" env:"PLACES_API_KEY"`
	Depth       int     `yaml:"depth" env:"PLACES_DEPTH" env-default:"20"`
	CostPerCall float64 `yaml:"cost_per_call" env:"PLACES_COST_PER_CALL" env-default:"0.002"`
}

// Scanner holds grid scanner configuration
type Scanner struct {
	Concurrency        int `yaml:"concurrency" env:"SCANNER_CONCURRENCY" env-default:"10"`
	RateLimit          int `yaml:"rate_limit" env:"SCANNER_RATE_LIMIT" env-default:"20"`
	MaxConcurrentScans int `yaml:"max_concurrent_scans" env:"SCANNER_MAX_CONCURRENT_SCANS" env-default:"5"`
}

// Scheduler holds scan scheduler configuration
type Scheduler struct {
	Enabled      bool          `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"false"`
	Interval     time.Duration `yaml:"interval" env:"SCHEDULER_INTERVAL" env-default:"5m"`
	StaleTimeout time.Duration `yaml:"stale_timeout" env:"SCHEDULER_STALE_TIMEOUT" env-default:"2h"`
	BatchSize    int           `yaml:"batch_size" env:"SCHEDULER_BATCH_SIZE" env-default:"10"`
}

// Kafka holds scan-request queue configuration
type Kafka struct {
	Brokers string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Topic   string `yaml:"topic" env:"KAFKA_TOPIC" env-default:"scan_requests"`
	GroupID string `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"geo-grid-worker"`
}

// S3 holds snapshot archive configuration
type S3 struct {
	Enabled         bool   `yaml:"enabled" env:"S3_ENABLED" env-default:"false"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET" env-default:"scan-snapshots"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
