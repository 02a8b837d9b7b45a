package config

import (
	"os"
	"strconv"
	"time"
)

type InsuranceServiceConfig struct {
	Port        string
	LogDir      string
	PostgresCfg PostgresConfig
	RedisCfg    RedisConfig
	RabbitMQCfg RabbitMQConfig
	MinioCfg    MinioConfig
	OracleCfg   OracleConfig
	WorkerCfg   WorkerConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

// OracleConfig bounds data freshness. IngestWindow gates submission
// timestamps; MaxDataAge gates what the trigger evaluator will read.
type OracleConfig struct {
	IngestWindow    time.Duration
	MaxDataAge      time.Duration
	SlothashHistory int
}

type WorkerConfig struct {
	CrankInterval      time.Duration
	ExpirationInterval time.Duration
}

func New() *InsuranceServiceConfig {
	return &InsuranceServiceConfig{
		Port:   getEnvOrDefault("PORT", "8086"),
		LogDir: getEnvOrDefault("LOG_DIR", "/var/log/insurance_service"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "insurance"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		OracleCfg: OracleConfig{
			IngestWindow:    getDurationOrDefault("ORACLE_INGEST_WINDOW", 30*time.Second),
			MaxDataAge:      getDurationOrDefault("TRIGGER_MAX_DATA_AGE", 100*time.Second),
			SlothashHistory: getIntOrDefault("SLOTHASH_HISTORY", 32),
		},
		WorkerCfg: WorkerConfig{
			CrankInterval:      getDurationOrDefault("CRANK_INTERVAL", 10*time.Second),
			ExpirationInterval: getDurationOrDefault("EXPIRATION_SWEEP_INTERVAL", time.Minute),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
