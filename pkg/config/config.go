package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Engine   EngineConfig
	Service  ServiceConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers        []string
	TopicDecisions string
}

type EngineConfig struct {
	Freshness      time.Duration
	TrendLookback  time.Duration
	DeltaTolerance time.Duration
	FetchTimeout   time.Duration
	GustEpsilon    float64
	MaxParallel    int
	SampleCacheTTL time.Duration
}

type ServiceConfig struct {
	EvalInterval  time.Duration // default cadence per location
	EvalTimeout   time.Duration // ceiling for one location's evaluation
	MetricsAddr   string
	MigrationsDir string // empty = skip migrations on startup
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "advisor_user"),
			Password: getEnv("DB_PASSWORD", "advisor_pass"),
			DBName:   getEnv("DB_NAME", "advisor_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicDecisions: getEnv("KAFKA_TOPIC_DECISIONS", "advisor.decisions"),
		},
		Engine: EngineConfig{
			Freshness:      getEnvAsDuration("ENGINE_FRESHNESS", 60*time.Minute),
			TrendLookback:  getEnvAsDuration("ENGINE_TREND_LOOKBACK", 3*time.Hour),
			DeltaTolerance: getEnvAsDuration("ENGINE_DELTA_TOLERANCE", 15*time.Minute),
			FetchTimeout:   getEnvAsDuration("ENGINE_FETCH_TIMEOUT", 5*time.Second),
			GustEpsilon:    getEnvAsFloat("ENGINE_GUST_EPSILON", 0.1),
			MaxParallel:    getEnvAsInt("ENGINE_MAX_PARALLEL", 8),
			SampleCacheTTL: getEnvAsDuration("ENGINE_SAMPLE_CACHE_TTL", 30*time.Second),
		},
		Service: ServiceConfig{
			EvalInterval:  getEnvAsDuration("SERVICE_EVAL_INTERVAL", 10*time.Minute),
			EvalTimeout:   getEnvAsDuration("SERVICE_EVAL_TIMEOUT", 30*time.Second),
			MetricsAddr:   getEnv("SERVICE_METRICS_ADDR", ":9090"),
			MigrationsDir: getEnv("SERVICE_MIGRATIONS_DIR", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
