package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Ingestion IngestionConfig
	Prompt    PromptConfig
	Session   SessionConfig
	Worker    WorkerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// LLMConfig carries the completion credential and the retry policy. The API key is read
// once here and injected into providers; providers refuse to start without it.
type LLMConfig struct {
	Provider          string
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float32
	MaxTokens         int
	Timeout           time.Duration
	RateLimitBackoff  time.Duration
	RateLimitRetries  int
	RequestsPerMinute int
}

type IngestionConfig struct {
	MaxFileSize int64
	RenderScale float64
}

type PromptConfig struct {
	ResumeCharLimit         int
	JobDescriptionCharLimit int
}

type SessionConfig struct {
	TTL      time.Duration
	RedisURL string
}

type WorkerConfig struct {
	Concurrency  int
	QueueSize    int
	PollInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "career_copilot"),
		},
		LLM: LLMConfig{
			Provider:          getEnv("LLM_PROVIDER", "openai"),
			APIKey:            getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
			BaseURL:           getEnv("LLM_BASE_URL", ""),
			Model:             getEnv("LLM_MODEL", ""),
			Temperature:       getEnvAsFloat32("LLM_TEMPERATURE", 0.7),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 2000),
			Timeout:           getEnvAsDuration("LLM_TIMEOUT", "90s"),
			RateLimitBackoff:  getEnvAsDuration("LLM_RATE_LIMIT_BACKOFF", "3s"),
			RateLimitRetries:  getEnvAsInt("LLM_RATE_LIMIT_RETRIES", 3),
			RequestsPerMinute: getEnvAsInt("LLM_REQUESTS_PER_MINUTE", 0),
		},
		Ingestion: IngestionConfig{
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 5*1024*1024),
			RenderScale: getEnvAsFloat64("PDF_RENDER_SCALE", 1.5),
		},
		Prompt: PromptConfig{
			ResumeCharLimit:         getEnvAsInt("PROMPT_RESUME_CHAR_LIMIT", 3500),
			JobDescriptionCharLimit: getEnvAsInt("PROMPT_JOB_DESCRIPTION_CHAR_LIMIT", 2000),
		},
		Session: SessionConfig{
			TTL:      getEnvAsDuration("SESSION_TTL", "2h"),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 3),
			QueueSize:    getEnvAsInt("WORKER_QUEUE_SIZE", 100),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	return float32(getEnvAsFloat64(key, float64(defaultValue)))
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
