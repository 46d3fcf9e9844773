package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Files      FilesConfig
	Worker     WorkerConfig
	Summarizer SummarizerConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// FilesConfig holds upload storage configuration
type FilesConfig struct {
	UploadsDir string
}

// WorkerConfig holds worker loop configuration
type WorkerConfig struct {
	PollInterval     time.Duration
	JobConcurrency   int
	SlideConcurrency int
	MaxAttempts      int
	RetryBackoff     time.Duration
	RequeueStale     bool
	StaleAfter       time.Duration
}

// SummarizerConfig holds Gemini-related configuration
type SummarizerConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Files: FilesConfig{
			UploadsDir: getEnv("UPLOADS_DIR", "./shared/uploads"),
		},
		Worker: WorkerConfig{
			PollInterval:     getEnvAsDuration("WORKER_POLL_INTERVAL", 10*time.Second),
			JobConcurrency:   getEnvAsInt("WORKER_JOB_CONCURRENCY", 2),
			SlideConcurrency: getEnvAsInt("WORKER_SLIDE_CONCURRENCY", 3),
			MaxAttempts:      getEnvAsInt("WORKER_MAX_ATTEMPTS", 3),
			RetryBackoff:     getEnvAsDuration("WORKER_RETRY_BACKOFF", 500*time.Millisecond),
			RequeueStale:     getEnvAsBool("WORKER_REQUEUE_STALE", false),
			StaleAfter:       getEnvAsDuration("WORKER_STALE_AFTER", 15*time.Minute),
		},
		Summarizer: SummarizerConfig{
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash-lite"),
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 30*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}

// ValidateWorker validates the fields the worker binary depends on.
func (c *Config) ValidateWorker() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Summarizer.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Worker.JobConcurrency < 1 || c.Worker.SlideConcurrency < 1 {
		return NewAppError("CONFIG_ERROR", "worker concurrency must be at least 1", ErrInvalidInput)
	}
	return nil
}
