package common

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Document DocumentConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Queue    QueueConfig
	LogLevel slog.Level
}

// DatabaseConfig holds job store configuration
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// DocumentConfig holds rasterization and loading configuration
type DocumentConfig struct {
	DPI              int
	Pdftoppm         string
	Pdfinfo          string
	HeicConverter    string
	ArtifactCacheDir string
	MaxImageMB       int
	AWSRegion        string
}

// LLMConfig holds inference endpoint configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// PipelineConfig holds extraction pipeline behaviour
type PipelineConfig struct {
	Profile      constants.Profile
	Concurrency  int
	StrictStatus bool
	Timeout      time.Duration
}

// QueueConfig holds batch worker pool configuration
type QueueConfig struct {
	Workers int
	Size    int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	profile, _ := constants.ParseProfile(getEnv("PIPELINE_PROFILE", string(constants.ProfileFast)))
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "file:docintel.db?_pragma=busy_timeout(5000)"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Document: DocumentConfig{
			DPI:              getEnvAsInt("DOC_DPI", 100),
			Pdftoppm:         getEnv("PDFTOPPM", "pdftoppm"),
			Pdfinfo:          getEnv("PDFINFO", "pdfinfo"),
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			MaxImageMB:       getEnvAsInt("MAX_IMAGE_MB", constants.MaxImageMBDefault),
			AWSRegion:        getEnv("AWS_REGION", ""),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "http://localhost:1234/v1"),
			Model:       getEnv("LLM_MODEL", "qwen3vl-4b"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Pipeline: PipelineConfig{
			Profile:      profile,
			Concurrency:  getEnvAsInt("PIPELINE_CONCURRENCY", 1),
			StrictStatus: getEnvAsBool("PIPELINE_STRICT_STATUS", false),
			Timeout:      getEnvAsDuration("PIPELINE_TIMEOUT", 10*time.Minute),
		},
		Queue: QueueConfig{
			Workers: getEnvAsInt("QUEUE_WORKERS", 2),
			Size:    getEnvAsInt("QUEUE_SIZE", 64),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		return NewAppError("CONFIG_ERROR", "LLM_BASE_URL is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return NewAppError("CONFIG_ERROR", "LLM_MODEL is required", ErrInvalidInput)
	}
	if c.LLM.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "LLM_TIMEOUT must be positive", ErrInvalidInput)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return NewAppError("CONFIG_ERROR", "LLM_TEMPERATURE must be within 0..2", ErrInvalidInput)
	}
	if c.Document.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "DOC_DPI must be positive", ErrInvalidInput)
	}
	if c.Pipeline.Concurrency < 1 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_CONCURRENCY must be at least 1", ErrInvalidInput)
	}
	return nil
}

// NewLogger builds the JSON logger used by every binary and installs it as default.
// A nil w logs to stdout.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
