package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the meeting pipeline
type Config struct {
	// Output configuration
	OutputDir string `envconfig:"OUTPUT_DIR" default:"meeting_analysis"` // Root directory for session outputs
	WatchDir  string `envconfig:"WATCH_DIR" default:"incoming_audio"`    // Intake directory for the watch command

	// Deepgram ASR API configuration
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" required:"true"`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"` // nova-2, enhanced, base
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`  // Language code (en, es, fr, etc.)

	// Sentiment scorer HTTP endpoint (optional; sentiment stage is skipped if unset)
	SentimentURL     string `envconfig:"SENTIMENT_URL" default:""`
	SentimentTimeout int    `envconfig:"SENTIMENT_TIMEOUT" default:"10"` // seconds

	// Audio capture configuration
	SampleRate       int     `envconfig:"SAMPLE_RATE" default:"16000"`     // Hz, mono 16-bit PCM
	ChunkSize        int     `envconfig:"CHUNK_SIZE" default:"1024"`       // Samples per capture chunk
	ChunkQueueSize   int     `envconfig:"CHUNK_QUEUE_SIZE" default:"100"`  // Buffered chunks between capture and transcription
	SilenceThreshold float64 `envconfig:"SILENCE_THRESHOLD" default:"500"` // Mean absolute amplitude below which the capture loop paces itself
	SegmentWindowSec int     `envconfig:"SEGMENT_WINDOW_SEC" default:"5"`  // Rolling transcription segment window
	StopCaptureWait  int     `envconfig:"STOP_CAPTURE_WAIT" default:"2"`   // Seconds to wait for the capture loop on stop
	StopDrainWait    int     `envconfig:"STOP_DRAIN_WAIT" default:"5"`     // Seconds to wait for the transcription stage on stop

	// Analysis configuration
	SummaryRatio float64 `envconfig:"SUMMARY_RATIO" default:"0.3"` // Fraction of sentences kept by the summarizer
	MaxSpeakers  int     `envconfig:"MAX_SPEAKERS" default:"2"`    // Speaker clustering cap (known accuracy ceiling)

	// Watch mode configuration
	WatchMaxConcurrent int `envconfig:"WATCH_MAX_CONCURRENT" default:"2"` // Concurrent analyses in watch mode

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
	MetricsPort    string `envconfig:"METRICS_PORT" default:"9090"`    // Port for /metrics during live capture
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DeepgramAPIKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("SAMPLE_RATE must be positive, got %d", cfg.SampleRate)
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.SummaryRatio <= 0 || cfg.SummaryRatio > 1 {
		return nil, fmt.Errorf("SUMMARY_RATIO must be in (0,1], got %f", cfg.SummaryRatio)
	}

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
