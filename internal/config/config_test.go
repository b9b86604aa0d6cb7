package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Set required environment variables
	os.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	defer os.Unsetenv("DEEPGRAM_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DeepgramAPIKey != "test-deepgram-key" {
		t.Errorf("Expected DeepgramAPIKey 'test-deepgram-key', got '%s'", cfg.DeepgramAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	// Clear environment variables
	os.Unsetenv("DEEPGRAM_API_KEY")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when required keys are missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	defer os.Unsetenv("DEEPGRAM_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.OutputDir != "meeting_analysis" {
		t.Errorf("Expected default OutputDir 'meeting_analysis', got '%s'", cfg.OutputDir)
	}

	if cfg.DeepgramModel != "nova-2" {
		t.Errorf("Expected default DeepgramModel 'nova-2', got '%s'", cfg.DeepgramModel)
	}

	if cfg.DeepgramLanguage != "en" {
		t.Errorf("Expected default DeepgramLanguage 'en', got '%s'", cfg.DeepgramLanguage)
	}

	if cfg.SampleRate != 16000 {
		t.Errorf("Expected default SampleRate 16000, got %d", cfg.SampleRate)
	}

	if cfg.ChunkSize != 1024 {
		t.Errorf("Expected default ChunkSize 1024, got %d", cfg.ChunkSize)
	}

	if cfg.ChunkQueueSize != 100 {
		t.Errorf("Expected default ChunkQueueSize 100, got %d", cfg.ChunkQueueSize)
	}

	if cfg.SilenceThreshold != 500.0 {
		t.Errorf("Expected default SilenceThreshold 500.0, got %f", cfg.SilenceThreshold)
	}

	if cfg.SegmentWindowSec != 5 {
		t.Errorf("Expected default SegmentWindowSec 5, got %d", cfg.SegmentWindowSec)
	}

	if cfg.SummaryRatio != 0.3 {
		t.Errorf("Expected default SummaryRatio 0.3, got %f", cfg.SummaryRatio)
	}

	if cfg.MaxSpeakers != 2 {
		t.Errorf("Expected default MaxSpeakers 2, got %d", cfg.MaxSpeakers)
	}
}

func TestLoad_InvalidSummaryRatio(t *testing.T) {
	os.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	os.Setenv("SUMMARY_RATIO", "1.5")
	defer os.Unsetenv("DEEPGRAM_API_KEY")
	defer os.Unsetenv("SUMMARY_RATIO")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for SUMMARY_RATIO > 1")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	defer os.Unsetenv("DEEPGRAM_API_KEY")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.DeepgramAPIKey != "test-deepgram-key" {
		t.Errorf("Expected DeepgramAPIKey 'test-deepgram-key', got '%s'", cfg.DeepgramAPIKey)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	os.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	defer os.Unsetenv("DEEPGRAM_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check resilience defaults
	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.CircuitBreakerResetTimeout != 30 {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30, got %d", cfg.CircuitBreakerResetTimeout)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts)
	}

	if cfg.RetryInitialBackoff != 100 {
		t.Errorf("Expected default RetryInitialBackoff 100, got %d", cfg.RetryInitialBackoff)
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	os.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	// Clear LOG_LEVEL to ensure we get the default
	os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("DEEPGRAM_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check observability defaults
	// The default should be "info" (lowercase) as defined in config.go
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}
