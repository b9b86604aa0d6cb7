package audio

import (
	"testing"
)

func TestCalculateRMS(t *testing.T) {
	// Test with known values
	samples := []int16{1000, -1000, 2000, -2000}
	rms := CalculateRMS(samples)

	// Expected RMS: sqrt((1000^2 + 1000^2 + 2000^2 + 2000^2) / 4)
	expected := 1581.14 // Approximate
	tolerance := 1.0

	if rms < expected-tolerance || rms > expected+tolerance {
		t.Errorf("Expected RMS around %.2f, got %.2f", expected, rms)
	}
}

func TestCalculateRMS_Empty(t *testing.T) {
	if rms := CalculateRMS(nil); rms != 0.0 {
		t.Errorf("Expected 0.0 for empty input, got %f", rms)
	}
}

func TestMeanAbsAmplitude(t *testing.T) {
	samples := []int16{100, -100, 300, -300}
	mean := MeanAbsAmplitude(samples)

	if mean != 200.0 {
		t.Errorf("Expected mean 200.0, got %f", mean)
	}
}

func TestMeanAbsAmplitude_Empty(t *testing.T) {
	if mean := MeanAbsAmplitude(nil); mean != 0.0 {
		t.Errorf("Expected 0.0 for empty input, got %f", mean)
	}
}

func TestDetectSilence(t *testing.T) {
	// High energy samples
	highSamples := []int16{5000, 5000, 5000}
	if DetectSilence(highSamples, 1000.0) {
		t.Error("Expected high energy samples to not be silence")
	}

	// Low energy samples
	lowSamples := []int16{10, 10, 10}
	if !DetectSilence(lowSamples, 1000.0) {
		t.Error("Expected low energy samples to be silence")
	}
}

func TestNormalizeAudio(t *testing.T) {
	samples := []int16{16000, -32000, 8000}
	normalized := NormalizeAudio(samples, 16000)

	// Maximum amplitude after normalization must not exceed the limit
	for i, s := range normalized {
		abs := s
		if abs < 0 {
			abs = -abs
		}
		if abs > 16000 {
			t.Errorf("Sample %d exceeds max amplitude: %d", i, s)
		}
	}
}

func TestNormalizeAudio_AlreadyInRange(t *testing.T) {
	samples := []int16{100, -200, 300}
	normalized := NormalizeAudio(samples, 16000)

	for i := range samples {
		if normalized[i] != samples[i] {
			t.Errorf("Sample %d changed: expected %d, got %d", i, samples[i], normalized[i])
		}
	}
}
