package audio

import "math"

// CalculateRMS calculates the root mean square (RMS) of audio samples
// Useful for detecting audio levels and silence
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// MeanAbsAmplitude returns the mean absolute amplitude of audio samples.
// The capture loop uses it to pace itself during silence.
func MeanAbsAmplitude(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		if sample < 0 {
			sum -= float64(sample)
		} else {
			sum += float64(sample)
		}
	}

	return sum / float64(len(samples))
}

// DetectSilence detects if audio samples represent silence
// Uses a simple mean-amplitude threshold
func DetectSilence(samples []int16, threshold float64) bool {
	return MeanAbsAmplitude(samples) < threshold
}

// NormalizeAudio normalizes audio samples to prevent clipping
func NormalizeAudio(samples []int16, maxAmplitude int16) []int16 {
	if len(samples) == 0 {
		return samples
	}

	// Find maximum amplitude
	maxVal := int16(0)
	for _, sample := range samples {
		abs := sample
		if abs < 0 {
			abs = -abs
		}
		if abs > maxVal {
			maxVal = abs
		}
	}

	// If already within range, return as-is
	if maxVal <= maxAmplitude {
		return samples
	}

	// Normalize
	ratio := float64(maxAmplitude) / float64(maxVal)
	normalized := make([]int16, len(samples))
	for i, sample := range samples {
		normalized[i] = int16(float64(sample) * ratio)
	}

	return normalized
}
