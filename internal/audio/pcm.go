package audio

import (
	"fmt"
)

// DecodePCM16 converts raw little-endian 16-bit PCM bytes to samples
func DecodePCM16(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}

	samples := make([]int16, len(data)/2)
	for i := 0; i < len(samples); i++ {
		// Little-endian 16-bit signed integer
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}

	return samples, nil
}

// EncodePCM16 converts samples to raw little-endian 16-bit PCM bytes
func EncodePCM16(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		data[i*2] = byte(sample)
		data[i*2+1] = byte(sample >> 8)
	}
	return data
}

// Float32Waveform normalizes 16-bit PCM samples into the [-1, 1) float
// waveform expected by the ASR collaborator
func Float32Waveform(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// Resample performs simple linear interpolation resampling
// This is a basic implementation - for production, consider using a library
// with better quality algorithms (e.g., sinc interpolation)
func Resample(samples []int16, inputRate, outputRate int) []int16 {
	if inputRate == outputRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(outputRate) / float64(inputRate)
	outputLength := int(float64(len(samples)) * ratio)
	output := make([]int16, outputLength)

	for i := 0; i < outputLength; i++ {
		// Calculate source position
		srcPos := float64(i) / ratio

		// Linear interpolation
		idx0 := int(srcPos)
		idx1 := idx0 + 1
		if idx0 >= len(samples) {
			idx0 = len(samples) - 1
		}
		if idx1 >= len(samples) {
			idx1 = len(samples) - 1
		}

		// Interpolate between two samples
		fraction := srcPos - float64(idx0)
		output[i] = int16(float64(samples[idx0])*(1.0-fraction) + float64(samples[idx1])*fraction)
	}

	return output
}
