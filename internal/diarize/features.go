package diarize

import "math"

// numCoefficients is the dimensionality of the per-segment feature vector
const numCoefficients = 13

// frameMillis is the analysis frame length
const frameMillis = 25

// SegmentFeatures computes a compact spectral envelope descriptor for one
// span of audio: the segment is cut into 25 ms frames, each frame yields 13
// log sub-band energies decorrelated with a DCT, and the per-frame vectors
// are averaged. Segments spoken by the same person land near each other in
// this space, which is all the clustering step needs.
//
// An empty or too-short span yields the zero vector rather than an error;
// such segments simply cluster together.
func SegmentFeatures(samples []int16, sampleRate int) []float64 {
	features := make([]float64, numCoefficients)

	frameLen := sampleRate * frameMillis / 1000
	if frameLen <= 0 || len(samples) < frameLen {
		return features
	}

	frames := 0
	frame := make([]float64, numCoefficients)
	for off := 0; off+frameLen <= len(samples); off += frameLen {
		frameCoefficients(samples[off:off+frameLen], frame)
		for i, c := range frame {
			features[i] += c
		}
		frames++
	}

	if frames == 0 {
		return features
	}
	for i := range features {
		features[i] /= float64(frames)
	}
	return features
}

// frameCoefficients fills dst with the DCT of the frame's log sub-band
// energies
func frameCoefficients(frame []int16, dst []float64) {
	var energies [numCoefficients]float64

	bandLen := len(frame) / numCoefficients
	if bandLen == 0 {
		bandLen = 1
	}

	for b := 0; b < numCoefficients; b++ {
		start := b * bandLen
		end := start + bandLen
		if b == numCoefficients-1 || end > len(frame) {
			end = len(frame)
		}

		sum := 0.0
		for _, s := range frame[start:end] {
			v := float64(s) / 32768.0
			sum += v * v
		}
		// Floor keeps log finite for silent bands
		energies[b] = math.Log(sum + 1e-10)
	}

	dctII(energies[:], dst)
}

// dctII computes the type-II discrete cosine transform of src into dst
func dctII(src, dst []float64) {
	n := float64(len(src))
	for k := range dst {
		sum := 0.0
		for i, v := range src {
			sum += v * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/n)
		}
		dst[k] = sum
	}
}
