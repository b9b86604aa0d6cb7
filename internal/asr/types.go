package asr

import "context"

// Segment is one time-aligned span of recognized speech
type Segment struct {
	// Start is the segment start in seconds from the beginning of the audio
	Start float64

	// End is the segment end in seconds
	End float64

	// Text is the recognized text for this span
	Text string
}

// Result is the outcome of one recognition request
type Result struct {
	// Text is the full recognized transcript
	Text string

	// DetectedLanguage is the language code reported by the recognizer, if any
	DetectedLanguage string

	// Segments are the time-aligned spans making up Text
	Segments []Segment
}

// Recognizer is the interface for speech-to-text backends
type Recognizer interface {
	// RecognizeFile transcribes a whole audio file with segment timings
	RecognizeFile(ctx context.Context, path string) (*Result, error)

	// RecognizeWaveform transcribes a normalized float waveform at the given
	// sample rate. Used by the rolling transcription stage for live segments.
	RecognizeWaveform(ctx context.Context, waveform []float32, sampleRate int) (*Result, error)
}
