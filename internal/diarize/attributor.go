package diarize

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/scribeworks/meetingd/internal/transcript"
)

// GenericSpeaker is the label used when clustering is not possible and all
// segments are attributed to a single unnamed speaker
const GenericSpeaker = "Speaker"

// Result holds the speaker-labeled segments and how they were produced
type Result struct {
	// Segments is a copy of the input segments with Speaker filled in
	Segments []transcript.Segment

	// NumSpeakers is the number of distinct labels assigned
	NumSpeakers int

	// Fallback is true when clustering was skipped and every segment got the
	// generic label
	Fallback bool
}

// Attributor assigns speaker labels to transcript segments by clustering
// acoustic features extracted from the session recording. It separates two
// alternating voices reasonably well; overlapping speech and larger groups
// are beyond what this approach can distinguish.
type Attributor struct {
	maxSpeakers int
	logger      zerolog.Logger
}

// NewAttributor creates an attributor that assigns at most maxSpeakers labels
func NewAttributor(maxSpeakers int, logger zerolog.Logger) *Attributor {
	if maxSpeakers < 1 {
		maxSpeakers = 1
	}
	return &Attributor{maxSpeakers: maxSpeakers, logger: logger}
}

// Attribute labels every segment with a speaker. Segment order and text are
// never changed; only the Speaker field is set. When there are too few
// segments to cluster, or no audio, all segments receive the generic label.
func (a *Attributor) Attribute(samples []int16, sampleRate int, segments []transcript.Segment) *Result {
	out := make([]transcript.Segment, len(segments))
	copy(out, segments)

	if len(segments) == 0 {
		return &Result{Segments: out, Fallback: true}
	}

	k := a.maxSpeakers
	if k > len(segments) {
		k = len(segments)
	}

	if k < 2 || len(samples) == 0 || sampleRate <= 0 {
		a.logger.Debug().Int("segments", len(segments)).Msg("Too little material to cluster, using single speaker")
		for i := range out {
			out[i].Speaker = GenericSpeaker
		}
		return &Result{Segments: out, NumSpeakers: 1, Fallback: true}
	}

	vectors := make([][]float64, len(segments))
	for i, seg := range segments {
		vectors[i] = SegmentFeatures(sliceSpan(samples, sampleRate, seg.Start, seg.End), sampleRate)
	}

	labels := kMeans(vectors, k)

	distinct := make(map[int]bool)
	for i, label := range labels {
		out[i].Speaker = fmt.Sprintf("Speaker_%d", label+1)
		distinct[label] = true
	}

	a.logger.Info().Int("segments", len(segments)).Int("speakers", len(distinct)).Msg("Speaker attribution complete")
	return &Result{Segments: out, NumSpeakers: len(distinct)}
}

// sliceSpan extracts the sample range for a time span, clamped to the
// recording bounds
func sliceSpan(samples []int16, sampleRate int, start, end float64) []int16 {
	lo := int(start * float64(sampleRate))
	hi := int(end * float64(sampleRate))

	if lo < 0 {
		lo = 0
	}
	if hi > len(samples) {
		hi = len(samples)
	}
	if lo >= hi {
		return nil
	}
	return samples[lo:hi]
}
