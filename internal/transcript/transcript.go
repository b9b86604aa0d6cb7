package transcript

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Segment is one time-aligned span of the meeting transcript.
// Start/End/Text are produced by the transcription stage; Speaker is filled
// in once by the attributor, after which the segment is immutable.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript accumulates segments during a session. The transcription stage
// is the only writer while capture is running; analysis stages read it after
// both pipeline goroutines have stopped.
type Transcript struct {
	mu       sync.Mutex
	segments []Segment
	language string
}

// New creates an empty transcript
func New() *Transcript {
	return &Transcript{}
}

// Append adds a recognized segment
func (t *Transcript) Append(seg Segment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segments = append(t.segments, seg)
}

// SetLanguageOnce records the first detected language; later calls are ignored
func (t *Transcript) SetLanguageOnce(lang string) {
	if lang == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.language == "" {
		t.language = lang
	}
}

// Language returns the session language, if one was detected
func (t *Transcript) Language() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.language
}

// Segments returns a copy of the accumulated segments
func (t *Transcript) Segments() []Segment {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// SetSegments replaces the segment list. Used by the attributor to install
// speaker-labeled segments.
func (t *Transcript) SetSegments(segments []Segment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segments = segments
}

// Empty reports whether no text was captured
func (t *Transcript) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, seg := range t.segments {
		if strings.TrimSpace(seg.Text) != "" {
			return false
		}
	}
	return true
}

// Format renders segments as a speaker-tagged transcript. A [Speaker_N]:
// header is emitted only when the speaker changes between segments.
func Format(segments []Segment) string {
	var b strings.Builder
	currentSpeaker := ""

	for _, seg := range segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "Speaker"
		}

		if speaker != currentSpeaker {
			b.WriteString(fmt.Sprintf("\n\n[%s]:\n", speaker))
			currentSpeaker = speaker
		}

		b.WriteString(seg.Text)
		b.WriteString(" ")
	}

	return strings.TrimSpace(b.String())
}

var sentenceEndRe = regexp.MustCompile(`[.?!]`)

// Stats holds basic transcript statistics for the final report
type Stats struct {
	WordCount              int `json:"word_count"`
	EstimatedSentenceCount int `json:"estimated_sentence_count"`
}

// ComputeStats derives word and sentence counts from transcript text
func ComputeStats(text string) Stats {
	return Stats{
		WordCount:              len(strings.Fields(text)),
		EstimatedSentenceCount: len(sentenceEndRe.FindAllString(text, -1)),
	}
}
