package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the lifecycle state of a session
type State string

const (
	StateCreated   State = "created"
	StateCapturing State = "capturing"
	StateStopping  State = "stopping"
	StateAnalyzing State = "analyzing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Subdirectories created under every session directory
var sessionSubdirs = []string{"transcript", "action_items", "summary", "sentiment", "visualizations"}

// Session is one capture-and-analysis run with its own output directory
type Session struct {
	// ID is a unique identifier for correlation in logs and the session index
	ID string

	// AnalysisID names the session directory, sortable by start time
	AnalysisID string

	// Timestamp is the session start time in the directory naming format
	Timestamp string

	// Dir is the session's output directory
	Dir string

	logger zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewSession creates a session and its directory layout under outputDir
func NewSession(outputDir string, logger zerolog.Logger) (*Session, error) {
	timestamp := time.Now().Format("20060102_150405")
	analysisID := fmt.Sprintf("meeting_analysis_%s", timestamp)
	dir := filepath.Join(outputDir, analysisID)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	for _, sub := range sessionSubdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create session subdirectory %s: %w", sub, err)
		}
	}

	id := uuid.New().String()
	s := &Session{
		ID:         id,
		AnalysisID: analysisID,
		Timestamp:  timestamp,
		Dir:        dir,
		logger:     logger.With().Str("session_id", id).Str("analysis_id", analysisID).Logger(),
		state:      StateCreated,
	}

	s.logger.Info().Str("dir", dir).Msg("Session created")
	return s, nil
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState transitions the session and logs the change
func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	s.logger.Info().Str("from", string(prev)).Str("to", string(next)).Msg("Session state changed")
}

// Logger returns the session-scoped logger
func (s *Session) Logger() zerolog.Logger {
	return s.logger
}

// Path returns a path inside the session directory
func (s *Session) Path(elem ...string) string {
	return filepath.Join(append([]string{s.Dir}, elem...)...)
}

// TranscriptPath is the incremental transcript file for live capture
func (s *Session) TranscriptPath() string {
	return s.Path("transcript", fmt.Sprintf("meeting_transcript_%s.txt", s.Timestamp))
}

// TaggedTranscriptPath is the speaker-tagged transcript written after
// attribution
func (s *Session) TaggedTranscriptPath() string {
	return s.Path("transcript", fmt.Sprintf("meeting_transcript_tagged_%s.txt", s.Timestamp))
}

// RecordingPath is the persisted session audio
func (s *Session) RecordingPath() string {
	return s.Path(fmt.Sprintf("meeting_recording_%s.wav", s.Timestamp))
}

// ActionItemsPath is the extracted action items artifact
func (s *Session) ActionItemsPath() string {
	return s.Path("action_items", fmt.Sprintf("action_items_%s.json", s.Timestamp))
}

// SummaryPath is the meeting summary artifact
func (s *Session) SummaryPath() string {
	return s.Path("summary", fmt.Sprintf("meeting_summary_%s.json", s.Timestamp))
}

// SentimentPath is the per-speaker sentiment artifact
func (s *Session) SentimentPath() string {
	return s.Path("sentiment", "sentiment_results.json")
}

// ReportPath is the final report artifact
func (s *Session) ReportPath() string {
	return s.Path("meeting_report.json")
}

// ErrorReportPath is written instead of the report when the session fails
func (s *Session) ErrorReportPath() string {
	return s.Path("error_report.json")
}
