package session

import (
	"time"

	"github.com/scribeworks/meetingd/internal/actions"
	"github.com/scribeworks/meetingd/internal/sentiment"
	"github.com/scribeworks/meetingd/internal/summary"
	"github.com/scribeworks/meetingd/internal/transcript"
)

// TranscriptStatistics are basic metrics over the final transcript
type TranscriptStatistics struct {
	WordCount              int    `json:"word_count"`
	EstimatedSentenceCount int    `json:"estimated_sentence_count"`
	TranscriptPath         string `json:"transcript_path"`
}

// MeetingDetails are the identified meeting metadata
type MeetingDetails struct {
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Participants []string `json:"participants"`
}

// ActionItemsSection groups the extracted action items in the report
type ActionItemsSection struct {
	Count int                  `json:"count"`
	Items []actions.ActionItem `json:"items"`
	Path  string               `json:"action_items_path"`
}

// SentimentOverview is the per-speaker sentiment rollup in the report
type SentimentOverview struct {
	OverallSentiment string  `json:"overall_sentiment"`
	AverageCompound  float64 `json:"average_compound"`
	UtteranceCount   int     `json:"utterance_count"`
}

// Report is the final session artifact. It is assembled once, after all
// analysis stages have completed or failed, and never mutated afterwards.
type Report struct {
	AnalysisID           string                       `json:"analysis_id"`
	Timestamp            string                       `json:"timestamp"`
	OutputDirectory      string                       `json:"output_directory"`
	AudioSource          string                       `json:"audio_source"`
	DetectedLanguage     string                       `json:"detected_language,omitempty"`
	TranscriptStatistics TranscriptStatistics         `json:"transcript_statistics"`
	MeetingDetails       MeetingDetails               `json:"meeting_details"`
	KeyTopics            []string                     `json:"key_topics"`
	Summary              string                       `json:"summary"`
	ActionItems          ActionItemsSection           `json:"action_items"`
	Sentiment            map[string]SentimentOverview `json:"sentiment,omitempty"`
	StageFailures        map[string]string            `json:"stage_failures,omitempty"`
	OutputFiles          map[string]string            `json:"output_files"`
}

// ErrorReport replaces the report when a session fails outright
type ErrorReport struct {
	Error     string `json:"error"`
	Stage     string `json:"stage"`
	Timestamp string `json:"timestamp"`
}

// buildReport assembles the final report from whatever the analysis stages
// produced. Nil stage results leave their sections at zero values, so a
// partial report is always well-formed.
func buildReport(s *Session, audioSource, transcriptText, language string, items []actions.ActionItem, sum *summary.Result, sentiments map[string]*sentiment.SpeakerRecord, failures map[string]string) *Report {
	stats := transcript.ComputeStats(transcriptText)

	report := &Report{
		AnalysisID:       s.AnalysisID,
		Timestamp:        s.Timestamp,
		OutputDirectory:  s.Dir,
		AudioSource:      audioSource,
		DetectedLanguage: language,
		TranscriptStatistics: TranscriptStatistics{
			WordCount:              stats.WordCount,
			EstimatedSentenceCount: stats.EstimatedSentenceCount,
			TranscriptPath:         s.TranscriptPath(),
		},
		MeetingDetails: MeetingDetails{Title: "Unknown", Date: "Unknown", Participants: []string{}},
		KeyTopics:      []string{},
		ActionItems: ActionItemsSection{
			Count: len(items),
			Items: items,
			Path:  s.ActionItemsPath(),
		},
		StageFailures: failures,
		OutputFiles: map[string]string{
			"transcript":   s.TranscriptPath(),
			"summary":      s.SummaryPath(),
			"action_items": s.ActionItemsPath(),
		},
	}
	if report.ActionItems.Items == nil {
		report.ActionItems.Items = []actions.ActionItem{}
	}

	if sum != nil {
		report.Summary = sum.Summary
		report.KeyTopics = sum.KeyTopics
		if sum.Metadata.Title != "" {
			report.MeetingDetails.Title = sum.Metadata.Title
		}
		if sum.Metadata.Date != "" {
			report.MeetingDetails.Date = sum.Metadata.Date
		}
		if sum.Metadata.Participants != nil {
			report.MeetingDetails.Participants = sum.Metadata.Participants
		}
	}

	if len(sentiments) > 0 {
		report.Sentiment = make(map[string]SentimentOverview, len(sentiments))
		for speaker, record := range sentiments {
			report.Sentiment[speaker] = SentimentOverview{
				OverallSentiment: record.OverallSentiment,
				AverageCompound:  record.AverageCompound,
				UtteranceCount:   record.UtteranceCount,
			}
		}
		report.OutputFiles["sentiment"] = s.SentimentPath()
	}

	return report
}

// identityReport carries just enough of a failed session for callers to
// index the run. It is returned alongside the error and never persisted;
// the session directory holds the error report instead.
func identityReport(s *Session, audioSource string) *Report {
	return &Report{
		AnalysisID:      s.AnalysisID,
		Timestamp:       s.Timestamp,
		OutputDirectory: s.Dir,
		AudioSource:     audioSource,
	}
}

// writeErrorReport persists the error report for a failed session
func writeErrorReport(s *Session, stage string, err error) {
	report := ErrorReport{
		Error:     err.Error(),
		Stage:     stage,
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
	}
	if werr := writeJSON(s.ErrorReportPath(), report); werr != nil {
		logger := s.Logger()
		logger.Error().Err(werr).Msg("Failed to write error report")
	}
}
