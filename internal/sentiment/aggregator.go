package sentiment

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// UtteranceAnalysis is the classified sentiment of one utterance
type UtteranceAnalysis struct {
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	Scores    Scores `json:"scores"`
}

// SpeakerRecord aggregates sentiment over all of one speaker's utterances
type SpeakerRecord struct {
	OverallSentiment string              `json:"overall_sentiment"`
	AverageCompound  float64             `json:"average_compound"`
	UtteranceCount   int                 `json:"utterance_count"`
	DetailedAnalysis []UtteranceAnalysis `json:"detailed_analysis"`
}

var speakerTagRe = regexp.MustCompile(`^\[(Speaker(?:_\d+)?)\]:\s*`)

// Aggregator groups transcript utterances by speaker and scores each one
// with the external sentiment collaborator
type Aggregator struct {
	scorer Scorer
	logger zerolog.Logger
}

// NewAggregator creates a sentiment aggregator
func NewAggregator(scorer Scorer, logger zerolog.Logger) *Aggregator {
	return &Aggregator{scorer: scorer, logger: logger}
}

// Analyze parses a speaker-tagged transcript and returns per-speaker
// sentiment. Speakers with no utterances never appear in the result, so
// every emitted record has a well-defined average.
func (a *Aggregator) Analyze(ctx context.Context, text string) (map[string]*SpeakerRecord, error) {
	speakers, order := parseConversation(text)

	results := make(map[string]*SpeakerRecord)
	for _, speaker := range order {
		utterances := speakers[speaker]
		if len(utterances) == 0 {
			continue
		}

		record := &SpeakerRecord{
			UtteranceCount:   len(utterances),
			DetailedAnalysis: make([]UtteranceAnalysis, 0, len(utterances)),
		}

		sum := 0.0
		for _, utterance := range utterances {
			scores, err := a.scorer.Score(ctx, utterance)
			if err != nil {
				return nil, fmt.Errorf("score utterance for %s: %w", speaker, err)
			}

			sum += scores.Compound
			record.DetailedAnalysis = append(record.DetailedAnalysis, UtteranceAnalysis{
				Text:      utterance,
				Sentiment: Classify(scores.Compound),
				Scores: Scores{
					Compound: round4(scores.Compound),
					Positive: round4(scores.Positive),
					Neutral:  round4(scores.Neutral),
					Negative: round4(scores.Negative),
				},
			})
		}

		avg := sum / float64(len(utterances))
		record.AverageCompound = round4(avg)
		record.OverallSentiment = Classify(avg)
		results[speaker] = record
	}

	a.logger.Info().Int("speakers", len(results)).Msg("Sentiment analysis complete")
	return results, nil
}

// Classify maps a compound score onto a sentiment label using the standard
// +-0.05 thresholds
func Classify(compound float64) string {
	switch {
	case compound >= 0.05:
		return "positive"
	case compound <= -0.05:
		return "negative"
	default:
		return "neutral"
	}
}

// parseConversation splits a speaker-tagged transcript into per-speaker
// utterance lists, remembering first-appearance order. Text on the tag line
// itself counts as that speaker's first utterance.
func parseConversation(text string) (map[string][]string, []string) {
	speakers := make(map[string][]string)
	var order []string

	currentSpeaker := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := speakerTagRe.FindStringSubmatch(line); m != nil {
			currentSpeaker = m[1]
			if _, ok := speakers[currentSpeaker]; !ok {
				speakers[currentSpeaker] = []string{}
				order = append(order, currentSpeaker)
			}
			line = strings.TrimSpace(speakerTagRe.ReplaceAllString(line, ""))
			if line == "" {
				continue
			}
		}
		if currentSpeaker == "" {
			continue
		}
		speakers[currentSpeaker] = append(speakers[currentSpeaker], line)
	}

	return speakers, order
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
