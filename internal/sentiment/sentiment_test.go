package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/scribeworks/meetingd/internal/config"
	"github.com/scribeworks/meetingd/internal/resilience"
)

// wordScorer returns a fixed compound score per keyword, zero otherwise
type wordScorer struct {
	scores map[string]float64
}

func (s *wordScorer) Score(ctx context.Context, utterance string) (Scores, error) {
	if v, ok := s.scores[utterance]; ok {
		return Scores{Compound: v}, nil
	}
	return Scores{Neutral: 1.0}, nil
}

// failingScorer always errors
type failingScorer struct{}

func (s *failingScorer) Score(ctx context.Context, utterance string) (Scores, error) {
	return Scores{}, errors.New("scorer down")
}

func TestClassify(t *testing.T) {
	cases := []struct {
		compound float64
		expected string
	}{
		{0.5, "positive"},
		{0.05, "positive"},
		{0.049, "neutral"},
		{0.0, "neutral"},
		{-0.049, "neutral"},
		{-0.05, "negative"},
		{-0.8, "negative"},
	}

	for _, tc := range cases {
		if got := Classify(tc.compound); got != tc.expected {
			t.Errorf("Classify(%f): expected %s, got %s", tc.compound, tc.expected, got)
		}
	}
}

func TestAnalyze_GroupsBySpeaker(t *testing.T) {
	text := `[Speaker_1]:
Great work everyone.
This is wonderful.

[Speaker_2]:
I am worried about the deadline.`

	scorer := &wordScorer{scores: map[string]float64{
		"Great work everyone.":              0.8,
		"This is wonderful.":                0.6,
		"I am worried about the deadline.": -0.4,
	}}

	results, err := NewAggregator(scorer, zerolog.Nop()).Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 speakers, got %d", len(results))
	}

	s1 := results["Speaker_1"]
	if s1 == nil {
		t.Fatal("Missing Speaker_1 record")
	}
	if s1.UtteranceCount != 2 {
		t.Errorf("Expected 2 utterances for Speaker_1, got %d", s1.UtteranceCount)
	}
	if math.Abs(s1.AverageCompound-0.7) > 1e-9 {
		t.Errorf("Expected average 0.7, got %f", s1.AverageCompound)
	}
	if s1.OverallSentiment != "positive" {
		t.Errorf("Expected positive overall, got %s", s1.OverallSentiment)
	}

	s2 := results["Speaker_2"]
	if s2 == nil {
		t.Fatal("Missing Speaker_2 record")
	}
	if s2.OverallSentiment != "negative" {
		t.Errorf("Expected negative overall, got %s", s2.OverallSentiment)
	}
}

func TestAnalyze_AverageIsMeanOfCompounds(t *testing.T) {
	text := `[Speaker_1]:
one
two
three`

	scorer := &wordScorer{scores: map[string]float64{
		"one":   0.3,
		"two":   -0.1,
		"three": 0.2,
	}}

	results, err := NewAggregator(scorer, zerolog.Nop()).Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	expected := round4((0.3 - 0.1 + 0.2) / 3)
	if results["Speaker_1"].AverageCompound != expected {
		t.Errorf("Expected average %f, got %f", expected, results["Speaker_1"].AverageCompound)
	}
}

func TestAnalyze_ExcludesSilentSpeakers(t *testing.T) {
	// Speaker_2 has a tag but no utterances
	text := `[Speaker_1]:
hello there

[Speaker_2]:`

	results, err := NewAggregator(&wordScorer{}, zerolog.Nop()).Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if _, ok := results["Speaker_2"]; ok {
		t.Error("Expected silent speaker excluded from results")
	}
	if _, ok := results["Speaker_1"]; !ok {
		t.Error("Expected Speaker_1 present")
	}
}

func TestAnalyze_TagLineTextCounts(t *testing.T) {
	text := `[Speaker_1]: inline utterance here`

	results, err := NewAggregator(&wordScorer{}, zerolog.Nop()).Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	s1 := results["Speaker_1"]
	if s1 == nil || s1.UtteranceCount != 1 {
		t.Fatalf("Expected one utterance from the tag line, got %+v", s1)
	}
	if s1.DetailedAnalysis[0].Text != "inline utterance here" {
		t.Errorf("Unexpected utterance text: '%s'", s1.DetailedAnalysis[0].Text)
	}
}

func TestAnalyze_UntaggedPreambleIgnored(t *testing.T) {
	text := `Some untagged text before anyone speaks.

[Speaker_1]:
actual utterance`

	results, err := NewAggregator(&wordScorer{}, zerolog.Nop()).Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if results["Speaker_1"].UtteranceCount != 1 {
		t.Errorf("Expected preamble ignored, got %+v", results["Speaker_1"])
	}
}

func TestAnalyze_ScorerFailure(t *testing.T) {
	text := `[Speaker_1]:
hello`

	_, err := NewAggregator(&failingScorer{}, zerolog.Nop()).Analyze(context.Background(), text)
	if err == nil {
		t.Error("Expected error when the scorer fails")
	}
}

func TestRound4(t *testing.T) {
	if round4(0.123456) != 0.1235 {
		t.Errorf("Expected 0.1235, got %f", round4(0.123456))
	}
	if round4(-0.00004) != 0 {
		t.Errorf("Expected 0, got %f", round4(-0.00004))
	}
}

func TestHTTPScorer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(Scores{Compound: 0.42, Positive: 0.5, Neutral: 0.5})
	}))
	defer server.Close()

	cfg := &config.Config{
		SentimentURL:               server.URL,
		SentimentTimeout:           5,
		CircuitBreakerMaxFailures:  3,
		CircuitBreakerResetTimeout: 1,
		RetryMaxAttempts:           1,
		RetryInitialBackoff:        1,
	}

	scores, err := NewHTTPScorer(cfg).Score(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if scores.Compound != 0.42 {
		t.Errorf("Expected compound 0.42, got %f", scores.Compound)
	}
}

func TestHTTPScorer_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	// Server errors are retryable, so a single attempt keeps the test fast
	cfg := &config.Config{
		SentimentURL:               server.URL,
		SentimentTimeout:           5,
		CircuitBreakerMaxFailures:  3,
		CircuitBreakerResetTimeout: 1,
		RetryMaxAttempts:           1,
		RetryInitialBackoff:        1,
	}

	_, err := NewHTTPScorer(cfg).Score(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error for HTTP 500 response")
	}

	var statusErr *resilience.HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected a typed status error, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", statusErr.StatusCode)
	}
}
