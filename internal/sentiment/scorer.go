package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scribeworks/meetingd/internal/config"
	"github.com/scribeworks/meetingd/internal/observability"
	"github.com/scribeworks/meetingd/internal/resilience"
)

// Scores are the polarity components for one utterance. Compound is the
// normalized overall valence in [-1, 1].
type Scores struct {
	Compound float64 `json:"compound"`
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Scorer is the interface for sentiment-polarity backends
type Scorer interface {
	// Score returns polarity scores for a single utterance
	Score(ctx context.Context, utterance string) (Scores, error)
}

// HTTPScorer calls an external sentiment service over HTTP. The service
// accepts one utterance per request and returns its polarity scores.
type HTTPScorer struct {
	url        string
	httpClient *http.Client
	breaker    *resilience.Breaker
	retry      *resilience.RetryConfig
}

// NewHTTPScorer creates a scorer backed by the configured sentiment endpoint
func NewHTTPScorer(cfg *config.Config) *HTTPScorer {
	return &HTTPScorer{
		url: cfg.SentimentURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.SentimentTimeout) * time.Second,
		},
		breaker: resilience.NewBreaker("sentiment", cfg),
		retry:   resilience.NewRetryConfig(cfg),
	}
}

type scoreRequest struct {
	Text string `json:"text"`
}

// Score sends the utterance to the sentiment service
func (s *HTTPScorer) Score(ctx context.Context, utterance string) (Scores, error) {
	var scores Scores

	err := s.breaker.Call(func() error {
		return resilience.Retry(ctx, s.retry, resilience.IsTransientServiceError, func() error {
			return s.score(ctx, utterance, &scores)
		})
	})

	observability.UpdateCircuitBreakerState("sentiment", int(s.breaker.State()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("sentiment")
		return Scores{}, err
	}

	return scores, nil
}

func (s *HTTPScorer) score(ctx context.Context, utterance string, out *Scores) error {
	body, err := json.Marshal(scoreRequest{Text: utterance})
	if err != nil {
		return fmt.Errorf("marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sentiment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &resilience.HTTPStatusError{
			Service:    "sentiment service",
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode score response: %w", err)
	}
	return nil
}
