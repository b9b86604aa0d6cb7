package asr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	restv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	restinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/scribeworks/meetingd/internal/audio"
	"github.com/scribeworks/meetingd/internal/config"
	"github.com/scribeworks/meetingd/internal/observability"
	"github.com/scribeworks/meetingd/internal/resilience"
)

// DeepgramRecognizer implements Recognizer using Deepgram's prerecorded REST API
type DeepgramRecognizer struct {
	config  *config.Config
	client  *restv1api.Client
	breaker *resilience.Breaker
	retry   *resilience.RetryConfig
}

// NewDeepgramRecognizer creates a new Deepgram REST recognizer
func NewDeepgramRecognizer(cfg *config.Config) *DeepgramRecognizer {
	rest := listenClient.NewREST(cfg.DeepgramAPIKey, &interfaces.ClientOptions{})

	return &DeepgramRecognizer{
		config:  cfg,
		client:  restv1api.New(rest),
		breaker: resilience.NewBreaker("deepgram", cfg),
		retry:   resilience.NewRetryConfig(cfg),
	}
}

func (d *DeepgramRecognizer) options() *interfaces.PreRecordedTranscriptionOptions {
	return &interfaces.PreRecordedTranscriptionOptions{
		Model:          d.config.DeepgramModel,
		Language:       d.config.DeepgramLanguage,
		Punctuate:      true,
		SmartFormat:    true,
		Utterances:     true,
		DetectLanguage: true,
	}
}

// RecognizeFile transcribes a whole audio file with utterance timings
func (d *DeepgramRecognizer) RecognizeFile(ctx context.Context, path string) (*Result, error) {
	var result *Result

	err := d.breaker.Call(func() error {
		return resilience.Retry(ctx, d.retry, resilience.IsTransientServiceError, func() error {
			resp, err := d.client.FromFile(ctx, path, d.options())
			if err != nil {
				return fmt.Errorf("deepgram file transcription: %w", err)
			}
			result = fromResponse(resp, 0)
			return nil
		})
	})

	observability.UpdateCircuitBreakerState("deepgram", int(d.breaker.State()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("deepgram")
		return nil, err
	}

	return result, nil
}

// RecognizeWaveform transcribes a normalized float waveform. The waveform is
// re-quantized to 16-bit PCM and wrapped in a WAV container because the REST
// endpoint consumes audio streams, not raw sample arrays.
func (d *DeepgramRecognizer) RecognizeWaveform(ctx context.Context, waveform []float32, sampleRate int) (*Result, error) {
	if len(waveform) == 0 {
		return &Result{}, nil
	}

	samples := make([]int16, len(waveform))
	for i, v := range waveform {
		if v > 1.0 {
			v = 1.0
		}
		if v < -1.0 {
			v = -1.0
		}
		samples[i] = int16(v * 32767.0)
	}

	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, samples, sampleRate); err != nil {
		return nil, fmt.Errorf("encode segment wav: %w", err)
	}

	duration := float64(len(waveform)) / float64(sampleRate)

	var result *Result
	err := d.breaker.Call(func() error {
		return resilience.Retry(ctx, d.retry, resilience.IsTransientServiceError, func() error {
			resp, err := d.client.FromStream(ctx, bytes.NewReader(buf.Bytes()), d.options())
			if err != nil {
				return fmt.Errorf("deepgram stream transcription: %w", err)
			}
			result = fromResponse(resp, duration)
			return nil
		})
	})

	observability.UpdateCircuitBreakerState("deepgram", int(d.breaker.State()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("deepgram")
		return nil, err
	}

	return result, nil
}

// fromResponse maps the Deepgram response into the pipeline's Result record.
// Collaborator results are validated here at the boundary; missing channels or
// alternatives yield an empty Result, never a panic. fallbackDuration is the
// caller's knowledge of the audio length, used when the response carries no
// utterance timings and no metadata duration.
func fromResponse(resp *restinterfaces.PreRecordedResponse, fallbackDuration float64) *Result {
	result := &Result{}
	if resp == nil || resp.Results == nil {
		return result
	}

	if len(resp.Results.Channels) > 0 {
		channel := resp.Results.Channels[0]
		result.DetectedLanguage = channel.DetectedLanguage
		if len(channel.Alternatives) > 0 {
			result.Text = strings.TrimSpace(channel.Alternatives[0].Transcript)
		}
	}

	for _, utt := range resp.Results.Utterances {
		text := strings.TrimSpace(utt.Transcript)
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, Segment{
			Start: utt.Start,
			End:   utt.End,
			Text:  text,
		})
	}

	// Fall back to a single whole-audio segment when utterance timings are
	// absent but text was recognized. Segments always span a positive
	// duration, so the fallback is skipped when no length is known.
	if len(result.Segments) == 0 && result.Text != "" {
		end := 0.0
		if resp.Metadata != nil {
			end = resp.Metadata.Duration
		}
		if end <= 0 {
			end = fallbackDuration
		}
		if end > 0 {
			result.Segments = append(result.Segments, Segment{Start: 0, End: end, Text: result.Text})
		}
	}

	return result
}
