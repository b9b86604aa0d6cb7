package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/scribeworks/meetingd/internal/actions"
	"github.com/scribeworks/meetingd/internal/asr"
	"github.com/scribeworks/meetingd/internal/audio"
	"github.com/scribeworks/meetingd/internal/capture"
	"github.com/scribeworks/meetingd/internal/config"
	"github.com/scribeworks/meetingd/internal/diarize"
	"github.com/scribeworks/meetingd/internal/observability"
	"github.com/scribeworks/meetingd/internal/sentiment"
	"github.com/scribeworks/meetingd/internal/summary"
	"github.com/scribeworks/meetingd/internal/transcript"
)

// Pipeline sequences a full meeting session: capture (or file recognition),
// speaker attribution, action-item extraction, summarization, and sentiment.
// Analysis stages fail independently; the pipeline records each failure and
// continues, so every session that produced a transcript gets a report.
type Pipeline struct {
	cfg        *config.Config
	recognizer asr.Recognizer
	scorer     sentiment.Scorer
	logger     zerolog.Logger
}

// NewPipeline creates a pipeline. The scorer may be nil, in which case the
// sentiment stage is skipped.
func NewPipeline(cfg *config.Config, recognizer asr.Recognizer, scorer sentiment.Scorer, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		recognizer: recognizer,
		scorer:     scorer,
		logger:     logger,
	}
}

// failStage records a recovered analysis stage failure and lets the
// pipeline continue with the remaining stages
func failStage(logger zerolog.Logger, metrics *observability.Metrics, failures map[string]string, stage string, start time.Time, err error) {
	serr := &StageError{Stage: stage, Err: err}
	logger.Error().Err(serr).Msg("Stage failed, continuing")
	failures[stage] = serr.Error()
	metrics.RecordStage(stage, start, false)
}

// RunLive captures audio from the device until the stop channel fires, the
// context is cancelled, or the device is exhausted, then analyzes the
// finalized transcript. The full recording is persisted to the session
// directory exactly once, before analysis begins. When the session fails,
// the returned report carries only the session identity.
func (p *Pipeline) RunLive(ctx context.Context, device audio.Device, stop <-chan struct{}) (*Report, error) {
	sess, err := NewSession(p.cfg.OutputDir, p.logger)
	if err != nil {
		return nil, err
	}
	logger := sess.Logger()

	metrics := observability.NewSessionMetrics(sess.ID)
	metrics.RecordSessionStart()
	defer metrics.RecordSessionEnd()

	trans := transcript.New()
	recorder := capture.NewRecorder(device, p.cfg, logger, metrics)
	transcriber, err := capture.NewTranscriber(p.recognizer, trans, sess.TranscriptPath(), p.cfg, logger, metrics)
	if err != nil {
		sess.setState(StateFailed)
		writeErrorReport(sess, "capture", err)
		return identityReport(sess, ""), err
	}

	sess.setState(StateCapturing)
	if err := recorder.Start(); err != nil {
		sess.setState(StateFailed)
		writeErrorReport(sess, "capture", err)
		return identityReport(sess, ""), err
	}
	if err := transcriber.Start(ctx, recorder.Chunks()); err != nil {
		recorder.Stop()
		sess.setState(StateFailed)
		writeErrorReport(sess, "capture", err)
		return identityReport(sess, ""), err
	}

	select {
	case <-stop:
		logger.Info().Msg("Stop requested")
	case <-ctx.Done():
		logger.Info().Msg("Context cancelled, stopping capture")
	case <-recorder.Done():
		logger.Info().Msg("Capture finished on its own")
	}

	sess.setState(StateStopping)
	recorder.Stop()

	// Join both loops with bounded timeouts: short for capture, longer for
	// transcription so the final partial segment can flush. A loop that fails
	// to join is abandoned rather than blocking shutdown.
	if !recorder.Wait(time.Duration(p.cfg.StopCaptureWait) * time.Second) {
		logger.Warn().Msg("Capture loop did not stop in time, abandoning")
	}
	if !transcriber.Wait(time.Duration(p.cfg.StopDrainWait) * time.Second) {
		logger.Warn().Msg("Transcription stage did not drain in time, abandoning")
	}

	frames := recorder.Frames()
	if len(frames) == 0 {
		logger.Error().Msg("No audio captured")
		sess.setState(StateFailed)
		writeErrorReport(sess, "capture", ErrNoInput)
		return identityReport(sess, ""), ErrNoInput
	}

	failures := make(map[string]string)
	if err := recorder.Err(); err != nil {
		failures["capture"] = err.Error()
	}

	if err := audio.WriteWAV(sess.RecordingPath(), frames, p.cfg.SampleRate); err != nil {
		logger.Error().Err(err).Msg("Failed to persist session recording")
		failures["recording"] = err.Error()
	} else {
		metrics.RecordAudioPersisted(int64(len(frames) * 2))
	}

	return p.analyze(ctx, sess, metrics, trans, frames, p.cfg.SampleRate, sess.RecordingPath(), failures)
}

// RunFile analyzes a prerecorded audio file: the whole file goes to the
// recognizer in one request, then the same analysis stages run against the
// resulting transcript. When the session fails, the returned report carries
// only the session identity.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Report, error) {
	sess, err := NewSession(p.cfg.OutputDir, p.logger)
	if err != nil {
		return nil, err
	}
	logger := sess.Logger()

	metrics := observability.NewSessionMetrics(sess.ID)
	metrics.RecordSessionStart()
	defer metrics.RecordSessionEnd()

	metrics.RecordASRStart()
	result, err := p.recognizer.RecognizeFile(ctx, path)
	if err != nil {
		metrics.RecordASREnd(false)
		logger.Error().Err(err).Str("file", path).Msg("File transcription failed")
		sess.setState(StateFailed)
		writeErrorReport(sess, "transcription", err)
		return identityReport(sess, path), err
	}
	metrics.RecordASREnd(true)

	// The original audio feeds speaker attribution. An unreadable file just
	// means attribution falls back to a single speaker.
	samples, sampleRate, err := audio.ReadWAV(path)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not read audio for speaker attribution")
		samples, sampleRate = nil, p.cfg.SampleRate
	}

	trans := transcript.New()
	trans.SetLanguageOnce(result.DetectedLanguage)
	for _, seg := range result.Segments {
		trans.Append(transcript.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	if len(result.Segments) == 0 && result.Text != "" {
		// Text without timings spans the whole recording
		if end := float64(len(samples)) / float64(sampleRate); end > 0 {
			trans.Append(transcript.Segment{Start: 0, End: end, Text: result.Text})
		}
	}

	if err := writeText(sess.TranscriptPath(), result.Text); err != nil {
		logger.Warn().Err(err).Msg("Failed to write raw transcript")
	}

	failures := make(map[string]string)
	return p.analyze(ctx, sess, metrics, trans, samples, sampleRate, path, failures)
}

// analyze runs stages 3 through 6 sequentially against the finalized
// transcript and assembles the report
func (p *Pipeline) analyze(ctx context.Context, sess *Session, metrics *observability.Metrics, trans *transcript.Transcript, samples []int16, sampleRate int, audioSource string, failures map[string]string) (*Report, error) {
	logger := sess.Logger()
	sess.setState(StateAnalyzing)

	if trans.Empty() {
		logger.Error().Msg("Transcript is empty, nothing to analyze")
		sess.setState(StateFailed)
		writeErrorReport(sess, "transcription", ErrNoInput)
		return identityReport(sess, audioSource), ErrNoInput
	}

	// Stage: speaker attribution
	start := time.Now()
	attributed := diarize.NewAttributor(p.cfg.MaxSpeakers, logger).Attribute(samples, sampleRate, trans.Segments())
	trans.SetSegments(attributed.Segments)
	text := transcript.Format(attributed.Segments)
	if err := writeText(sess.TaggedTranscriptPath(), text); err != nil {
		failStage(logger, metrics, failures, "attribution", start, err)
	} else {
		metrics.RecordStage("attribution", start, true)
	}

	// Stage: action items
	start = time.Now()
	items := actions.NewExtractor(logger).Extract(text)
	if err := writeJSON(sess.ActionItemsPath(), items); err != nil {
		failStage(logger, metrics, failures, "action_items", start, err)
	} else {
		metrics.RecordStage("action_items", start, true)
	}

	// Stage: summary
	start = time.Now()
	sum := summary.NewSummarizer(p.cfg.SummaryRatio, logger).Summarize(text)
	if err := writeJSON(sess.SummaryPath(), sum); err != nil {
		failStage(logger, metrics, failures, "summary", start, err)
	} else {
		metrics.RecordStage("summary", start, true)
	}

	// Stage: sentiment, skipped when no scorer is configured
	var sentiments map[string]*sentiment.SpeakerRecord
	if p.scorer != nil {
		start = time.Now()
		records, err := sentiment.NewAggregator(p.scorer, logger).Analyze(ctx, text)
		if err != nil {
			failStage(logger, metrics, failures, "sentiment", start, err)
		} else {
			sentiments = records
			if err := writeJSON(sess.SentimentPath(), records); err != nil {
				failStage(logger, metrics, failures, "sentiment", start, err)
			} else {
				metrics.RecordStage("sentiment", start, true)
			}
		}
	}

	if len(failures) == 0 {
		failures = nil
	}

	report := buildReport(sess, audioSource, text, trans.Language(), items, sum, sentiments, failures)
	if err := writeJSON(sess.ReportPath(), report); err != nil {
		logger.Error().Err(err).Msg("Failed to persist report")
		sess.setState(StateFailed)
		writeErrorReport(sess, "report", err)
		return identityReport(sess, audioSource), err
	}

	sess.setState(StateCompleted)
	logger.Info().Str("report", sess.ReportPath()).Msg("Session completed")
	return report, nil
}
