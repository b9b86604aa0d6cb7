package capture

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/scribeworks/meetingd/internal/asr"
	"github.com/scribeworks/meetingd/internal/audio"
	"github.com/scribeworks/meetingd/internal/config"
	"github.com/scribeworks/meetingd/internal/observability"
	"github.com/scribeworks/meetingd/internal/transcript"
)

// Transcriber is the rolling transcription stage. It drains the chunk queue,
// accumulates samples into a segment buffer, and sends the buffer to the
// recognizer whenever the segment window fills or the window duration elapses
// with a non-empty buffer. Recognized text is appended to the shared
// transcript and flushed line-by-line to the incremental transcript file.
type Transcriber struct {
	recognizer asr.Recognizer
	trans      *transcript.Transcript
	cfg        *config.Config
	logger     zerolog.Logger
	metrics    *observability.Metrics

	file *os.File
	path string

	buffer   []int16
	consumed int // samples already flushed, fixes each segment's timeline offset

	started atomic.Bool
	done    chan struct{}
}

// NewTranscriber creates the transcription stage and opens the incremental
// transcript file in append mode
func NewTranscriber(recognizer asr.Recognizer, trans *transcript.Transcript, filePath string, cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (*Transcriber, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript file: %w", err)
	}

	return &Transcriber{
		recognizer: recognizer,
		trans:      trans,
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		file:       file,
		path:       filePath,
		done:       make(chan struct{}),
	}, nil
}

// Path returns the incremental transcript file path
func (t *Transcriber) Path() string {
	return t.path
}

// Start launches the drain loop on its own goroutine. The loop exits after
// the chunk channel is closed and the final partial buffer has been flushed.
func (t *Transcriber) Start(ctx context.Context, chunks <-chan Chunk) error {
	if !t.started.CompareAndSwap(false, true) {
		return fmt.Errorf("transcriber already started")
	}

	go t.run(ctx, chunks)
	return nil
}

// Wait blocks until the drain loop exits or the timeout elapses
func (t *Transcriber) Wait(timeout time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (t *Transcriber) run(ctx context.Context, chunks <-chan Chunk) {
	defer close(t.done)
	defer t.closeFile()

	t.logger.Info().Int("window_sec", t.cfg.SegmentWindowSec).Msg("Transcription stage started")

	windowSamples := t.cfg.SegmentWindowSec * t.cfg.SampleRate
	window := time.Duration(t.cfg.SegmentWindowSec) * time.Second
	lastFlush := time.Now()

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				// Capture loop finished. Flush whatever is buffered so audio
				// captured mid-window still reaches the transcript.
				t.flush(ctx)
				t.logger.Info().Msg("Transcription stage stopped")
				return
			}
			t.buffer = append(t.buffer, chunk.Samples...)

		case <-time.After(100 * time.Millisecond):
			// Poll tick so the wall-clock trigger fires during silence

		case <-ctx.Done():
			t.flush(context.Background())
			t.logger.Info().Msg("Transcription stage cancelled")
			return
		}

		if len(t.buffer) >= windowSamples || (time.Since(lastFlush) >= window && len(t.buffer) > 0) {
			t.flush(ctx)
			lastFlush = time.Now()
		}
	}
}

// flush sends the current segment buffer to the recognizer and resets it.
// The consumed-sample counter advances even when recognition fails or yields
// no text, so later segments keep correct timeline offsets.
func (t *Transcriber) flush(ctx context.Context) {
	if len(t.buffer) == 0 {
		return
	}

	start := float64(t.consumed) / float64(t.cfg.SampleRate)
	t.consumed += len(t.buffer)
	end := float64(t.consumed) / float64(t.cfg.SampleRate)

	waveform := audio.Float32Waveform(t.buffer)
	t.buffer = t.buffer[:0]

	if t.metrics != nil {
		t.metrics.RecordASRStart()
	}

	result, err := t.recognizer.RecognizeWaveform(ctx, waveform, t.cfg.SampleRate)
	if err != nil {
		// One failed segment does not stop the stage; the audio is preserved
		// in the session recording either way.
		t.logger.Warn().Err(err).Float64("start", start).Float64("end", end).Msg("Segment transcription failed, skipping")
		if t.metrics != nil {
			t.metrics.RecordASREnd(false)
			t.metrics.RecordError("transcription_error", "transcriber")
		}
		return
	}

	if t.metrics != nil {
		t.metrics.RecordASREnd(true)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return
	}

	t.trans.SetLanguageOnce(result.DetectedLanguage)
	t.trans.Append(transcript.Segment{Start: start, End: end, Text: text})

	t.writeLine(text)
}

// writeLine appends one timestamped line to the incremental transcript file
// and syncs it, so a crash never loses recognized text.
func (t *Transcriber) writeLine(text string) {
	if t.file == nil {
		return
	}

	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("15:04:05"), text)
	if _, err := t.file.WriteString(line); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to write transcript line")
		if t.metrics != nil {
			t.metrics.RecordError("persistence_error", "transcriber")
		}
		return
	}
	if err := t.file.Sync(); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to sync transcript file")
	}
}

func (t *Transcriber) closeFile() {
	if t.file == nil {
		return
	}
	if err := t.file.Close(); err != nil {
		t.logger.Warn().Err(err).Msg("Error closing transcript file")
	}
	t.file = nil
}
