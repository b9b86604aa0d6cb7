package capture

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/scribeworks/meetingd/internal/audio"
	"github.com/scribeworks/meetingd/internal/config"
	"github.com/scribeworks/meetingd/internal/observability"
)

// Chunk is a fixed-size block of mono 16-bit PCM samples tagged with a
// monotonic capture index. The recorder owns it until it is handed to the
// queue; thereafter the transcription stage owns it.
type Chunk struct {
	Index   int
	Samples []int16
}

// Recorder runs the capture loop: it reads fixed-size chunks from the audio
// device, appends them to the session frame list for final persistence, and
// pushes copies onto a bounded queue for the rolling transcription stage.
type Recorder struct {
	device  audio.Device
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *observability.Metrics

	chunks    chan Chunk
	recording atomic.Bool
	started   atomic.Bool
	done      chan struct{}

	mu        sync.Mutex
	frames    []int16
	deviceErr error

	closeOnce sync.Once
}

// NewRecorder creates a recorder for the given device
func NewRecorder(device audio.Device, cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) *Recorder {
	return &Recorder{
		device:  device,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		chunks:  make(chan Chunk, cfg.ChunkQueueSize),
		done:    make(chan struct{}),
	}
}

// Chunks returns the queue feeding the transcription stage. The channel is
// closed when the capture loop exits.
func (r *Recorder) Chunks() <-chan Chunk {
	return r.chunks
}

// Done is closed when the capture loop exits, whether by Stop, source
// exhaustion, or device failure
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

// Start launches the capture loop on its own goroutine
func (r *Recorder) Start() error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("recorder already started")
	}

	r.recording.Store(true)
	go r.run()
	return nil
}

// Stop signals the capture loop to exit after its current blocking read
func (r *Recorder) Stop() {
	r.recording.Store(false)
}

// Recording reports whether the capture loop is still active
func (r *Recorder) Recording() bool {
	return r.recording.Load()
}

// Wait blocks until the capture loop exits or the timeout elapses.
// Returns false if the loop failed to join in time; the caller abandons it
// rather than blocking shutdown indefinitely.
func (r *Recorder) Wait(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Frames returns a copy of all captured samples, in capture order
func (r *Recorder) Frames() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int16, len(r.frames))
	copy(out, r.frames)
	return out
}

// Err returns the device error that terminated the loop, if any
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deviceErr
}

func (r *Recorder) run() {
	defer close(r.done)
	defer close(r.chunks)
	defer r.closeDevice()

	r.logger.Info().Int("chunk_size", r.cfg.ChunkSize).Msg("Capture loop started")

	buf := make([]int16, r.cfg.ChunkSize)
	index := 0

	for r.recording.Load() {
		n, err := r.device.ReadChunk(buf)
		if err == io.EOF {
			r.logger.Info().Int("chunks", index).Msg("Audio source exhausted")
			r.recording.Store(false)
			break
		}
		if err != nil {
			// Device failure terminates the loop; audio already buffered is
			// preserved and the session is marked degraded by the caller.
			r.logger.Error().Err(err).Msg("Error reading from audio device")
			r.mu.Lock()
			r.deviceErr = err
			r.mu.Unlock()
			if r.metrics != nil {
				r.metrics.RecordError("device_error", "capture")
			}
			r.recording.Store(false)
			break
		}
		if n == 0 {
			continue
		}

		chunk := Chunk{Index: index, Samples: make([]int16, n)}
		copy(chunk.Samples, buf[:n])
		index++

		r.mu.Lock()
		r.frames = append(r.frames, chunk.Samples...)
		r.mu.Unlock()

		if r.metrics != nil {
			r.metrics.RecordChunkCaptured(int64(n * 2))
		}

		// Hand the chunk to the transcription stage without blocking the
		// device read. A full queue means the process is not keeping up with
		// real time; dropping here is the accepted degradation.
		select {
		case r.chunks <- chunk:
		default:
			r.logger.Warn().Int("chunk", chunk.Index).Msg("Chunk queue full, dropping chunk")
			if r.metrics != nil {
				r.metrics.RecordError("queue_full", "capture")
			}
		}

		// Pace the loop during silence to reduce CPU usage. Chunks are never
		// dropped or skipped by this path.
		if audio.DetectSilence(chunk.Samples, r.cfg.SilenceThreshold) {
			time.Sleep(100 * time.Millisecond)
		}
	}

	r.logger.Info().Int("chunks", index).Msg("Capture loop stopped")
}

func (r *Recorder) closeDevice() {
	r.closeOnce.Do(func() {
		if err := r.device.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Error closing audio device")
		}
	})
}
