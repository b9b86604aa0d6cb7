package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/gen2brain/malgo"
)

// maxQueuedSamples bounds the capture queue, about one minute at 16 kHz.
// When the consumer falls behind, the oldest samples are dropped.
const maxQueuedSamples = 960000

// micQueue hands captured samples from the audio callback to ReadChunk.
// The callback side never blocks; the reader side blocks until samples
// arrive or the queue is closed.
type micQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []int16
	closed  bool
}

func newMicQueue() *micQueue {
	q := &micQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *micQueue) push(samples []int16) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.pending = append(q.pending, samples...)
	if drop := len(q.pending) - maxQueuedSamples; drop > 0 {
		q.pending = append(q.pending[:0], q.pending[drop:]...)
	}
	q.cond.Signal()
}

func (q *micQueue) read(buf []int16) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.pending) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.pending) == 0 {
		return 0, io.EOF
	}

	n := copy(buf, q.pending)
	q.pending = append(q.pending[:0], q.pending[n:]...)
	return n, nil
}

func (q *micQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// MicDevice captures mono 16-bit PCM from the default system microphone
// through the miniaudio backend
type MicDevice struct {
	mctx  *malgo.AllocatedContext
	dev   *malgo.Device
	rate  int
	queue *micQueue

	closeOnce sync.Once
	closeErr  error
}

// OpenMicDevice opens the default capture device at the requested rate
func OpenMicDevice(sampleRate int) (*MicDevice, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("init audio backend: %w", err)
	}

	queue := newMicQueue()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			samples, err := DecodePCM16(input)
			if err != nil {
				return
			}
			queue.push(samples)
		},
	}

	dev, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("open microphone: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("start microphone: %w", err)
	}

	return &MicDevice{mctx: mctx, dev: dev, rate: sampleRate, queue: queue}, nil
}

// ReadChunk blocks until captured samples are available and fills buf with
// up to len(buf) of them. It returns io.EOF once the device is closed and
// the queue is drained.
func (d *MicDevice) ReadChunk(buf []int16) (int, error) {
	return d.queue.read(buf)
}

// SampleRate returns the capture sample rate in Hz
func (d *MicDevice) SampleRate() int {
	return d.rate
}

// Close stops the capture and releases the audio backend. Safe to call more
// than once.
func (d *MicDevice) Close() error {
	d.closeOnce.Do(func() {
		d.dev.Uninit()
		d.queue.close()
		d.closeErr = d.mctx.Uninit()
		d.mctx.Free()
	})
	return d.closeErr
}
