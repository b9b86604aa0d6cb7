package audio

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Device is a blocking source of fixed-size mono 16-bit PCM chunks.
// A microphone backend satisfies this interface; FileDevice replays a
// recorded WAV file for rehearsal runs and tests.
type Device interface {
	// ReadChunk fills buf with up to len(buf) samples and returns the number
	// of samples read. It returns io.EOF when the source is exhausted.
	ReadChunk(buf []int16) (int, error)

	// SampleRate returns the device's sample rate in Hz
	SampleRate() int

	// Close releases the device. Safe to call more than once.
	Close() error
}

// FileDevice replays a WAV file as if it were a live capture device
type FileDevice struct {
	samples    []int16
	sampleRate int
	pos        int
	realtime   bool

	mu     sync.Mutex
	closed bool
}

// OpenFileDevice opens a WAV file as a capture device, resampling to
// targetRate when the file's rate differs. When realtime is true, ReadChunk
// sleeps to approximate the pacing of a live microphone.
func OpenFileDevice(path string, targetRate int, realtime bool) (*FileDevice, error) {
	samples, rate, err := ReadWAV(path)
	if err != nil {
		return nil, fmt.Errorf("open file device: %w", err)
	}

	if rate != targetRate {
		samples = Resample(samples, rate, targetRate)
		rate = targetRate
	}

	return &FileDevice{
		samples:    samples,
		sampleRate: rate,
		realtime:   realtime,
	}, nil
}

// NewSliceDevice wraps an in-memory sample buffer as a device
func NewSliceDevice(samples []int16, sampleRate int) *FileDevice {
	return &FileDevice{samples: samples, sampleRate: sampleRate}
}

// ReadChunk fills buf from the replayed file
func (d *FileDevice) ReadChunk(buf []int16) (int, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, fmt.Errorf("device is closed")
	}
	if d.pos >= len(d.samples) {
		d.mu.Unlock()
		return 0, io.EOF
	}

	n := copy(buf, d.samples[d.pos:])
	d.pos += n
	d.mu.Unlock()

	if d.realtime {
		time.Sleep(time.Duration(n) * time.Second / time.Duration(d.sampleRate))
	}

	return n, nil
}

// SampleRate returns the device sample rate in Hz
func (d *FileDevice) SampleRate() int {
	return d.sampleRate
}

// Close marks the device closed
func (d *FileDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
