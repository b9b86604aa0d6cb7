package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/scribeworks/meetingd/internal/audio"
	"github.com/scribeworks/meetingd/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		SampleRate:       8000,
		ChunkSize:        256,
		ChunkQueueSize:   100,
		SilenceThreshold: 0, // keep the loop from pacing during tests
		SegmentWindowSec: 1,
	}
}

// failingDevice returns an error on the first read
type failingDevice struct{}

func (d *failingDevice) ReadChunk(buf []int16) (int, error) {
	return 0, errors.New("device unplugged")
}

func (d *failingDevice) SampleRate() int { return 8000 }
func (d *failingDevice) Close() error    { return nil }

func makeSamples(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(1000 + i%100)
	}
	return samples
}

func TestRecorder_CapturesAllFrames(t *testing.T) {
	cfg := testConfig()
	samples := makeSamples(cfg.ChunkSize*3 + 100) // last chunk is partial
	device := audio.NewSliceDevice(samples, cfg.SampleRate)

	rec := NewRecorder(device, cfg, zerolog.Nop(), nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Drain the queue while counting chunks
	chunkCount := 0
	queued := 0
	for chunk := range rec.Chunks() {
		chunkCount++
		queued += len(chunk.Samples)
	}

	if !rec.Wait(2 * time.Second) {
		t.Fatal("Capture loop did not exit")
	}

	frames := rec.Frames()
	if len(frames) != len(samples) {
		t.Errorf("Expected %d captured samples, got %d", len(samples), len(frames))
	}
	if queued != len(samples) {
		t.Errorf("Expected %d queued samples, got %d", len(samples), queued)
	}
	if chunkCount != 4 {
		t.Errorf("Expected 4 chunks, got %d", chunkCount)
	}
	if rec.Err() != nil {
		t.Errorf("Expected no device error, got %v", rec.Err())
	}
}

func TestRecorder_FramesMatchSource(t *testing.T) {
	cfg := testConfig()
	samples := makeSamples(cfg.ChunkSize * 2)
	device := audio.NewSliceDevice(samples, cfg.SampleRate)

	rec := NewRecorder(device, cfg, zerolog.Nop(), nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for range rec.Chunks() {
	}
	rec.Wait(2 * time.Second)

	frames := rec.Frames()
	for i, s := range samples {
		if frames[i] != s {
			t.Fatalf("Sample %d: expected %d, got %d", i, s, frames[i])
		}
	}
}

func TestRecorder_StartTwice(t *testing.T) {
	cfg := testConfig()
	device := audio.NewSliceDevice(makeSamples(cfg.ChunkSize), cfg.SampleRate)

	rec := NewRecorder(device, cfg, zerolog.Nop(), nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("First Start failed: %v", err)
	}
	if err := rec.Start(); err == nil {
		t.Error("Expected error starting recorder twice")
	}

	for range rec.Chunks() {
	}
	rec.Wait(2 * time.Second)
}

func TestRecorder_DeviceError(t *testing.T) {
	cfg := testConfig()
	rec := NewRecorder(&failingDevice{}, cfg, zerolog.Nop(), nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for range rec.Chunks() {
	}
	if !rec.Wait(2 * time.Second) {
		t.Fatal("Capture loop did not exit after device error")
	}

	if rec.Err() == nil {
		t.Error("Expected device error to be recorded")
	}
	if rec.Recording() {
		t.Error("Expected recording flag cleared after device error")
	}
}

func TestRecorder_DropsWhenQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkQueueSize = 1
	samples := makeSamples(cfg.ChunkSize * 10)
	device := audio.NewSliceDevice(samples, cfg.SampleRate)

	rec := NewRecorder(device, cfg, zerolog.Nop(), nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Let the loop run to completion before draining, forcing drops
	if !rec.Wait(2 * time.Second) {
		t.Fatal("Capture loop did not exit")
	}

	queued := 0
	for range rec.Chunks() {
		queued++
	}

	// The frame list is complete even though the queue overflowed
	if len(rec.Frames()) != len(samples) {
		t.Errorf("Expected full frame list despite drops, got %d of %d", len(rec.Frames()), len(samples))
	}
	if queued > cfg.ChunkQueueSize {
		t.Errorf("Expected at most %d queued chunks, got %d", cfg.ChunkQueueSize, queued)
	}
}

func TestRecorder_StopBeforeExhaustion(t *testing.T) {
	cfg := testConfig()
	// Large source so the loop is still running when we stop it
	device := audio.NewSliceDevice(makeSamples(cfg.ChunkSize*100000), cfg.SampleRate)

	rec := NewRecorder(device, cfg, zerolog.Nop(), nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	go func() {
		for range rec.Chunks() {
		}
	}()

	time.Sleep(10 * time.Millisecond)
	rec.Stop()

	if !rec.Wait(2 * time.Second) {
		t.Fatal("Capture loop did not exit after Stop")
	}
	if rec.Err() != nil {
		t.Errorf("Expected no device error on clean stop, got %v", rec.Err())
	}
}
