package audio

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func TestWAV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")

	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}

	if err := WriteWAV(path, samples, 16000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	decoded, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}

	if rate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("Sample %d: expected %d, got %d", i, samples[i], decoded[i])
		}
	}
}

func TestReadWAV_NotAWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bogus.wav")

	if err := writeFile(path, []byte("this is not a wav file at all")); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, _, err := ReadWAV(path); err == nil {
		t.Error("Expected error for non-WAV input")
	}
}

func TestFileDevice_ReadChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.wav")

	samples := make([]int16, 2500)
	for i := range samples {
		samples[i] = int16(i)
	}
	if err := WriteWAV(path, samples, 16000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	dev, err := OpenFileDevice(path, 16000, false)
	if err != nil {
		t.Fatalf("OpenFileDevice failed: %v", err)
	}
	defer dev.Close()

	buf := make([]int16, 1024)
	total := 0
	for {
		n, err := dev.ReadChunk(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadChunk failed: %v", err)
		}
	}

	if total != len(samples) {
		t.Errorf("Expected %d samples total, got %d", len(samples), total)
	}
}

func TestFileDevice_Resamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rate.wav")

	samples := make([]int16, 8000) // 1s at 8kHz
	if err := WriteWAV(path, samples, 8000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	dev, err := OpenFileDevice(path, 16000, false)
	if err != nil {
		t.Fatalf("OpenFileDevice failed: %v", err)
	}
	defer dev.Close()

	if dev.SampleRate() != 16000 {
		t.Errorf("Expected resampled rate 16000, got %d", dev.SampleRate())
	}
}

func TestFileDevice_ClosedRead(t *testing.T) {
	dev := NewSliceDevice([]int16{1, 2, 3}, 16000)
	if err := dev.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	buf := make([]int16, 3)
	if _, err := dev.ReadChunk(buf); err == nil {
		t.Error("Expected error reading from closed device")
	}
}
