package audio

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestMicQueue_ReadDelivered(t *testing.T) {
	q := newMicQueue()
	q.push([]int16{1, 2, 3, 4})

	buf := make([]int16, 4)
	n, err := q.read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 4 {
		t.Fatalf("Expected 4 samples, got %d", n)
	}
	for i, want := range []int16{1, 2, 3, 4} {
		if buf[i] != want {
			t.Errorf("Sample %d: expected %d, got %d", i, want, buf[i])
		}
	}
}

func TestMicQueue_PartialFill(t *testing.T) {
	q := newMicQueue()
	q.push([]int16{10, 20, 30, 40, 50})

	buf := make([]int16, 3)
	n, err := q.read(buf)
	if err != nil || n != 3 {
		t.Fatalf("Expected 3 samples, got %d (%v)", n, err)
	}

	n, err = q.read(buf)
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 remaining samples, got %d (%v)", n, err)
	}
	if buf[0] != 40 || buf[1] != 50 {
		t.Errorf("Expected tail samples 40, 50, got %d, %d", buf[0], buf[1])
	}
}

func TestMicQueue_ReadBlocksUntilPush(t *testing.T) {
	q := newMicQueue()

	result := make(chan int16, 1)
	go func() {
		buf := make([]int16, 1)
		if n, err := q.read(buf); err == nil && n == 1 {
			result <- buf[0]
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.push([]int16{42})

	select {
	case v := <-result:
		if v != 42 {
			t.Errorf("Expected 42, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("read did not wake up after push")
	}
}

func TestMicQueue_CloseDrainsThenEOF(t *testing.T) {
	q := newMicQueue()
	q.push([]int16{7, 8})
	q.close()

	buf := make([]int16, 4)
	n, err := q.read(buf)
	if err != nil || n != 2 {
		t.Fatalf("Expected buffered samples before EOF, got %d (%v)", n, err)
	}

	if _, err := q.read(buf); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF after drain, got %v", err)
	}
}

func TestMicQueue_CloseUnblocksReader(t *testing.T) {
	q := newMicQueue()

	done := make(chan error, 1)
	go func() {
		buf := make([]int16, 1)
		_, err := q.read(buf)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.close()

	select {
	case err := <-done:
		if !errors.Is(err, io.EOF) {
			t.Errorf("Expected io.EOF for a closed empty queue, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("read did not return after close")
	}
}

func TestMicQueue_DropsOldestWhenFull(t *testing.T) {
	q := newMicQueue()

	first := make([]int16, maxQueuedSamples)
	for i := range first {
		first[i] = 1
	}
	q.push(first)
	q.push([]int16{9, 9, 9})

	q.mu.Lock()
	size := len(q.pending)
	newest := q.pending[len(q.pending)-1]
	q.mu.Unlock()

	if size != maxQueuedSamples {
		t.Errorf("Expected queue capped at %d samples, got %d", maxQueuedSamples, size)
	}
	if newest != 9 {
		t.Errorf("Expected newest samples kept, got %d", newest)
	}
}

func TestMicQueue_PushAfterCloseIgnored(t *testing.T) {
	q := newMicQueue()
	q.close()
	q.push([]int16{1})

	if _, err := q.read(make([]int16, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}
