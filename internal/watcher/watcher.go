package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Handler processes one audio file dropped into the watched directory
type Handler func(ctx context.Context, path string) error

// Watcher monitors an intake directory and runs the analysis handler for
// every new audio file, with a cap on concurrent analyses.
type Watcher struct {
	inputDir      string
	handler       Handler
	logger        zerolog.Logger
	watcher       *fsnotify.Watcher
	maxConcurrent int
	semaphore     chan struct{}
	wg            sync.WaitGroup

	// settleDelay gives the writer time to finish before analysis starts
	settleDelay time.Duration
}

// New creates a watcher for the given intake directory, creating it if needed
func New(inputDir string, maxConcurrent int, handler Handler, logger zerolog.Logger) (*Watcher, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create intake directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsw.Add(inputDir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", inputDir, err)
	}

	return &Watcher{
		inputDir:      inputDir,
		handler:       handler,
		logger:        logger,
		watcher:       fsw,
		maxConcurrent: maxConcurrent,
		semaphore:     make(chan struct{}, maxConcurrent),
		settleDelay:   500 * time.Millisecond,
	}, nil
}

// Start monitors the intake directory until the context is cancelled. In-
// flight analyses are drained before returning.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info().
		Str("dir", w.inputDir).
		Int("max_concurrent", w.maxConcurrent).
		Msg("Intake watcher started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Waiting for in-flight analyses to complete")
			w.wg.Wait()
			w.logger.Info().Msg("Intake watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !isAudioFile(event.Name) {
				w.logger.Debug().Str("file", event.Name).Msg("Ignoring non-audio file")
				continue
			}

			w.logger.Info().Str("file", event.Name).Msg("New audio file detected")

			// Let the writer finish before we start reading
			time.Sleep(w.settleDelay)

			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(path string) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()

					if err := w.handler(ctx, path); err != nil {
						w.logger.Error().Err(err).Str("file", path).Msg("Analysis failed")
					}
				}(event.Name)
			case <-ctx.Done():
				w.wg.Wait()
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// Stop closes the underlying file watcher
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range []string{".wav", ".mp3", ".m4a", ".flac", ".ogg"} {
		if ext == supported {
			return true
		}
	}
	return false
}
