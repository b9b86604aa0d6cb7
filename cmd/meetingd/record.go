package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scribeworks/meetingd/internal/audio"
	"github.com/scribeworks/meetingd/internal/observability"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var realtime bool

	cmd := &cobra.Command{
		Use:   "record [audio-file]",
		Short: "Capture a meeting live and analyze it when stopped",
		Long:  "Captures from the default microphone, or replays the given audio file, through the rolling transcription pipeline. Stop the capture with Ctrl-C; the session is then analyzed and the report written to the session directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if ctx.cfg.MetricsEnabled {
				go func() {
					if err := observability.ServeMetrics(runCtx, ctx.cfg.MetricsPort, nil); err != nil {
						ctx.logger.Warn().Err(err).Msg("Metrics server stopped")
					}
				}()
			}

			var device audio.Device
			var err error
			if len(args) == 1 {
				device, err = audio.OpenFileDevice(args[0], ctx.cfg.SampleRate, realtime)
			} else {
				device, err = audio.OpenMicDevice(ctx.cfg.SampleRate)
			}
			if err != nil {
				return fmt.Errorf("open audio source: %w", err)
			}

			// Ctrl-C stops the capture; the session then drains and analyzes
			stop := make(chan struct{})
			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(signals)
			go func() {
				<-signals
				ctx.logger.Info().Msg("Interrupt received, stopping capture")
				close(stop)
			}()

			report, err := ctx.newPipeline().RunLive(runCtx, device, stop)
			if err != nil {
				ctx.recordOutcome(cmd, report, "failed")
				return err
			}
			ctx.recordOutcome(cmd, report, "completed")

			fmt.Fprintf(cmd.OutOrStdout(), "Session completed: %s\n", report.OutputDirectory)
			fmt.Fprintf(cmd.OutOrStdout(), "Transcript: %s\n", report.OutputFiles["transcript"])
			return nil
		},
	}

	cmd.Flags().BoolVar(&realtime, "realtime", false, "Replay a file source at its natural speed instead of as fast as possible")

	return cmd
}
