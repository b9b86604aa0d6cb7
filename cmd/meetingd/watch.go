package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scribeworks/meetingd/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the intake directory and analyze every new audio file",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			pipe := ctx.newPipeline()
			handler := func(hctx context.Context, path string) error {
				report, err := pipe.RunFile(hctx, path)
				if err != nil {
					ctx.recordOutcome(cmd, report, "failed")
					return err
				}
				ctx.recordOutcome(cmd, report, "completed")
				return nil
			}

			w, err := watcher.New(ctx.cfg.WatchDir, ctx.cfg.WatchMaxConcurrent, handler, ctx.logger)
			if err != nil {
				return err
			}
			defer w.Stop()

			if err := w.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
