package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Analyze a prerecorded meeting audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := ctx.newPipeline().RunFile(cmd.Context(), args[0])
			if err != nil {
				ctx.recordOutcome(cmd, report, "failed")
				return err
			}
			ctx.recordOutcome(cmd, report, "completed")

			fmt.Fprintf(cmd.OutOrStdout(), "Analysis completed: %s\n", report.OutputDirectory)
			fmt.Fprintf(cmd.OutOrStdout(), "Action items: %d\n", report.ActionItems.Count)
			if len(report.KeyTopics) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Key topics: %v\n", report.KeyTopics)
			}
			return nil
		},
	}
}
