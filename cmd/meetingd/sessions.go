package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent analysis sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.RecentSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.AnalysisID,
					rec.State,
					strconv.Itoa(rec.WordCount),
					strconv.Itoa(rec.ActionItemCount),
					rec.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}

			out := renderTable(
				[]string{"Session", "State", "Words", "Action Items", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sessions to list")

	return cmd
}
