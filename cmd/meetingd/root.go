package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scribeworks/meetingd/internal/asr"
	"github.com/scribeworks/meetingd/internal/config"
	"github.com/scribeworks/meetingd/internal/observability"
	"github.com/scribeworks/meetingd/internal/sentiment"
	"github.com/scribeworks/meetingd/internal/session"
	"github.com/scribeworks/meetingd/internal/store"
)

// commandContext holds the shared dependencies built once per invocation
type commandContext struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// ensureConfig loads configuration and initializes logging
func (c *commandContext) ensureConfig() error {
	if c.cfg != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	c.cfg = cfg
	c.logger = observability.GetLogger()
	return nil
}

// newPipeline builds the analysis pipeline from the loaded configuration
func (c *commandContext) newPipeline() *session.Pipeline {
	recognizer := asr.NewDeepgramRecognizer(c.cfg)

	var scorer sentiment.Scorer
	if c.cfg.SentimentURL != "" {
		scorer = sentiment.NewHTTPScorer(c.cfg)
	} else {
		c.logger.Info().Msg("No sentiment endpoint configured, sentiment stage disabled")
	}

	return session.NewPipeline(c.cfg, recognizer, scorer, c.logger)
}

// openStore opens the session index under the output directory
func (c *commandContext) openStore() (*store.Store, error) {
	return store.Open(filepath.Join(c.cfg.OutputDir, "sessions.db"))
}

// recordOutcome indexes a finished session; index failures are logged but
// never fail the command. A nil report means no session directory was ever
// created, so there is nothing to index.
func (c *commandContext) recordOutcome(cmd *cobra.Command, report *session.Report, state string) {
	if report == nil {
		return
	}

	s, err := c.openStore()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Could not open session index")
		return
	}
	defer s.Close()

	rec := store.SessionRecord{
		SessionID:       report.AnalysisID,
		AnalysisID:      report.AnalysisID,
		AudioSource:     report.AudioSource,
		State:           state,
		WordCount:       report.TranscriptStatistics.WordCount,
		ActionItemCount: report.ActionItems.Count,
		OutputDir:       report.OutputDirectory,
	}

	if err := s.RecordSession(cmd.Context(), rec); err != nil {
		c.logger.Warn().Err(err).Msg("Could not index session")
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "meetingd",
		Short:         "Meeting capture and analysis pipeline",
		Long:          "meetingd captures meeting audio, transcribes it as it arrives, and produces speaker-attributed transcripts, action items, summaries, and sentiment reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.ensureConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newRecordCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newSessionsCommand(ctx))

	return rootCmd
}
