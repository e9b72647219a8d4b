// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docintel/internal/criteria"
	"github.com/pdiddy/docintel/internal/judge"
	"github.com/pdiddy/docintel/internal/metrics"
	"github.com/pdiddy/docintel/internal/report"
	"github.com/pdiddy/docintel/internal/selection"
	"github.com/pdiddy/docintel/internal/watch"
	"github.com/pdiddy/docintel/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Select the documents relevant to a research specification",
	Long: `Research scores every document in the source folder against the research
criteria (topic, aim, questions, objectives, rationale) with a language
model. Documents scoring at or above the threshold move to the destination;
the others stay in the source folder, or move to --rejected-dir.

Every judged document gets an entry with its score and justification in the
report (Markdown, or YAML when the path ends in .yaml). Documents that
cannot be extracted or judged move to the Error folder inside the
destination and get no report entry.

With --watch the folder is processed again whenever documents arrive.
Rejected documents left unchanged in the source folder are not judged
again, and the report lists every document judged since watching started.

The criteria file is Markdown with Topic, Aim, Research Questions,
Objectives and Rationale sections, or YAML with the same keys.`,
	RunE: runResearch,
}

func init() {
	addFolderFlags(researchCmd)
	addAIFlags(researchCmd)
	researchCmd.Flags().String("criteria", "", "research specification file (Markdown or YAML)")
	researchCmd.Flags().Float64("threshold", types.DefaultThreshold, "minimum score (0-100) for selection")
	researchCmd.Flags().String("rejected-dir", "", "move rejected documents here instead of leaving them in the source folder")
	researchCmd.Flags().String("report", "", "report file (default <dest>/relevance_report.md)")
	researchCmd.Flags().String("xlsx", "", "also export the report as a spreadsheet to this path")
	researchCmd.Flags().Int("workers", 1, "documents judged concurrently")
	researchCmd.Flags().Int("max-content-chars", types.DefaultMaxContentChars, "document text sent to the model")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	folders, err := folderConfig(cmd)
	if err != nil {
		return err
	}
	cfg := types.ResearchConfig{
		FolderConfig:    folders,
		AI:              aiConfig(),
		Extraction:      extractionConfig(),
		CriteriaFile:    viper.GetString("criteria"),
		Threshold:       viper.GetFloat64("threshold"),
		RejectedDir:     viper.GetString("rejected-dir"),
		ReportFile:      viper.GetString("report"),
		XLSXFile:        viper.GetString("xlsx"),
		Workers:         viper.GetInt("workers"),
		MaxContentChars: viper.GetInt("max-content-chars"),
	}
	if cfg.ReportFile == "" {
		cfg.ReportFile = filepath.Join(cfg.DestDir, types.DefaultReportFile)
	}
	if cfg.CriteriaFile == "" {
		return fmt.Errorf("--criteria is required")
	}
	if cfg.Threshold < types.MinScore || cfg.Threshold > types.MaxScore {
		return fmt.Errorf("--threshold %g is outside %d-%d", cfg.Threshold, types.MinScore, types.MaxScore)
	}

	crit, err := criteria.Load(cfg.CriteriaFile)
	if err != nil {
		return err
	}
	backend, err := judge.NewBackend(cfg.AI)
	if err != nil {
		return err
	}
	ex, err := newExtractor(ctx, cfg.Extraction)
	if err != nil {
		return err
	}

	j := judge.New(backend, cfg.AI, cfg.Threshold, cfg.MaxContentChars)
	d := selection.New(cfg, ex, j, crit)
	d.Out = cmd.OutOrStdout()

	log.Info().
		Str("criteria", crit.Source).
		Str("topic", crit.Topic).
		Str("provider", cfg.AI.Provider).
		Str("model", cfg.AI.Model).
		Msg("criteria loaded")

	batch := func(ctx context.Context) error {
		start := time.Now()
		m := metrics.NewRun(selection.Mode)
		j.Recorder = m
		d.Metrics = m
		defer finishMetrics(m, start)

		run, err := d.Run(ctx, cfg.SourceDir)
		if run != nil && cfg.XLSXFile != "" {
			if xerr := report.ExportXLSX(cfg.XLSXFile, run); xerr != nil {
				log.Warn().Err(xerr).Str("path", cfg.XLSXFile).Msg("exporting spreadsheet")
			}
		}
		if run != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", cfg.ReportFile)
		}
		return err
	}

	if viper.GetBool("watch") {
		d.Watch = true
		return watch.Run(ctx, watch.Config{Dir: cfg.SourceDir, Debounce: viper.GetDuration("debounce")}, batch)
	}
	return batch(ctx)
}
