// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docintel/internal/judge"
	"github.com/pdiddy/docintel/internal/metrics"
	"github.com/pdiddy/docintel/internal/rename"
	"github.com/pdiddy/docintel/internal/report"
	"github.com/pdiddy/docintel/internal/watch"
	"github.com/pdiddy/docintel/pkg/types"
)

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Move documents to the destination under canonical names",
	Long: `Rename reads the title, authors and year of every PDF, Word and text file in
the source folder and moves it to the destination as
Surname_Year_Title_Words.ext. Names that are already taken get a _1, _2
suffix; nothing is overwritten.

Documents whose metadata cannot be read are moved unmodified to the Error
folder inside the destination. With --suggest, documents that have text
but no usable title or author are named by the language model instead.

Running rename again only handles documents added to the source folder
since, including quarantined ones moved back for a retry.`,
	RunE: runRename,
}

func init() {
	addFolderFlags(renameCmd)
	addAIFlags(renameCmd)
	renameCmd.Flags().Bool("dry-run", false, "print the names without moving anything")
	renameCmd.Flags().Bool("suggest", false, "ask the language model for a name when metadata is insufficient")

	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	folders, err := folderConfig(cmd)
	if err != nil {
		return err
	}
	cfg := types.RenameConfig{
		FolderConfig: folders,
		Extraction:   extractionConfig(),
		DryRun:       viper.GetBool("dry-run"),
		Suggest:      viper.GetBool("suggest"),
	}

	ex, err := newExtractor(ctx, cfg.Extraction)
	if err != nil {
		return err
	}
	r := rename.New(cfg, ex)

	if cfg.Suggest {
		backend, err := judge.NewBackend(aiConfig())
		if err != nil {
			return err
		}
		r.Suggester = &rename.Suggester{Backend: backend}
	}

	batch := func(ctx context.Context) error {
		start := time.Now()
		m := metrics.NewRun("rename")
		r.Metrics = m
		defer finishMetrics(m, start)

		if !cfg.DryRun {
			elog, err := report.OpenErrorLog(cfg.QuarantinePath(), uuid.NewString(), "rename")
			if err != nil {
				return err
			}
			defer elog.Close()
			r.Errors = elog
		}

		_, err := r.Run(ctx, cmd.OutOrStdout())
		return err
	}

	if viper.GetBool("watch") {
		return watch.Run(ctx, watch.Config{Dir: cfg.SourceDir, Debounce: viper.GetDuration("debounce")}, batch)
	}
	return batch(ctx)
}
