// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rename normalizes the filenames of a folder of academic papers.
// Each supported file is read for its metadata and moved to the destination
// as Surname_Year_Title.ext. Files whose metadata cannot be read are moved,
// unmodified and under their original name, to the Error quarantine folder
// inside the destination.
//
// Files leave the source folder as they are handled, so running the batch
// again only picks up what is new or what was moved back for a retry.
package rename

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/docintel/internal/extract"
	"github.com/pdiddy/docintel/internal/route"
	"github.com/pdiddy/docintel/pkg/types"
)

// Extractor reads one document. extract.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, path string) types.Document
}

// FailureLog records quarantined documents. report.ErrorLog implements it.
type FailureLog interface {
	Record(f types.Failure)
}

// Observer counts outcomes. metrics.Run implements it.
type Observer interface {
	Document(outcome types.Outcome, size int64)
	Failure(stage types.Stage)
}

// BatchSummary holds the outcome of a rename run.
type BatchSummary struct {
	Renamed     int
	Quarantined int
	Skipped     int
	Failed      int
}

// Total returns the number of files handled.
func (s BatchSummary) Total() int {
	return s.Renamed + s.Quarantined + s.Skipped + s.Failed
}

// HasFailures reports whether any file was quarantined or could not be
// moved at all.
func (s BatchSummary) HasFailures() bool {
	return s.Quarantined > 0 || s.Failed > 0
}

// Renamer runs the rename batch over one source folder.
type Renamer struct {
	Source    string
	Extractor Extractor
	Router    *route.FSRouter

	// Suggester, when set, names documents whose metadata is insufficient
	// but which have text.
	Suggester *Suggester

	// DryRun computes names and reports them without moving anything.
	DryRun bool

	Errors  FailureLog
	Metrics Observer
}

// New returns a Renamer for cfg.
func New(cfg types.RenameConfig, ex Extractor) *Renamer {
	return &Renamer{
		Source:    cfg.SourceDir,
		Extractor: ex,
		Router:    route.New(cfg.FolderConfig, ""),
		DryRun:    cfg.DryRun,
	}
}

// Run handles every supported file in the source folder, printing one
// status line per file to w and a summary at the end. It returns an error
// only when the batch cannot run at all: a missing source folder or an
// unusable destination. Cancelling ctx stops the batch before the next
// file; the files not yet handled stay in the source folder.
func (r *Renamer) Run(ctx context.Context, w io.Writer) (BatchSummary, error) {
	var sum BatchSummary

	paths, err := extract.List(r.Source)
	if err != nil {
		return sum, err
	}
	if !r.DryRun {
		if err := r.Router.EnsureLayout(); err != nil {
			return sum, err
		}
	}

	log.Info().Str("source", r.Source).Str("dest", r.Router.Chosen).Int("files", len(paths)).Bool("dry_run", r.DryRun).Msg("rename started")

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		r.renameOne(ctx, path, w, &sum)
	}

	fmt.Fprintf(w, "\nBatch summary: %d renamed, %d quarantined, %d skipped, %d failed (total: %d)\n",
		sum.Renamed, sum.Quarantined, sum.Skipped, sum.Failed, sum.Total())
	return sum, ctx.Err()
}

func (r *Renamer) renameOne(ctx context.Context, path string, w io.Writer, sum *BatchSummary) {
	doc := r.Extractor.Extract(ctx, path)
	if ctx.Err() != nil {
		return
	}
	if doc.Failed() {
		r.quarantine(doc, types.StageExtract, doc.ExtractionErr, w, sum)
		return
	}

	name, err := CanonicalName(doc)
	if errors.Is(err, ErrInsufficientMetadata) && r.Suggester != nil {
		name, err = r.Suggester.Suggest(ctx, doc)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			log.Debug().Str("file", doc.Name).Str("name", name).Msg("name suggested")
		}
	}
	if err != nil {
		r.quarantine(doc, types.StageRename, err.Error(), w, sum)
		return
	}

	if r.DryRun {
		dst, err := r.Router.Preview(types.OutcomeRenamed, name)
		if err != nil {
			dst = filepath.Join(r.Router.Chosen, name)
		}
		fmt.Fprintf(w, "would rename: %s -> %s\n", doc.Name, filepath.Base(dst))
		r.observe(types.OutcomeSkipped, doc.Size)
		sum.Skipped++
		return
	}

	dst, err := r.Router.Route(doc, types.OutcomeRenamed, name)
	if err != nil {
		r.quarantine(doc, types.StageRoute, err.Error(), w, sum)
		return
	}
	fmt.Fprintf(w, "renamed: %s -> %s\n", doc.Name, filepath.Base(dst))
	log.Info().Str("file", doc.Name).Str("to", dst).Msg("renamed")
	r.observe(types.OutcomeRenamed, doc.Size)
	sum.Renamed++
}

// quarantine moves doc unmodified into the Error folder and records why.
// In a dry run it only reports.
func (r *Renamer) quarantine(doc types.Document, stage types.Stage, reason string, w io.Writer, sum *BatchSummary) {
	if r.DryRun {
		fmt.Fprintf(w, "would quarantine: %s (%s)\n", doc.Name, reason)
		r.observe(types.OutcomeSkipped, doc.Size)
		sum.Skipped++
		return
	}

	fl := types.Failure{Document: doc.Ref(), Stage: stage, Reason: reason}
	dst, err := r.Router.Route(doc, types.OutcomeErrored, "")
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%s; %v)\n", doc.Name, reason, err)
		log.Error().Err(err).Str("file", doc.Name).Str("stage", string(stage)).Str("reason", reason).Msg("quarantine failed")
		fl.Reason = reason + "; " + err.Error()
		r.recordFailure(fl)
		sum.Failed++
		return
	}

	fl.Destination = dst
	fmt.Fprintf(w, "failed:  %s (%s)\n", doc.Name, reason)
	log.Warn().Str("file", doc.Name).Str("stage", string(stage)).Str("reason", reason).Msg("quarantined")
	r.recordFailure(fl)
	r.observe(types.OutcomeErrored, doc.Size)
	sum.Quarantined++
}

func (r *Renamer) recordFailure(fl types.Failure) {
	if r.Errors != nil {
		r.Errors.Record(fl)
	}
	if r.Metrics != nil {
		r.Metrics.Failure(fl.Stage)
	}
}

func (r *Renamer) observe(outcome types.Outcome, size int64) {
	if r.Metrics != nil {
		r.Metrics.Document(outcome, size)
	}
}
