// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection runs the research pass: every document in the source
// folder is extracted, judged against the research criteria, and routed to
// the chosen folder, the rejected location, or quarantine.
//
// Each document moves through Pending, Extracting and Judging to exactly one
// of Selected, Rejected or Errored. A document that fails never stops the
// batch; it is quarantined with the stage and reason recorded in the error
// log. Judged documents, and only those, get a report entry.
package selection

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/docintel/internal/extract"
	"github.com/pdiddy/docintel/internal/report"
	"github.com/pdiddy/docintel/internal/route"
	"github.com/pdiddy/docintel/pkg/types"
)

// Mode is recorded on every RunReport the driver produces.
const Mode = "research"

// Extractor reads one document. extract.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, path string) types.Document
}

// Scorer judges one document. judge.Judge implements it.
type Scorer interface {
	Score(ctx context.Context, doc types.Document, criteria types.ResearchCriteria) (types.RelevanceVerdict, error)
}

// Observer counts outcomes. metrics.Run implements it.
type Observer interface {
	Document(outcome types.Outcome, size int64)
	Failure(stage types.Stage)
}

// Driver runs one research pass over a source folder.
type Driver struct {
	Extractor Extractor
	Judge     Scorer
	Router    *route.FSRouter
	Criteria  types.ResearchCriteria

	// Threshold and Model are copied onto the RunReport header.
	Threshold float64
	Model     string

	// ReportPath, when set, receives the streamed report. Any report at
	// that path from an earlier run is replaced.
	ReportPath string

	// Workers is the number of documents handled at once (default 1).
	Workers int

	// Out receives one status line per document and the run summary.
	Out io.Writer

	Metrics Observer

	// RunID identifies the run in the report and error log. Each run
	// gets a random one when empty.
	RunID string

	// Watch keeps verdicts between runs of the same Driver. Rejected
	// documents left unchanged in the source folder are not judged again,
	// and each report lists every document judged since the first run.
	Watch bool

	outMu   sync.Mutex
	sink    *report.Writer
	errLog  *report.ErrorLog
	session *session
}

// New returns a Driver for cfg. The caller supplies the extractor and judge.
func New(cfg types.ResearchConfig, ex Extractor, j Scorer, criteria types.ResearchCriteria) *Driver {
	return &Driver{
		Extractor:  ex,
		Judge:      j,
		Router:     route.New(cfg.FolderConfig, cfg.RejectedDir),
		Criteria:   criteria,
		Threshold:  cfg.Threshold,
		Model:      cfg.AI.Model,
		ReportPath: cfg.ReportFile,
		Workers:    cfg.Workers,
	}
}

// Run processes every supported document in sourceDir and returns the
// run's report. The error is non-nil only for run-level failures (missing
// source folder, unusable destination, report not creatable) or when ctx
// ends first; in the latter case the partial report is returned too.
//
// On cancellation no new document is started. A document whose extraction
// or judging is interrupted stays in the source folder unrecorded.
func (d *Driver) Run(ctx context.Context, sourceDir string) (*types.RunReport, error) {
	paths, err := extract.List(sourceDir)
	if err != nil {
		return nil, err
	}
	if err := d.Router.EnsureLayout(); err != nil {
		return nil, err
	}

	runID := d.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	if d.Out == nil {
		d.Out = io.Discard
	}
	run := types.NewRunReport(runID, Mode, d.Criteria)
	run.Threshold = d.Threshold
	run.Model = d.Model

	d.errLog, err = report.OpenErrorLog(d.Router.Quarantine, runID, Mode)
	if err != nil {
		return nil, err
	}
	defer d.errLog.Close()

	d.sink = nil
	if d.ReportPath != "" {
		d.sink, err = report.Create(d.ReportPath, run)
		if err != nil {
			return nil, err
		}
	}

	if d.Watch && d.session == nil {
		d.session = newSession()
	}
	paths = d.carryOver(run, paths)

	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Str("source", sourceDir).Int("documents", len(paths)).Int("workers", d.workers()).Float64("threshold", d.Threshold).Msg("research run started")

	var g errgroup.Group
	g.SetLimit(d.workers())
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			d.process(ctx, run, path)
			return nil
		})
	}
	g.Wait()

	run.Finish()
	counts := run.Counts()
	if d.sink != nil {
		if err := d.sink.Close(counts); err != nil {
			logger.Error().Err(err).Msg("closing report")
		}
	}

	fmt.Fprintf(d.Out, "\nRun summary: %d selected, %d rejected, %d errored (total: %d)\n",
		counts.Selected, counts.Rejected, counts.Errored, counts.Total())
	logger.Info().
		Int("selected", counts.Selected).
		Int("rejected", counts.Rejected).
		Int("errored", counts.Errored).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("research run finished")

	return run, ctx.Err()
}

// carryOver adds the session's earlier verdicts to run and returns the paths
// that still need judging.
func (d *Driver) carryOver(run *types.RunReport, paths []string) []string {
	if d.session == nil {
		return paths
	}
	var todo []string
	rejudge := map[string]bool{}
	for _, p := range paths {
		if d.session.unchanged(p) {
			continue
		}
		todo = append(todo, p)
		rejudge[p] = true
	}
	for _, e := range d.session.carried(rejudge) {
		d.record(run, e)
		if e.Destination == e.Document.Path {
			d.printf("unchanged: %s (score %g)\n", e.Document.Name, e.Verdict.Score)
		}
	}
	return todo
}

// record adds a judged entry to the run and the streamed report.
func (d *Driver) record(run *types.RunReport, e types.ReportEntry) {
	run.AddEntry(e)
	if d.sink != nil {
		if err := d.sink.Append(e); err != nil {
			log.Error().Err(err).Str("file", e.Document.Name).Msg("writing report entry")
		}
	}
}

func (d *Driver) workers() int {
	if d.Workers < 1 {
		return 1
	}
	return d.Workers
}

// process takes one document from Pending to a terminal state.
func (d *Driver) process(ctx context.Context, run *types.RunReport, path string) {
	start := time.Now()

	doc := d.Extractor.Extract(ctx, path)
	if ctx.Err() != nil {
		return
	}
	if doc.Failed() {
		d.quarantine(run, doc, types.StageExtract, doc.ExtractionErr)
		return
	}
	if !doc.HasSignal() {
		d.quarantine(run, doc, types.StageExtract, "no title or abstract to judge")
		return
	}

	verdict, err := d.Judge.Score(ctx, doc, d.Criteria)
	if ctx.Err() != nil {
		log.Debug().Str("file", doc.Name).Msg("judging interrupted; left in source")
		return
	}
	if err != nil {
		d.quarantine(run, doc, types.StageJudge, err.Error())
		return
	}

	outcome := types.OutcomeRejected
	if verdict.Selected {
		outcome = types.OutcomeSelected
	}
	dst, err := d.Router.Route(doc, outcome, "")
	if err != nil {
		d.quarantine(run, doc, types.StageRoute, err.Error())
		return
	}

	entry := types.ReportEntry{Document: doc.Ref(), Verdict: verdict, Outcome: outcome, Destination: dst}
	d.record(run, entry)
	if d.session != nil {
		d.session.remember(path, entry)
	}
	if d.Metrics != nil {
		d.Metrics.Document(outcome, doc.Size)
	}

	d.printf("%s: %s (score %g)\n", outcome, doc.Name, verdict.Score)
	log.Info().
		Str("file", doc.Name).
		Str("outcome", string(outcome)).
		Float64("score", verdict.Score).
		Int("attempts", verdict.Attempts).
		Dur("elapsed", time.Since(start)).
		Msg("judged")
}

// quarantine moves doc unmodified into the Error folder and records the
// failure. If even that move fails the document stays where it is and the
// failure is still recorded.
func (d *Driver) quarantine(run *types.RunReport, doc types.Document, stage types.Stage, reason string) {
	fl := types.Failure{Document: doc.Ref(), Stage: stage, Reason: reason}

	dst, err := d.Router.Route(doc, types.OutcomeErrored, "")
	if err != nil {
		log.Error().Err(err).Str("file", doc.Name).Msg("quarantine failed")
		fl.Reason = reason + "; " + err.Error()
	} else {
		fl.Destination = dst
	}

	run.AddFailure(fl)
	d.errLog.Record(fl)
	if d.session != nil {
		d.session.forget(doc.Path)
	}
	if d.Metrics != nil {
		d.Metrics.Failure(stage)
		d.Metrics.Document(types.OutcomeErrored, doc.Size)
	}

	d.printf("failed:  %s (%s)\n", doc.Name, fl.Reason)
	log.Warn().Str("file", doc.Name).Str("stage", string(stage)).Str("reason", reason).Msg("quarantined")
}

func (d *Driver) printf(format string, args ...any) {
	d.outMu.Lock()
	defer d.outMu.Unlock()
	fmt.Fprintf(d.Out, format, args...)
}
