// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sync"
	"time"
)

// Score bounds for RelevanceVerdict.Score.
const (
	MinScore = 0
	MaxScore = 100
)

// CriterionScore is the judge's assessment of one criterion.
type CriterionScore struct {
	Criterion string  `json:"criterion" yaml:"criterion"`
	Score     float64 `json:"score" yaml:"score"`
	Comment   string  `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// RelevanceVerdict is the judge's decision for one document in one run.
type RelevanceVerdict struct {
	// Score is the overall relevance on a 0-100 scale.
	Score float64 `json:"score" yaml:"score"`

	// Selected is true when Score meets or exceeds Threshold.
	Selected bool `json:"selected" yaml:"selected"`

	// Threshold is the cut-off in effect when the verdict was made.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Justification is the judge's explanation of the score.
	Justification string `json:"justification" yaml:"justification"`

	// Criteria holds optional per-criterion assessments.
	Criteria []CriterionScore `json:"criteria,omitempty" yaml:"criteria,omitempty"`

	// Model is the model identifier that produced the verdict.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Attempts is the number of backend calls it took.
	Attempts int `json:"attempts" yaml:"attempts"`

	// JudgedAt is when the verdict was produced.
	JudgedAt time.Time `json:"judged_at" yaml:"judged_at"`
}

// Outcome is the terminal state of a document in a run.
type Outcome string

const (
	OutcomeSelected Outcome = "selected"
	OutcomeRejected Outcome = "rejected"
	OutcomeErrored  Outcome = "errored"
	OutcomeRenamed  Outcome = "renamed"
	OutcomeSkipped  Outcome = "skipped"
)

// Stage names where a per-file failure happened.
type Stage string

const (
	StageExtract Stage = "extract"
	StageRename  Stage = "rename"
	StageJudge   Stage = "judge"
	StageRoute   Stage = "route"
)

// ReportEntry pairs a judged document with its verdict.
type ReportEntry struct {
	Document    DocumentRef      `json:"document" yaml:"document"`
	Verdict     RelevanceVerdict `json:"verdict" yaml:"verdict"`
	Outcome     Outcome          `json:"outcome" yaml:"outcome"`
	Destination string           `json:"destination,omitempty" yaml:"destination,omitempty"`
}

// Failure records a document that ended in quarantine.
type Failure struct {
	Document    DocumentRef `json:"document" yaml:"document"`
	Stage       Stage       `json:"stage" yaml:"stage"`
	Reason      string      `json:"reason" yaml:"reason"`
	Destination string      `json:"destination,omitempty" yaml:"destination,omitempty"`
}

// RunCounts summarizes a RunReport.
type RunCounts struct {
	Selected int `json:"selected" yaml:"selected"`
	Rejected int `json:"rejected" yaml:"rejected"`
	Errored  int `json:"errored" yaml:"errored"`
}

// Total returns the number of documents that reached a terminal state.
func (c RunCounts) Total() int {
	return c.Selected + c.Rejected + c.Errored
}

// RunReport accumulates verdicts and failures for one run. It is
// append-only and safe for concurrent use.
type RunReport struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	Mode       string           `json:"mode" yaml:"mode"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time        `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Criteria   ResearchCriteria `json:"criteria" yaml:"criteria"`
	Threshold  float64          `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Model      string           `json:"model,omitempty" yaml:"model,omitempty"`
	Entries    []ReportEntry    `json:"entries" yaml:"entries"`
	Failures   []Failure        `json:"failures,omitempty" yaml:"failures,omitempty"`

	mu sync.Mutex
}

// NewRunReport starts an empty report.
func NewRunReport(runID, mode string, criteria ResearchCriteria) *RunReport {
	return &RunReport{
		RunID:     runID,
		Mode:      mode,
		StartedAt: time.Now().UTC(),
		Criteria:  criteria,
	}
}

// AddEntry appends a judged document.
func (r *RunReport) AddEntry(e ReportEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
}

// AddFailure appends a quarantined document.
func (r *RunReport) AddFailure(f Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, f)
}

// Finish stamps the end of the run.
func (r *RunReport) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now().UTC()
}

// Snapshot returns copies of the entries and failures recorded so far.
func (r *RunReport) Snapshot() ([]ReportEntry, []Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]ReportEntry, len(r.Entries))
	copy(entries, r.Entries)
	failures := make([]Failure, len(r.Failures))
	copy(failures, r.Failures)
	return entries, failures
}

// Counts tallies the report by outcome.
func (r *RunReport) Counts() RunCounts {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c RunCounts
	for _, e := range r.Entries {
		if e.Verdict.Selected {
			c.Selected++
		} else {
			c.Rejected++
		}
	}
	c.Errored = len(r.Failures)
	return c
}
