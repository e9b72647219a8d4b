// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the human-readable record of a research run. The
// report is streamed: a header when the run starts, one self-contained
// block per judged document as it completes, and a summary footer at the
// end. A run that dies midway leaves a readable report of everything judged
// so far. Markdown is the default; a .yaml or .yml path selects a YAML
// document stream.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docintel/pkg/types"
)

// Format selects the report encoding.
type Format int

const (
	Markdown Format = iota
	YAML
)

// FormatFor picks the format from the report path's extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return Markdown
	}
}

// Writer streams a report to a file. Append and Close are safe for
// concurrent use.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	buf    *bufio.Writer
	format Format
	n      int
	closed bool
}

// Create truncates path and writes the report header for run. Any report
// left by a previous run is replaced, never merged.
func Create(path string, run *types.RunReport) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating report %s: %w", path, err)
	}
	w := &Writer{f: f, buf: bufio.NewWriter(f), format: FormatFor(path)}

	if w.format == YAML {
		err = writeYAMLDoc(w.buf, yamlHeader{
			RunID:     run.RunID,
			Mode:      run.Mode,
			StartedAt: run.StartedAt,
			Threshold: run.Threshold,
			Model:     run.Model,
			Criteria:  run.Criteria,
		})
	} else {
		err = writeMarkdownHeader(w.buf, run)
	}
	if err == nil {
		err = w.buf.Flush()
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("writing report header: %w", err)
	}
	return w, nil
}

// Append writes one entry and flushes it to disk.
func (w *Writer) Append(e types.ReportEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("report already closed")
	}
	w.n++

	var err error
	if w.format == YAML {
		err = writeYAMLDoc(w.buf, e)
	} else {
		err = writeMarkdownEntry(w.buf, w.n, e)
	}
	if err == nil {
		err = w.buf.Flush()
	}
	if err != nil {
		return fmt.Errorf("appending %s to report: %w", e.Document.Name, err)
	}
	return nil
}

// Close writes the summary footer and closes the file.
func (w *Writer) Close(counts types.RunCounts) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	if w.format == YAML {
		err = writeYAMLDoc(w.buf, yamlFooter{Summary: counts, FinishedAt: time.Now().UTC()})
	} else {
		err = writeMarkdownFooter(w.buf, counts)
	}
	if err == nil {
		err = w.buf.Flush()
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	return nil
}

// WriteFile regenerates the whole report for run at path.
func WriteFile(path string, run *types.RunReport) error {
	w, err := Create(path, run)
	if err != nil {
		return err
	}
	entries, _ := run.Snapshot()
	for _, e := range entries {
		if err := w.Append(e); err != nil {
			w.Close(run.Counts())
			return err
		}
	}
	return w.Close(run.Counts())
}

// --- YAML ---

type yamlHeader struct {
	RunID     string                 `yaml:"run_id"`
	Mode      string                 `yaml:"mode"`
	StartedAt time.Time              `yaml:"started_at"`
	Threshold float64                `yaml:"threshold"`
	Model     string                 `yaml:"model,omitempty"`
	Criteria  types.ResearchCriteria `yaml:"criteria"`
}

type yamlFooter struct {
	Summary    types.RunCounts `yaml:"summary"`
	FinishedAt time.Time       `yaml:"finished_at"`
}

func writeYAMLDoc(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// --- Markdown ---

func writeMarkdownHeader(w io.Writer, run *types.RunReport) error {
	var b strings.Builder
	b.WriteString("# Relevance report\n\n")
	fmt.Fprintf(&b, "- **Run:** %s\n", run.RunID)
	fmt.Fprintf(&b, "- **Started:** %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Threshold:** %s\n", formatScore(run.Threshold))
	if run.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", run.Model)
	}

	c := run.Criteria
	b.WriteString("\n## Criteria\n\n")
	fmt.Fprintf(&b, "- **Topic:** %s\n", c.Topic)
	fmt.Fprintf(&b, "- **Aim:** %s\n", c.Aim)
	for i, q := range c.Questions {
		fmt.Fprintf(&b, "- **Question %d:** %s\n", i+1, q)
	}
	for i, o := range c.Objectives {
		fmt.Fprintf(&b, "- **Objective %d:** %s\n", i+1, o)
	}
	if c.Rationale != "" {
		fmt.Fprintf(&b, "- **Rationale:** %s\n", c.Rationale)
	}
	b.WriteString("\n## Documents\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownEntry(w io.Writer, n int, e types.ReportEntry) error {
	v := e.Verdict
	var b strings.Builder

	fmt.Fprintf(&b, "\n### %d. %s\n\n", n, e.Document.Name)
	if e.Document.Title != "" {
		fmt.Fprintf(&b, "- **Title:** %s\n", e.Document.Title)
	}
	fmt.Fprintf(&b, "- **Score:** %s / %d (threshold %s)\n", formatScore(v.Score), types.MaxScore, formatScore(v.Threshold))
	fmt.Fprintf(&b, "- **Decision:** %s\n", e.Outcome)
	if e.Destination != "" {
		fmt.Fprintf(&b, "- **Location:** %s\n", e.Destination)
	}
	if e.Document.Size > 0 {
		fmt.Fprintf(&b, "- **Size:** %s\n", humanize.Bytes(uint64(e.Document.Size)))
	}
	fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(v.Justification))

	if len(v.Criteria) > 0 {
		b.WriteString("\n| Criterion | Score | Comment |\n|---|---|---|\n")
		for _, cs := range v.Criteria {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(cs.Criterion), formatScore(cs.Score), cell(cs.Comment))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownFooter(w io.Writer, c types.RunCounts) error {
	_, err := fmt.Fprintf(w, "\n## Summary\n\n%d selected, %d rejected, %d errored (total: %d)\n",
		c.Selected, c.Rejected, c.Errored, c.Total())
	return err
}

// cell escapes text for a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func formatScore(f float64) string {
	return humanize.FtoaWithDigits(f, 2)
}
