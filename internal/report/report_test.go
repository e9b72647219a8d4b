// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docintel/pkg/types"
)

func testRun() *types.RunReport {
	run := types.NewRunReport("run-1", "research", types.ResearchCriteria{
		Topic:     "climate adaptation",
		Aim:       "policy evaluation",
		Questions: []string{"Which policies reduce flood losses?"},
	})
	run.Threshold = 70
	run.Model = "test-model"
	return run
}

func entry(name string, score float64, selected bool) types.ReportEntry {
	outcome := types.OutcomeRejected
	if selected {
		outcome = types.OutcomeSelected
	}
	return types.ReportEntry{
		Document: types.DocumentRef{Path: "/in/" + name, Name: name, Title: "Title of " + name, Size: 2048},
		Verdict: types.RelevanceVerdict{
			Score:         score,
			Selected:      selected,
			Threshold:     70,
			Justification: "Because " + name + ".",
			Criteria:      []types.CriterionScore{{Criterion: "topic", Score: score, Comment: "a | b"}},
			Attempts:      1,
			JudgedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Outcome:     outcome,
		Destination: "/out/" + name,
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, Markdown, FormatFor("r.md"))
	assert.Equal(t, Markdown, FormatFor("report"))
	assert.Equal(t, YAML, FormatFor("r.yaml"))
	assert.Equal(t, YAML, FormatFor("R.YML"))
}

func TestWriter_Markdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relevance_report.md")
	w, err := Create(path, testRun())
	require.NoError(t, err)

	require.NoError(t, w.Append(entry("a.pdf", 85, true)))

	// Entries are on disk before Close.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### 1. a.pdf")

	require.NoError(t, w.Append(entry("b.pdf", 40, false)))
	require.NoError(t, w.Close(types.RunCounts{Selected: 1, Rejected: 1, Errored: 1}))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	for _, want := range []string{
		"# Relevance report",
		"- **Run:** run-1",
		"- **Threshold:** 70",
		"- **Model:** test-model",
		"- **Topic:** climate adaptation",
		"- **Question 1:** Which policies reduce flood losses?",
		"### 1. a.pdf",
		"- **Score:** 85 / 100 (threshold 70)",
		"- **Decision:** selected",
		"- **Size:** 2.0 kB",
		"Because a.pdf.",
		`| topic | 85 | a \| b |`,
		"### 2. b.pdf",
		"- **Decision:** rejected",
		"1 selected, 1 rejected, 1 errored (total: 3)",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "a.pdf"), strings.Index(out, "b.pdf"))
}

func TestWriter_TruncatesPreviousReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.md")
	require.NoError(t, os.WriteFile(path, []byte("### 1. stale.pdf\n"), 0o644))

	w, err := Create(path, testRun())
	require.NoError(t, err)
	require.NoError(t, w.Close(types.RunCounts{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale.pdf")
}

func TestWriter_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	w, err := Create(path, testRun())
	require.NoError(t, err)
	require.NoError(t, w.Append(entry("a.pdf", 85, true)))
	require.NoError(t, w.Append(entry("b.pdf", 40, false)))
	require.NoError(t, w.Close(types.RunCounts{Selected: 1, Rejected: 1}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := yaml.NewDecoder(f)
	var header yamlHeader
	require.NoError(t, dec.Decode(&header))
	assert.Equal(t, "run-1", header.RunID)
	assert.Equal(t, "climate adaptation", header.Criteria.Topic)

	var names []string
	for i := 0; i < 2; i++ {
		var e types.ReportEntry
		require.NoError(t, dec.Decode(&e))
		names = append(names, e.Document.Name)
		assert.NotEmpty(t, e.Verdict.Justification)
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, names)

	var footer yamlFooter
	require.NoError(t, dec.Decode(&footer))
	assert.Equal(t, 2, footer.Summary.Total())
}

func TestWriter_ConcurrentAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.md")
	w, err := Create(path, testRun())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, w.Append(entry(fmt.Sprintf("doc%02d.pdf", i), 50, false)))
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Close(types.RunCounts{Rejected: 20}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.Equal(t, 1, strings.Count(string(data), fmt.Sprintf(". doc%02d.pdf\n", i)))
	}
	assert.Contains(t, string(data), "### 20. ")
}

func TestWriter_AppendAfterClose(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "r.md"), testRun())
	require.NoError(t, err)
	require.NoError(t, w.Close(types.RunCounts{}))
	assert.Error(t, w.Append(entry("late.pdf", 1, false)))
	assert.NoError(t, w.Close(types.RunCounts{}))
}

func TestWriteFile(t *testing.T) {
	run := testRun()
	run.AddEntry(entry("a.pdf", 85, true))
	run.AddFailure(types.Failure{Document: types.DocumentRef{Name: "bad.pdf"}, Stage: types.StageJudge, Reason: "judging failed"})

	path := filepath.Join(t.TempDir(), "sub", "report.md")
	require.NoError(t, WriteFile(path, run))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### 1. a.pdf")
	assert.NotContains(t, string(data), "bad.pdf")
	assert.Contains(t, string(data), "1 selected, 0 rejected, 1 errored (total: 2)")
}

func TestExportXLSX(t *testing.T) {
	run := testRun()
	run.AddEntry(entry("a.pdf", 85, true))
	run.AddEntry(entry("b.pdf", 40, false))
	run.AddFailure(types.Failure{
		Document:    types.DocumentRef{Name: "bad.pdf"},
		Stage:       types.StageExtract,
		Reason:      "no extractable text",
		Destination: "/out/Error/bad.pdf",
	})

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, ExportXLSX(path, run))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{verdictSheet, failureSheet}, f.GetSheetList())

	rows, err := f.GetRows(verdictSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "File", rows[0][0])
	assert.Equal(t, "a.pdf", rows[1][0])
	assert.Equal(t, "85", rows[1][2])
	assert.Equal(t, "selected", rows[1][4])
	assert.Equal(t, "rejected", rows[2][4])

	rows, err = f.GetRows(failureSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"bad.pdf", "extract", "no extractable text", "/out/Error/bad.pdf"}, rows[1])
}

func TestWriteRow_ReportsCellErrors(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	err := writeRow(f, "Missing", 1, "a.pdf", 85.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing!A1")

	require.NoError(t, writeRow(f, f.GetSheetName(0), 2, "a.pdf", 85.0))
	v, err := f.GetCellValue(f.GetSheetName(0), "B2")
	require.NoError(t, err)
	assert.Equal(t, "85", v)
}

func TestExportXLSX_UnwritablePath(t *testing.T) {
	run := testRun()
	run.AddEntry(entry("a.pdf", 85, true))
	err := ExportXLSX(filepath.Join(t.TempDir(), "missing", "report.xlsx"), run)
	assert.Error(t, err)
}

func TestErrorLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Error")

	l, err := OpenErrorLog(dir, "run-1", "research")
	require.NoError(t, err)
	l.Record(types.Failure{
		Document:    types.DocumentRef{Path: "/in/bad.pdf", Name: "bad.pdf"},
		Stage:       types.StageJudge,
		Reason:      "judging failed after 3 attempts: timeout",
		Destination: filepath.Join(dir, "bad.pdf"),
	})
	require.NoError(t, l.Close())

	// A second run appends.
	l, err = OpenErrorLog(dir, "run-2", "rename")
	require.NoError(t, err)
	l.Record(types.Failure{Document: types.DocumentRef{Name: "other.pdf"}, Stage: types.StageExtract, Reason: "unreadable PDF"})
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, types.ErrorLogFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, "run-1", ev["run_id"])
	assert.Equal(t, "bad.pdf", ev["file"])
	assert.Equal(t, "judge", ev["stage"])
	assert.Equal(t, "judging failed after 3 attempts: timeout", ev["message"])
	assert.Equal(t, "error", ev["level"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ev))
	assert.Equal(t, "run-2", ev["run_id"])
	assert.Equal(t, "rename", ev["mode"])
}
