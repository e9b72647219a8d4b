// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/docintel/pkg/types"
)

const (
	verdictSheet = "Verdicts"
	failureSheet = "Failures"
)

// ExportXLSX writes run as a spreadsheet with one row per judged document
// on the Verdicts sheet and one row per quarantined document on the
// Failures sheet.
func ExportXLSX(path string, run *types.RunReport) error {
	entries, failures := run.Snapshot()

	f := excelize.NewFile()
	defer f.Close()

	// The default workbook starts with Sheet1; rename it rather than leave
	// an empty sheet behind.
	if err := f.SetSheetName(f.GetSheetName(0), verdictSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if _, err := f.NewSheet(failureSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	idx, err := f.GetSheetIndex(verdictSheet)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	f.SetActiveSheet(idx)

	if err := writeRow(f, verdictSheet, 1, "File", "Title", "Score", "Threshold", "Decision", "Justification", "Location", "Model", "Attempts", "Judged At"); err != nil {
		return err
	}
	for i, e := range entries {
		v := e.Verdict
		err := writeRow(f, verdictSheet, i+2,
			e.Document.Name,
			e.Document.Title,
			v.Score,
			v.Threshold,
			string(e.Outcome),
			v.Justification,
			e.Destination,
			v.Model,
			v.Attempts,
			v.JudgedAt.Format("2006-01-02 15:04:05"),
		)
		if err != nil {
			return err
		}
	}

	if err := writeRow(f, failureSheet, 1, "File", "Stage", "Reason", "Location"); err != nil {
		return err
	}
	for i, fl := range failures {
		if err := writeRow(f, failureSheet, i+2, fl.Document.Name, string(fl.Stage), fl.Reason, fl.Destination); err != nil {
			return err
		}
	}

	for _, w := range []struct {
		sheet, from, to string
		width           float64
	}{
		{verdictSheet, "A", "B", 40},
		{verdictSheet, "C", "E", 12},
		{verdictSheet, "F", "F", 80},
		{verdictSheet, "G", "G", 60},
		{failureSheet, "A", "A", 40},
		{failureSheet, "C", "D", 60},
	} {
		if err := f.SetColWidth(w.sheet, w.from, w.to, w.width); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, v := range values {
		if s, ok := v.(string); ok {
			v = truncate(s, 32000)
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("xlsx %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// truncate keeps s under the spreadsheet cell limit.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
