// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the docintel pipeline:
// the Document extracted from a source file, the ResearchCriteria loaded
// from the user's research specification, the RelevanceVerdict produced by
// the judge, the RunReport accumulated over a run, and per-stage configs.
package types

import (
	"path/filepath"
	"time"
)

// Folder names inside the destination.
const (
	// QuarantineDir is the subfolder of the destination holding failed files.
	QuarantineDir = "Error"

	// ErrorLogFile is the JSON-lines error log inside QuarantineDir.
	ErrorLogFile = "errors.log"

	// DefaultReportFile is the report name used when none is configured.
	DefaultReportFile = "relevance_report.md"
)

// Defaults for judge configuration. Every one of them can be overridden by
// flag, config file, or environment.
const (
	DefaultThreshold       = 70.0
	DefaultMaxRetries      = 2
	DefaultBackoff         = time.Second
	DefaultMaxContentChars = 3000
)

// FolderConfig holds the source and destination folders shared by both runs.
type FolderConfig struct {
	// SourceDir is the folder scanned for input files. Files are consumed
	// (moved away) as they reach a terminal state.
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// DestDir receives renamed or selected files. Its Error subfolder
	// receives quarantined files.
	DestDir string `json:"dest_dir" yaml:"dest_dir"`
}

// QuarantinePath returns the Error subfolder of the destination.
func (f FolderConfig) QuarantinePath() string {
	return filepath.Join(f.DestDir, QuarantineDir)
}

// ExtractionBackend selects the PDF text source.
type ExtractionBackend string

const (
	ExtractorFitz       ExtractionBackend = "fitz"
	ExtractorMarkitdown ExtractionBackend = "markitdown"
)

// ExtractionConfig holds settings for the document extractor.
type ExtractionConfig struct {
	// Backend selects the text source for PDFs (default fitz).
	Backend ExtractionBackend `json:"backend" yaml:"backend"`

	// MaxPages bounds how many leading pages are read for text (default 3).
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// DetectLanguage enables language detection on the extracted text.
	DetectLanguage bool `json:"detect_language" yaml:"detect_language"`
}

// AIConfig holds settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: "anthropic" or "gemini".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout bounds one HTTP call to the provider.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retries after the first failed call
	// (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Backoff is the base delay of the exponential backoff between retries.
	Backoff time.Duration `json:"backoff" yaml:"backoff"`
}

// RenameConfig holds settings for the rename run.
type RenameConfig struct {
	FolderConfig `yaml:",inline"`
	Extraction   ExtractionConfig `json:"extraction" yaml:"extraction"`

	// DryRun computes canonical names without moving anything.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Suggest asks the AI backend for a name when metadata is insufficient.
	Suggest bool `json:"suggest" yaml:"suggest"`
}

// ResearchConfig holds settings for the research selection run.
type ResearchConfig struct {
	FolderConfig `yaml:",inline"`
	AI           AIConfig         `json:"ai" yaml:"ai"`
	Extraction   ExtractionConfig `json:"extraction" yaml:"extraction"`

	// CriteriaFile is the research specification (Markdown or YAML).
	CriteriaFile string `json:"criteria_file" yaml:"criteria_file"`

	// Threshold is the minimum score for a document to be selected.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// RejectedDir, when set, receives rejected documents. When empty they
	// stay in the source folder.
	RejectedDir string `json:"rejected_dir,omitempty" yaml:"rejected_dir,omitempty"`

	// ReportFile is the human-readable report path (.md or .yaml).
	ReportFile string `json:"report_file" yaml:"report_file"`

	// XLSXFile, when set, receives a spreadsheet export of the report.
	XLSXFile string `json:"xlsx_file,omitempty" yaml:"xlsx_file,omitempty"`

	// Workers is the number of documents processed concurrently (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// MaxContentChars caps the document text sent to the judge.
	MaxContentChars int `json:"max_content_chars" yaml:"max_content_chars"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	Pretty     bool   `json:"pretty" yaml:"pretty"`
}
