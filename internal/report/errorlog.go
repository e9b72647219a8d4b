// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/docintel/pkg/types"
)

// ErrorLog appends one JSON line per quarantined document to the
// quarantine folder's errors.log. Entries from earlier runs are kept.
type ErrorLog struct {
	f      *os.File
	logger zerolog.Logger
}

// OpenErrorLog opens (or creates) errors.log inside dir.
func OpenErrorLog(dir, runID, mode string) (*ErrorLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating quarantine folder: %w", err)
	}
	path := filepath.Join(dir, types.ErrorLogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening error log %s: %w", path, err)
	}
	logger := zerolog.New(zerolog.SyncWriter(f)).With().
		Timestamp().
		Str("run_id", runID).
		Str("mode", mode).
		Logger()
	return &ErrorLog{f: f, logger: logger}, nil
}

// Record writes fl to the log.
func (l *ErrorLog) Record(fl types.Failure) {
	l.logger.Error().
		Str("file", fl.Document.Name).
		Str("source", fl.Document.Path).
		Str("stage", string(fl.Stage)).
		Str("destination", fl.Destination).
		Msg(fl.Reason)
}

// Close closes the underlying file.
func (l *ErrorLog) Close() error {
	return l.f.Close()
}
