// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch re-runs a batch whenever new documents land in the source
// folder. Bursts of file events (a large copy, many files dropped at once)
// are coalesced into a single run.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/docintel/internal/extract"
)

// DefaultDebounce is the quiet period after the last event before a run.
const DefaultDebounce = 2 * time.Second

// Batch is one pass over the source folder.
type Batch func(ctx context.Context) error

// Config holds watch settings.
type Config struct {
	// Dir is the watched source folder.
	Dir string

	// Debounce is the quiet period before a triggered run.
	Debounce time.Duration
}

// Run runs batch once, then again each time supported files are created
// in or written to cfg.Dir. It returns when ctx ends (with a nil error) or
// when a batch fails for a reason other than cancellation. Events that
// arrive while a batch runs schedule one more run after it.
func Run(ctx context.Context, cfg Config, batch Batch) error {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(cfg.Dir); err != nil {
		return fmt.Errorf("%w: watching %s: %v", extract.ErrSourceMissing, cfg.Dir, err)
	}

	if err := runBatch(ctx, batch); err != nil {
		return err
	}
	log.Info().Str("dir", cfg.Dir).Dur("debounce", debounce).Msg("watching for new documents")

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("source changed")
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")

		case <-timer.C:
			if err := runBatch(ctx, batch); err != nil {
				return err
			}
		}
	}
}

// relevant reports whether ev adds or changes a document worth a run.
// Files leaving the folder (our own moves among them) are ignored.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	return extract.Supported(ev.Name)
}

func runBatch(ctx context.Context, batch Batch) error {
	err := batch(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
