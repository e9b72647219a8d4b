// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package judge scores a document's relevance to the research criteria by
// asking a language model for a structured verdict.
//
// The model sits behind the Backend interface. Judge builds the prompt,
// validates and decodes the reply, derives the selection decision from the
// threshold, and retries transient failures with exponential backoff. A
// reply that cannot be parsed is a judging failure, never a low score.
package judge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/docintel/pkg/types"
)

var (
	// ErrJudgingFailed is wrapped by every error Score returns after giving
	// up on a document, except context cancellation.
	ErrJudgingFailed = errors.New("judging failed")

	// ErrMalformedResponse means the model's reply was not a valid verdict.
	ErrMalformedResponse = errors.New("malformed judge response")
)

// Backend is the language-model capability: it sends one prompt and returns
// the model's raw text reply.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Recorder observes each backend call. metrics.Run implements it.
type Recorder interface {
	ObserveJudgeCall(d time.Duration, err error)
}

// backoffBase controls the base duration for exponential backoff when the
// Judge has no explicit Backoff. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Judge produces RelevanceVerdicts. It holds no per-document state and is
// safe for concurrent use.
type Judge struct {
	Backend Backend

	// Threshold is the minimum score for selection.
	Threshold float64

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Backoff is the delay before the first retry; it doubles on each
	// further retry. Zero means backoffBase.
	Backoff time.Duration

	// MaxContentChars caps the document text included in the prompt.
	MaxContentChars int

	// Model is recorded on verdicts.
	Model string

	// Recorder, when set, observes every backend call.
	Recorder Recorder
}

// New returns a Judge over backend configured from cfg. Zero values in cfg
// take the package defaults.
func New(backend Backend, cfg types.AIConfig, threshold float64, maxContentChars int) *Judge {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if maxContentChars <= 0 {
		maxContentChars = types.DefaultMaxContentChars
	}
	return &Judge{
		Backend:         backend,
		Threshold:       threshold,
		MaxRetries:      cfg.MaxRetries,
		Backoff:         cfg.Backoff,
		MaxContentChars: maxContentChars,
		Model:           cfg.Model,
	}
}

// Score judges doc against criteria. On success the verdict's Selected
// field is Score >= Threshold. Errors wrap ErrJudgingFailed, or are the
// context's error when ctx ends first.
func (j *Judge) Score(ctx context.Context, doc types.Document, criteria types.ResearchCriteria) (types.RelevanceVerdict, error) {
	prompt, err := renderPrompt(doc, criteria, j.MaxContentChars)
	if err != nil {
		return types.RelevanceVerdict{}, fmt.Errorf("%w: rendering prompt: %w", ErrJudgingFailed, err)
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= j.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * j.backoff()
			select {
			case <-ctx.Done():
				return types.RelevanceVerdict{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		attempts++
		start := time.Now()
		reply, err := j.Backend.Complete(ctx, prompt)
		var parsed verdictReply
		if err == nil {
			parsed, err = parseVerdict(reply)
		}
		if j.Recorder != nil {
			j.Recorder.ObserveJudgeCall(time.Since(start), err)
		}

		if err == nil {
			return types.RelevanceVerdict{
				Score:         parsed.Score,
				Selected:      parsed.Score >= j.Threshold,
				Threshold:     j.Threshold,
				Justification: parsed.Justification,
				Criteria:      parsed.Criteria,
				Model:         j.Model,
				Attempts:      attempts,
				JudgedAt:      time.Now().UTC(),
			}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.RelevanceVerdict{}, ctxErr
		}

		lastErr = err
		log.Debug().Err(err).Str("file", doc.Name).Int("attempt", attempts).Msg("judge call failed")
		if !retryable(err) {
			break
		}
	}

	return types.RelevanceVerdict{}, fmt.Errorf("%w after %d attempts: %w", ErrJudgingFailed, attempts, lastErr)
}

func (j *Judge) backoff() time.Duration {
	if j.Backoff > 0 {
		return j.Backoff
	}
	return backoffBase
}

// APIError is a non-2xx reply from a model provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again:
// timeouts, throttling, and server errors.
func (e *APIError) Retryable() bool {
	switch {
	case e.StatusCode == 408, e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// retryable reports whether err is worth another attempt. Transport
// errors and malformed replies are; client errors from the API are not.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
