// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package route moves documents to the folder that matches their outcome:
// the chosen (destination) folder, the optional rejected folder, or the
// Error quarantine under the destination.
//
// Moves never overwrite. When the target name is taken, a numeric suffix
// (_1, _2, ...) is inserted before the extension. Moves are serialized so
// that concurrent workers cannot claim the same name.
package route

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/docintel/pkg/types"
)

// ErrRoute is wrapped by every error returned from Route.
var ErrRoute = errors.New("routing failed")

// maxSuffix bounds the collision search.
const maxSuffix = 10000

// Router moves a document to the location for its outcome and returns the
// document's final path. An empty name keeps the document's current name.
type Router interface {
	Route(doc types.Document, outcome types.Outcome, name string) (string, error)
}

// FSRouter routes documents between local folders.
type FSRouter struct {
	// Chosen receives selected and renamed documents.
	Chosen string

	// Rejected receives rejected documents. When empty, rejected
	// documents stay where they are.
	Rejected string

	// Quarantine receives errored documents.
	Quarantine string

	mu sync.Mutex
}

// New returns a router for the folders in cfg. rejected may be empty.
func New(cfg types.FolderConfig, rejected string) *FSRouter {
	return &FSRouter{
		Chosen:     cfg.DestDir,
		Rejected:   rejected,
		Quarantine: cfg.QuarantinePath(),
	}
}

// EnsureLayout creates the destination folders and verifies that the
// destination is writable. A failure here means no document could be
// routed, so callers treat it as fatal.
func (r *FSRouter) EnsureLayout() error {
	for _, dir := range []string{r.Chosen, r.Quarantine, r.Rejected} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	probe, err := os.CreateTemp(r.Chosen, ".docintel-probe-*")
	if err != nil {
		return fmt.Errorf("destination %s is not writable: %w", r.Chosen, err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// Target returns the folder for outcome, or "" when documents with that
// outcome stay in place.
func (r *FSRouter) Target(outcome types.Outcome) string {
	switch outcome {
	case types.OutcomeSelected, types.OutcomeRenamed:
		return r.Chosen
	case types.OutcomeRejected:
		return r.Rejected
	case types.OutcomeErrored:
		return r.Quarantine
	default:
		return ""
	}
}

// Route implements Router.
func (r *FSRouter) Route(doc types.Document, outcome types.Outcome, name string) (string, error) {
	dir := r.Target(outcome)
	if dir == "" {
		return doc.Path, nil
	}
	if name == "" {
		name = filepath.Base(doc.Path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dst, err := freeName(dir, name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRoute, doc.Name, err)
	}
	if err := move(doc.Path, dst); err != nil {
		return "", fmt.Errorf("%w: moving %s to %s: %v", ErrRoute, doc.Name, dir, err)
	}

	log.Debug().Str("from", doc.Path).Str("to", dst).Str("outcome", string(outcome)).Msg("routed")
	return dst, nil
}

// Preview returns the path Route would choose for name under outcome,
// without moving anything.
func (r *FSRouter) Preview(outcome types.Outcome, name string) (string, error) {
	dir := r.Target(outcome)
	if dir == "" {
		return "", nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return freeName(dir, name)
}

// freeName returns dir/name, or dir/stem_N.ext for the smallest N that is
// not taken.
func freeName(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	if !exists(candidate) {
		return candidate, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i < maxSuffix; i++ {
		candidate = filepath.Join(dir, stem+"_"+strconv.Itoa(i)+ext)
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// move renames src to dst, copying across filesystems when needed.
func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
