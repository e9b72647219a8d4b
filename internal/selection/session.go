// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selection

import (
	"os"
	"sync"
	"time"

	"github.com/pdiddy/docintel/pkg/types"
)

// stamp identifies one version of a file.
type stamp struct {
	size int64
	mod  time.Time
}

func statStamp(path string) (stamp, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}, false
	}
	return stamp{size: info.Size(), mod: info.ModTime()}, true
}

// session carries verdicts across the runs of one watch session. Rejected
// documents left in the source folder are not judged again while unchanged,
// and every report of the session lists all documents judged so far.
type session struct {
	mu      sync.Mutex
	order   []string
	entries map[string]types.ReportEntry
	stamps  map[string]stamp
}

func newSession() *session {
	return &session{
		entries: map[string]types.ReportEntry{},
		stamps:  map[string]stamp{},
	}
}

// unchanged reports whether path was judged earlier in the session and left
// in place, and has not been modified since.
func (s *session) unchanged(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.stamps[path]
	if !ok {
		return false
	}
	cur, ok := statStamp(path)
	return ok && cur == prev
}

// carried returns the remembered entries, in the order they were first
// judged, except those for the paths about to be judged again.
func (s *session) carried(rejudge map[string]bool) []types.ReportEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ReportEntry
	for _, p := range s.order {
		if e, ok := s.entries[p]; ok && !rejudge[p] {
			out = append(out, e)
		}
	}
	return out
}

// remember stores the verdict for the document judged at source path.
func (s *session) remember(source string, e types.ReportEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[source]; !ok {
		s.order = append(s.order, source)
	}
	s.entries[source] = e
	delete(s.stamps, source)
	if e.Destination == source {
		if st, ok := statStamp(source); ok {
			s.stamps[source] = st
		}
	}
}

// forget drops what is known about source, e.g. after it was quarantined.
func (s *session) forget(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, source)
	delete(s.stamps, source)
}
