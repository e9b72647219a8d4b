// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rename

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docintel/internal/extract"
	"github.com/pdiddy/docintel/internal/testdoc"
	"github.com/pdiddy/docintel/pkg/types"
)

// --- fakes ---

// fakeExtractor returns canned documents keyed by file name. Unknown files
// fail extraction.
type fakeExtractor struct {
	mu   sync.Mutex
	docs map[string]types.Document
}

func (f *fakeExtractor) Extract(_ context.Context, path string) types.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := filepath.Base(path)
	doc, ok := f.docs[name]
	if !ok {
		doc = types.Document{Extraction: types.ExtractionFailed, ExtractionErr: "unreadable PDF: malformed xref"}
	}
	doc.Path = path
	doc.Name = name
	doc.Ext = strings.ToLower(filepath.Ext(name))
	if doc.Extraction == "" {
		doc.Extraction = types.ExtractionOK
	}
	return doc
}

func (f *fakeExtractor) set(name string, doc types.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[name] = doc
}

type failureLog struct{ failures []types.Failure }

func (l *failureLog) Record(f types.Failure) { l.failures = append(l.failures, f) }

type fakeBackend struct {
	reply string
	err   error
	calls int
}

func (b *fakeBackend) Complete(context.Context, string) (string, error) {
	b.calls++
	return b.reply, b.err
}

// --- helpers ---

func setup(t *testing.T, files ...string) (types.RenameConfig, string) {
	t.Helper()
	root := t.TempDir()
	cfg := types.RenameConfig{FolderConfig: types.FolderConfig{
		SourceDir: filepath.Join(root, "in"),
		DestDir:   filepath.Join(root, "out"),
	}}
	require.NoError(t, os.Mkdir(cfg.SourceDir, 0o755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.SourceDir, f), []byte("%PDF-1.4 "+f), 0o644))
	}
	return cfg, root
}

func names(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

var cleanDoc = types.Document{
	Title:   "Adaptive Policy Evaluation",
	Authors: []string{"Jane Doe"},
	Year:    "2021",
}

// --- tests ---

func TestRun_ThreeDocumentScenario(t *testing.T) {
	cfg, _ := setup(t, "clean.pdf", "corrupt.pdf", "scanned.pdf")
	ex := &fakeExtractor{docs: map[string]types.Document{
		"clean.pdf":   cleanDoc,
		"scanned.pdf": {Extraction: types.ExtractionFailed, ExtractionErr: "no extractable text"},
	}}
	flog := &failureLog{}

	r := New(cfg, ex)
	r.Errors = flog
	var out bytes.Buffer
	sum, err := r.Run(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, BatchSummary{Renamed: 1, Quarantined: 2}, sum)
	assert.True(t, sum.HasFailures())
	assert.Empty(t, names(t, cfg.SourceDir))
	assert.Equal(t, []string{"Doe_2021_Adaptive_Policy_Evaluation.pdf"}, names(t, cfg.DestDir))
	assert.Equal(t, []string{"corrupt.pdf", "scanned.pdf"}, names(t, cfg.QuarantinePath()))

	// Quarantined files are unmodified.
	data, err := os.ReadFile(filepath.Join(cfg.QuarantinePath(), "corrupt.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 corrupt.pdf", string(data))

	require.Len(t, flog.failures, 2)
	assert.Equal(t, types.StageExtract, flog.failures[0].Stage)
	assert.Equal(t, "unreadable PDF: malformed xref", flog.failures[0].Reason)
	assert.Equal(t, filepath.Join(cfg.QuarantinePath(), "corrupt.pdf"), flog.failures[0].Destination)

	assert.Contains(t, out.String(), "renamed: clean.pdf -> Doe_2021_Adaptive_Policy_Evaluation.pdf")
	assert.Contains(t, out.String(), "failed:  scanned.pdf (no extractable text)")
	assert.Contains(t, out.String(), "Batch summary: 1 renamed, 2 quarantined, 0 skipped, 0 failed (total: 3)")
}

func TestRun_ThreeDocumentScenarioWithRealExtractor(t *testing.T) {
	cfg, _ := setup(t)
	clean := testdoc.PDF{
		Title:        "Adaptive Policy Evaluation",
		Author:       "Jane Doe",
		CreationDate: "D:20210301000000Z",
		Lines:        []string{"Adaptive Policy Evaluation", "Jane Doe", "Abstract: We evaluate adaptation policies."},
	}
	files := map[string][]byte{
		"clean.pdf":   clean.Bytes(),
		"corrupt.pdf": testdoc.CorruptPDF,
		"scanned.pdf": testdoc.PDF{}.Bytes(),
	}
	for name, data := range files {
		_, err := testdoc.Write(cfg.SourceDir, name, data)
		require.NoError(t, err)
	}
	flog := &failureLog{}

	r := New(cfg, extract.New(types.ExtractionConfig{}, nil))
	r.Errors = flog
	var out bytes.Buffer
	sum, err := r.Run(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, BatchSummary{Renamed: 1, Quarantined: 2}, sum)
	assert.Empty(t, names(t, cfg.SourceDir))
	assert.Equal(t, []string{"Doe_2021_Adaptive_Policy_Evaluation.pdf"}, names(t, cfg.DestDir))
	assert.Equal(t, []string{"corrupt.pdf", "scanned.pdf"}, names(t, cfg.QuarantinePath()))

	for name, data := range map[string][]byte{"corrupt.pdf": files["corrupt.pdf"], "scanned.pdf": files["scanned.pdf"]} {
		got, err := os.ReadFile(filepath.Join(cfg.QuarantinePath(), name))
		require.NoError(t, err)
		assert.Equal(t, data, got, name)
	}

	require.Len(t, flog.failures, 2)
	reasons := map[string]string{}
	for _, f := range flog.failures {
		reasons[f.Document.Name] = f.Reason
	}
	assert.Contains(t, reasons["corrupt.pdf"], "unreadable PDF")
	assert.Equal(t, "no extractable text", reasons["scanned.pdf"])
}

func TestRun_Idempotent(t *testing.T) {
	cfg, _ := setup(t, "clean.pdf", "corrupt.pdf")
	ex := &fakeExtractor{docs: map[string]types.Document{"clean.pdf": cleanDoc}}

	_, err := New(cfg, ex).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	dest := names(t, cfg.DestDir)
	quarantine := names(t, cfg.QuarantinePath())

	sum, err := New(cfg, ex).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Total())
	assert.Equal(t, dest, names(t, cfg.DestDir))
	assert.Equal(t, quarantine, names(t, cfg.QuarantinePath()))
}

func TestRun_RetryAfterFix(t *testing.T) {
	cfg, _ := setup(t, "corrupt.pdf")
	ex := &fakeExtractor{docs: map[string]types.Document{}}

	sum, err := New(cfg, ex).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, 1, sum.Quarantined)

	// The user repairs the file and moves it back to the source folder.
	require.NoError(t, os.Rename(filepath.Join(cfg.QuarantinePath(), "corrupt.pdf"), filepath.Join(cfg.SourceDir, "corrupt.pdf")))
	ex.set("corrupt.pdf", cleanDoc)

	sum, err = New(cfg, ex).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Renamed: 1}, sum)
	assert.Empty(t, names(t, cfg.QuarantinePath()))
	assert.Equal(t, []string{"Doe_2021_Adaptive_Policy_Evaluation.pdf"}, names(t, cfg.DestDir))
}

func TestRun_Collisions(t *testing.T) {
	cfg, _ := setup(t, "a.pdf", "b.pdf", "c.pdf")
	ex := &fakeExtractor{docs: map[string]types.Document{"a.pdf": cleanDoc, "b.pdf": cleanDoc, "c.pdf": cleanDoc}}

	sum, err := New(cfg, ex).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Renamed)
	assert.Equal(t, []string{
		"Doe_2021_Adaptive_Policy_Evaluation.pdf",
		"Doe_2021_Adaptive_Policy_Evaluation_1.pdf",
		"Doe_2021_Adaptive_Policy_Evaluation_2.pdf",
	}, names(t, cfg.DestDir))
}

func TestRun_QuarantineCollision(t *testing.T) {
	cfg, _ := setup(t, "bad.pdf")
	require.NoError(t, os.MkdirAll(cfg.QuarantinePath(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.QuarantinePath(), "bad.pdf"), []byte("older"), 0o644))

	sum, err := New(cfg, &fakeExtractor{docs: map[string]types.Document{}}).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Quarantined)
	assert.Equal(t, []string{"bad.pdf", "bad_1.pdf"}, names(t, cfg.QuarantinePath()))
}

func TestRun_InsufficientMetadata(t *testing.T) {
	cfg, _ := setup(t, "untitled.pdf")
	ex := &fakeExtractor{docs: map[string]types.Document{
		"untitled.pdf": {Authors: []string{"Jane Doe"}, Text: "some body text", Extraction: types.ExtractionPartial},
	}}
	flog := &failureLog{}
	r := New(cfg, ex)
	r.Errors = flog

	sum, err := r.Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Quarantined)
	require.Len(t, flog.failures, 1)
	assert.Equal(t, types.StageRename, flog.failures[0].Stage)
	assert.Contains(t, flog.failures[0].Reason, "insufficient metadata")
}

func TestRun_Suggest(t *testing.T) {
	tests := []struct {
		name        string
		backend     *fakeBackend
		wantDest    []string
		wantQuarant []string
	}{
		{
			name:     "usable suggestion",
			backend:  &fakeBackend{reply: "Doe_2020_Scanned_Report.pdf"},
			wantDest: []string{"Doe_2020_Scanned_Report.pdf"},
		},
		{
			name:        "backend error quarantines",
			backend:     &fakeBackend{err: errors.New("503 overloaded")},
			wantQuarant: []string{"untitled.pdf"},
		},
		{
			name:        "unusable reply quarantines",
			backend:     &fakeBackend{reply: "1999"},
			wantQuarant: []string{"untitled.pdf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := setup(t, "untitled.pdf")
			ex := &fakeExtractor{docs: map[string]types.Document{
				"untitled.pdf": {Text: "Scanned report by J. Doe, 2020.", Extraction: types.ExtractionPartial},
			}}
			r := New(cfg, ex)
			r.Suggester = &Suggester{Backend: tt.backend}

			_, err := r.Run(context.Background(), &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, 1, tt.backend.calls)
			assert.Equal(t, tt.wantDest, names(t, cfg.DestDir))
			assert.Equal(t, tt.wantQuarant, names(t, cfg.QuarantinePath()))
		})
	}
}

func TestRun_SuggestNotCalledWhenMetadataSuffices(t *testing.T) {
	cfg, _ := setup(t, "clean.pdf")
	b := &fakeBackend{reply: "Other_1900_Name"}
	r := New(cfg, &fakeExtractor{docs: map[string]types.Document{"clean.pdf": cleanDoc}})
	r.Suggester = &Suggester{Backend: b}

	_, err := r.Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Zero(t, b.calls)
}

func TestRun_DryRun(t *testing.T) {
	cfg, root := setup(t, "clean.pdf", "corrupt.pdf")
	cfg.DryRun = true
	ex := &fakeExtractor{docs: map[string]types.Document{"clean.pdf": cleanDoc}}

	var out bytes.Buffer
	sum, err := New(cfg, ex).Run(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, BatchSummary{Skipped: 2}, sum)
	assert.Equal(t, []string{"clean.pdf", "corrupt.pdf"}, names(t, cfg.SourceDir))
	_, err = os.Stat(filepath.Join(root, "out"))
	assert.ErrorIs(t, err, os.ErrNotExist, "dry run creates nothing")
	assert.Contains(t, out.String(), "would rename: clean.pdf -> Doe_2021_Adaptive_Policy_Evaluation.pdf")
	assert.Contains(t, out.String(), "would quarantine: corrupt.pdf")
}

func TestRun_SourceMissing(t *testing.T) {
	cfg := types.RenameConfig{FolderConfig: types.FolderConfig{
		SourceDir: filepath.Join(t.TempDir(), "missing"),
		DestDir:   t.TempDir(),
	}}
	_, err := New(cfg, &fakeExtractor{}).Run(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, extract.ErrSourceMissing)
}

func TestRun_DestinationUnusable(t *testing.T) {
	cfg, root := setup(t, "clean.pdf")
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.DestDir = filepath.Join(blocker, "out")

	_, err := New(cfg, &fakeExtractor{docs: map[string]types.Document{"clean.pdf": cleanDoc}}).Run(context.Background(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, []string{"clean.pdf"}, names(t, cfg.SourceDir))
}

func TestRun_Cancelled(t *testing.T) {
	cfg, _ := setup(t, "a.pdf", "b.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := New(cfg, &fakeExtractor{docs: map[string]types.Document{"a.pdf": cleanDoc}}).Run(ctx, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Total())
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, names(t, cfg.SourceDir))
}
