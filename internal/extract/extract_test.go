// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docintel/pkg/types"
)

// --- fakes ---

type fakeText struct {
	text     string
	err      error
	maxPages int
}

func (f *fakeText) Text(_ context.Context, _ string, maxPages int) (string, error) {
	f.maxPages = maxPages
	return f.text, f.err
}

type fakeMeta struct {
	meta PDFMetadata
	err  error
}

func (f fakeMeta) ReadMetadata(string) (PDFMetadata, error) {
	return f.meta, f.err
}

const paperText = `arXiv:2101.00001v1 [cs.CL] 4 Jan 2021
Adaptive Policy Evaluation for Climate Resilience
Jane Doe, John Smith
Abstract: We evaluate adaptation policies across
twelve coastal regions.
Keywords: climate, policy
1 Introduction
Body text.`

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%fake body\n"), 0o644))
	return path
}

func TestExtract_PDF(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		meta        fakeMeta
		text        *fakeText
		wantStatus  types.ExtractionStatus
		wantTitle   string
		wantAuthors []string
		wantYear    string
		wantErr     string
	}{
		{
			name: "clean metadata",
			meta: fakeMeta{meta: PDFMetadata{
				Title:        "Adaptive Policy Evaluation",
				Author:       "Jane Doe; John Smith",
				CreationDate: "D:20190314120000Z",
				PageCount:    12,
			}},
			text:        &fakeText{text: paperText},
			wantStatus:  types.ExtractionOK,
			wantTitle:   "Adaptive Policy Evaluation",
			wantAuthors: []string{"Jane Doe", "John Smith"},
			wantYear:    "2019",
		},
		{
			name:       "title guessed from text when metadata is a placeholder",
			meta:       fakeMeta{meta: PDFMetadata{Title: "Microsoft Word - draft3.docx"}},
			text:       &fakeText{text: paperText},
			wantStatus: types.ExtractionPartial,
			wantTitle:  "Adaptive Policy Evaluation for Climate Resilience",
			wantYear:   "2021",
		},
		{
			name:       "corrupt file",
			meta:       fakeMeta{err: errors.New("xref table corrupt")},
			text:       &fakeText{},
			wantStatus: types.ExtractionFailed,
			wantErr:    "unreadable PDF: xref table corrupt",
		},
		{
			name:       "scanned image without text layer",
			meta:       fakeMeta{meta: PDFMetadata{PageCount: 4}},
			text:       &fakeText{text: "  \n "},
			wantStatus: types.ExtractionFailed,
			wantErr:    "no extractable text",
		},
		{
			name:       "text source error with metadata title is partial",
			meta:       fakeMeta{meta: PDFMetadata{Title: "Flood Insurance Uptake"}},
			text:       &fakeText{err: errors.New("mupdf crashed")},
			wantStatus: types.ExtractionPartial,
			wantTitle:  "Flood Insurance Uptake",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePDF(t, dir, "paper.pdf")
			e := &Extractor{Text: tt.text, Metadata: tt.meta}

			doc := e.Extract(context.Background(), path)

			assert.Equal(t, path, doc.Path)
			assert.Equal(t, "paper.pdf", doc.Name)
			assert.Equal(t, ".pdf", doc.Ext)
			assert.Equal(t, "application/pdf", doc.MIMEType)
			assert.Equal(t, tt.wantStatus, doc.Extraction)
			assert.Equal(t, tt.wantErr, doc.ExtractionErr)
			if tt.wantStatus == types.ExtractionFailed {
				return
			}
			assert.Equal(t, tt.wantTitle, doc.Title)
			if tt.wantAuthors != nil {
				assert.Equal(t, tt.wantAuthors, doc.Authors)
			}
			assert.Equal(t, tt.wantYear, doc.Year)
			assert.Equal(t, defaultMaxPages, tt.text.maxPages)
		})
	}
}

func TestExtract_MaxPagesPassedToSource(t *testing.T) {
	path := writePDF(t, t.TempDir(), "a.pdf")
	src := &fakeText{text: paperText}
	e := &Extractor{Text: src, Metadata: fakeMeta{}, MaxPages: 7}

	e.Extract(context.Background(), path)
	assert.Equal(t, 7, src.maxPages)
}

func TestExtract_TextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := "Coastal Retreat Policies in Practice\nAuthors: Ana Lima and Wei Chen\nPublished 2022\n\nAbstract\nWe review managed retreat.\nIntroduction\n..."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	e := &Extractor{Text: &fakeText{}, Metadata: fakeMeta{}}
	doc := e.Extract(context.Background(), path)

	assert.Equal(t, types.ExtractionOK, doc.Extraction)
	assert.Equal(t, "Coastal Retreat Policies in Practice", doc.Title)
	assert.Equal(t, []string{"Ana Lima", "Wei Chen"}, doc.Authors)
	assert.Equal(t, "2022", doc.Year)
	assert.Equal(t, "We review managed retreat.", doc.Abstract)
	assert.Equal(t, int64(len(content)), doc.Size)
}

func TestExtract_Failures(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n\n  "), 0o644))

	binary := filepath.Join(dir, "image.pdf")
	require.NoError(t, os.WriteFile(binary, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}, 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing file", filepath.Join(dir, "gone.pdf"), "unreadable file"},
		{"empty text file", empty, "no extractable text"},
		{"png with pdf extension", binary, "unsupported type image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Extractor{Text: &fakeText{}, Metadata: fakeMeta{}}
			doc := e.Extract(context.Background(), tt.path)
			assert.True(t, doc.Failed())
			assert.Contains(t, doc.ExtractionErr, tt.wantErr)
		})
	}
}

func TestExtract_DoesNotModifyFile(t *testing.T) {
	path := writePDF(t, t.TempDir(), "keep.pdf")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	e := &Extractor{Text: &fakeText{text: paperText}, Metadata: fakeMeta{}}
	e.Extract(context.Background(), path)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.pdf"))
	assert.True(t, Supported("B.PDF"))
	assert.True(t, Supported("notes.txt"))
	assert.True(t, Supported("paper.DOCX"))
	assert.False(t, Supported("figure.png"))
	assert.False(t, Supported("README"))
}

func TestFirstPages(t *testing.T) {
	assert.Equal(t, "one\n\ntwo", firstPages("one\ftwo\fthree", 2))
	assert.Equal(t, "one\ftwo", firstPages("one\ftwo", 0))
	assert.Equal(t, "only", firstPages("only", 3))
}

func TestTruncateBytes(t *testing.T) {
	assert.Equal(t, "abc", truncateBytes("abcdef", 3))
	assert.Equal(t, "ab", truncateBytes("abé", 3), "does not split a rune")
	assert.Equal(t, "short", truncateBytes("short", 10))
}
