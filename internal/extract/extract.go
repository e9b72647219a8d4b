// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls identifying metadata (title, authors, year, abstract)
// and leading body text out of the documents in a source folder.
//
// Extraction never fails past its boundary: unreadable, unsupported, and
// image-only files come back as a types.Document whose Extraction status is
// ExtractionFailed and whose ExtractionErr names the reason.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/docintel/pkg/types"
)

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"

	// defaultMaxPages bounds how much of a PDF is read for text.
	defaultMaxPages = 3

	// maxTextBytes bounds the body text kept on a Document.
	maxTextBytes = 16 << 10
)

// supportedExts lists the extensions enumerated from a source folder.
var supportedExts = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
}

// Supported reports whether name has an extension the extractor handles.
func Supported(name string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(name))]
}

// Extractor turns a file path into a types.Document. Text and Metadata are
// the PDF collaborators; Language may be nil to skip language detection.
type Extractor struct {
	Text     TextSource
	Metadata MetadataReader
	Language *LanguageDetector
	MaxPages int
}

// New builds an Extractor for cfg using the given text source. A nil text
// source selects the embedded MuPDF backend.
func New(cfg types.ExtractionConfig, text TextSource) *Extractor {
	if text == nil {
		text = FitzSource{}
	}
	e := &Extractor{
		Text:     text,
		Metadata: PDFCPUReader{},
		MaxPages: cfg.MaxPages,
	}
	if cfg.DetectLanguage {
		e.Language = NewLanguageDetector()
	}
	return e
}

// Extract reads the file at path and returns what could be learned about
// it. It does not modify the file.
func (e *Extractor) Extract(ctx context.Context, path string) types.Document {
	doc := types.Document{
		Path: path,
		Name: filepath.Base(path),
		Ext:  strings.ToLower(filepath.Ext(path)),
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(doc, "unreadable file: %v", err)
	}
	doc.Size = info.Size()

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fail(doc, "unreadable file: %v", err)
	}
	doc.MIMEType = mtype.String()

	switch {
	case isType(mtype, mimePDF):
		doc = e.extractPDF(ctx, doc)
	case isType(mtype, mimeDOCX), doc.Ext == ".docx" && isType(mtype, mimeZip):
		doc = e.extractDOCX(doc)
	case isType(mtype, mimeText):
		doc = e.extractText(doc)
	default:
		return fail(doc, "unsupported type %s", mtype.String())
	}
	if doc.Failed() {
		return doc
	}

	if e.Language != nil {
		doc.Language = e.Language.Detect(languageSample(doc))
	}
	doc.Extraction = status(doc)

	log.Debug().
		Str("file", doc.Name).
		Str("status", string(doc.Extraction)).
		Str("title", doc.Title).
		Int("authors", len(doc.Authors)).
		Bool("abstract", doc.Abstract != "").
		Msg("extracted")
	return doc
}

func (e *Extractor) extractPDF(ctx context.Context, doc types.Document) types.Document {
	meta, err := e.Metadata.ReadMetadata(doc.Path)
	if err != nil {
		return fail(doc, "unreadable PDF: %v", err)
	}
	doc.PageCount = meta.PageCount

	maxPages := e.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	text, err := e.Text.Text(ctx, doc.Path, maxPages)
	if err != nil {
		log.Debug().Err(err).Str("file", doc.Name).Msg("text extraction failed")
		text = ""
	}
	text = strings.TrimSpace(text)

	title := cleanTitle(meta.Title)
	if text == "" && title == "" {
		return fail(doc, "no extractable text")
	}

	doc.Text = truncateBytes(text, maxTextBytes)
	doc.Title = title
	if doc.Title == "" {
		doc.Title = guessTitle(text)
	}
	doc.Authors = splitAuthors(meta.Author)
	if len(doc.Authors) == 0 {
		doc.Authors = labeledAuthors(text)
	}
	doc.Year = pdfDateYear(meta.CreationDate)
	if doc.Year == "" {
		doc.Year = findYear(text)
	}
	doc.Abstract = findAbstract(text)
	return doc
}

func (e *Extractor) extractText(doc types.Document) types.Document {
	data, err := readHead(doc.Path, maxTextBytes)
	if err != nil {
		return fail(doc, "unreadable file: %v", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fail(doc, "no extractable text")
	}

	doc.Text = text
	doc.Title = guessTitle(text)
	doc.Authors = labeledAuthors(text)
	doc.Year = findYear(text)
	doc.Abstract = findAbstract(text)
	return doc
}

func (e *Extractor) extractDOCX(doc types.Document) types.Document {
	core, text, err := readDOCX(doc.Path, maxTextBytes)
	if err != nil {
		return fail(doc, "unreadable DOCX: %v", err)
	}
	text = strings.TrimSpace(text)
	title := cleanTitle(core.Title)
	if text == "" && title == "" {
		return fail(doc, "no extractable text")
	}

	doc.Text = text
	doc.Title = title
	if doc.Title == "" {
		doc.Title = guessTitle(text)
	}
	doc.Authors = splitAuthors(core.Creator)
	if len(doc.Authors) == 0 {
		doc.Authors = labeledAuthors(text)
	}
	doc.Year = findYear(core.Created)
	if doc.Year == "" {
		doc.Year = findYear(text)
	}
	doc.Abstract = findAbstract(text)
	return doc
}

// isType reports whether m or one of its ancestors is the given type, so that
// text/csv and other refinements of text/plain still read as text.
func isType(m *mimetype.MIME, want string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

// status grades a successfully read document.
func status(doc types.Document) types.ExtractionStatus {
	if doc.CanonicalReady() && (doc.Abstract != "" || doc.Text != "") {
		return types.ExtractionOK
	}
	return types.ExtractionPartial
}

func fail(doc types.Document, format string, args ...any) types.Document {
	doc.Extraction = types.ExtractionFailed
	doc.ExtractionErr = fmt.Sprintf(format, args...)
	log.Debug().Str("file", doc.Name).Str("reason", doc.ExtractionErr).Msg("extraction failed")
	return doc
}

func languageSample(doc types.Document) string {
	if doc.Abstract != "" {
		return doc.Abstract
	}
	if doc.Text != "" {
		return truncateBytes(doc.Text, 2000)
	}
	return doc.Title
}

// readHead reads at most n bytes from the start of the file.
func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return []byte(strings.ToValidUTF8(string(buf[:read]), "")), nil
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
