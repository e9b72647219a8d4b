// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/docintel/internal/container"
)

// TextSource returns the embedded text of the first maxPages pages of a PDF.
// An empty string with a nil error means the PDF has no text layer.
type TextSource interface {
	Text(ctx context.Context, path string, maxPages int) (string, error)
}

// MetadataReader reads the document information dictionary of a PDF.
type MetadataReader interface {
	ReadMetadata(path string) (PDFMetadata, error)
}

// PDFMetadata holds the Info-dictionary fields the extractor uses.
type PDFMetadata struct {
	Title        string
	Author       string
	CreationDate string
	PageCount    int
}

// FitzSource reads text with MuPDF through go-fitz.
type FitzSource struct{}

// Text implements TextSource.
func (FitzSource) Text(ctx context.Context, path string, maxPages int) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(i)
		if err != nil {
			log.Warn().Err(err).Str("pdf", path).Int("page", i+1).Msg("failed to extract page text")
			continue
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// imageMarkitdown is the conversion image run by ContainerSource.
const imageMarkitdown = "markitdown:latest"

// ContainerSource converts PDFs by piping them through the markitdown
// container image. It converts the whole document; maxPages is applied to
// the output by keeping only the text before the page break that follows
// the last wanted page.
type ContainerSource struct {
	runtime container.Runtime
}

// NewContainerSource verifies that the markitdown image exists in rt and
// returns a source that uses it.
func NewContainerSource(ctx context.Context, rt container.Runtime) (*ContainerSource, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerSource{runtime: rt}, nil
}

// Text implements TextSource.
func (c *ContainerSource) Text(ctx context.Context, path string, maxPages int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, imageMarkitdown, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", path, err)
	}
	return firstPages(out.String(), maxPages), nil
}

// firstPages keeps the text of the first n form-feed separated pages.
func firstPages(text string, n int) string {
	if n <= 0 {
		return text
	}
	pages := strings.SplitN(text, "\f", n+1)
	if len(pages) > n {
		pages = pages[:n]
	}
	return strings.Join(pages, "\n\n")
}

// PDFCPUReader reads PDF metadata with pdfcpu.
type PDFCPUReader struct{}

// ReadMetadata implements MetadataReader. pdfcpu panics on some malformed
// cross-reference tables; those are reported as errors.
func (PDFCPUReader) ReadMetadata(path string) (meta PDFMetadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	pdf, err := api.ReadContextFile(path)
	if err != nil {
		return PDFMetadata{}, err
	}
	return PDFMetadata{
		Title:        strings.TrimSpace(pdf.Title),
		Author:       strings.TrimSpace(pdf.Author),
		CreationDate: pdf.CreationDate,
		PageCount:    pdf.PageCount,
	}, nil
}
