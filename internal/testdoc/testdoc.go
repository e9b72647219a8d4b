// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package testdoc builds small but well-formed PDF and DOCX files for tests
// that exercise the real extraction libraries.
package testdoc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PDF describes a one-page PDF. Empty Info fields are omitted; when Lines is
// empty the page carries only a filled rectangle, like a scan without a text
// layer.
type PDF struct {
	Title        string
	Author       string
	CreationDate string
	Lines        []string
}

// Bytes renders the PDF with a correct cross-reference table.
func (p PDF) Bytes() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		stream(p.content()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	if info := p.info(); info != "" {
		objects = append(objects, info)
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R", len(objects)+1)
	if len(objects) > 5 {
		b.WriteString(" /Info 6 0 R")
	}
	fmt.Fprintf(&b, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return b.Bytes()
}

func (p PDF) content() string {
	if len(p.Lines) == 0 {
		return "0.5 g 72 72 468 648 re f"
	}
	var b strings.Builder
	b.WriteString("BT /F1 12 Tf 14 TL 72 720 Td")
	for i, line := range p.Lines {
		if i > 0 {
			b.WriteString(" T*")
		}
		fmt.Fprintf(&b, " (%s) Tj", escape(line))
	}
	b.WriteString(" ET")
	return b.String()
}

func (p PDF) info() string {
	var fields []string
	for _, f := range []struct{ key, value string }{
		{"Title", p.Title},
		{"Author", p.Author},
		{"CreationDate", p.CreationDate},
	} {
		if f.value != "" {
			fields = append(fields, fmt.Sprintf("/%s (%s)", f.key, escape(f.value)))
		}
	}
	if len(fields) == 0 {
		return ""
	}
	return "<< " + strings.Join(fields, " ") + " >>"
}

func stream(content string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
}

// escape quotes a PDF literal string.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}

// CorruptPDF has a PDF header and nothing a reader can parse.
var CorruptPDF = []byte("%PDF-1.4\nthis is not a pdf body\n%%EOF\n")

// DOCX describes a Word document with core properties and one paragraph per
// entry in Paragraphs.
type DOCX struct {
	Title      string
	Creator    string
	Created    string
	Paragraphs []string
}

// Bytes renders the DOCX package. word/document.xml is written first so
// content sniffers recognize the archive as a Word document.
func (d DOCX) Bytes() ([]byte, error) {
	var body strings.Builder
	for _, p := range d.Paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, xmlEscape(p))
	}

	parts := []struct{ name, data string }{
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`},
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
			`</Types>`},
		{"docProps/core.xml", `<?xml version="1.0" encoding="UTF-8"?>` +
			`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
			` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">` +
			`<dc:title>` + xmlEscape(d.Title) + `</dc:title>` +
			`<dc:creator>` + xmlEscape(d.Creator) + `</dc:creator>` +
			`<dcterms:created>` + xmlEscape(d.Created) + `</dcterms:created>` +
			`</cp:coreProperties>`},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.data)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// Write stores data as dir/name and returns the path.
func Write(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
