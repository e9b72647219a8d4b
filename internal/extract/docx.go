// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxPartBytes bounds how much of one decompressed package part is read.
const maxPartBytes = 8 << 20

// docxCore holds the Dublin Core fields of docProps/core.xml.
type docxCore struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Created string `xml:"created"`
}

// readDOCX returns the core properties and the paragraph text of a Word
// document, keeping at most limit bytes of text.
func readDOCX(path string, limit int) (docxCore, string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return docxCore{}, "", fmt.Errorf("opening package: %w", err)
	}
	defer zr.Close()

	var core docxCore
	var text string
	found := false
	for _, f := range zr.File {
		switch f.Name {
		case "docProps/core.xml":
			if err := decodePart(f, &core); err != nil {
				return docxCore{}, "", fmt.Errorf("reading core properties: %w", err)
			}
		case "word/document.xml":
			found = true
			rc, err := f.Open()
			if err != nil {
				return docxCore{}, "", err
			}
			text, err = paragraphs(io.LimitReader(rc, maxPartBytes), limit)
			rc.Close()
			if err != nil {
				return docxCore{}, "", fmt.Errorf("reading document body: %w", err)
			}
		}
	}
	if !found {
		return docxCore{}, "", errors.New("no word/document.xml in package")
	}
	core.Title = strings.TrimSpace(core.Title)
	core.Creator = strings.TrimSpace(core.Creator)
	return core, text, nil
}

func decodePart(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(io.LimitReader(rc, maxPartBytes)).Decode(v)
}

// paragraphs walks WordprocessingML and returns the run text, one line per
// paragraph.
func paragraphs(r io.Reader, limit int) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for b.Len() < limit {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return truncateBytes(b.String(), limit), nil
}
