// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractionStatus records how much signal the extractor pulled from a file.
type ExtractionStatus string

const (
	ExtractionOK      ExtractionStatus = "ok"
	ExtractionPartial ExtractionStatus = "partial"
	ExtractionFailed  ExtractionStatus = "failed"
)

// Document is one file enumerated from the source folder together with the
// metadata and text extracted from it. The source path is its identity.
type Document struct {
	// Path is the location of the file when it was enumerated.
	Path string `json:"path" yaml:"path"`

	// Name is the base name of Path.
	Name string `json:"name" yaml:"name"`

	// Ext is the lowercase file extension including the dot (".pdf").
	Ext string `json:"ext" yaml:"ext"`

	// Size is the raw byte size of the file.
	Size int64 `json:"size" yaml:"size"`

	// MIMEType is the sniffed content type (e.g. "application/pdf").
	MIMEType string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`

	// Title is the extracted document title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Authors lists author names in document order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the four-digit publication year, empty when unknown.
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// Abstract is the extracted abstract; empty on partial extraction.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Text is the leading body text used when no abstract was found.
	Text string `json:"-" yaml:"-"`

	// Language is the ISO 639-1 code of the detected language.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// PageCount is the number of pages, zero for non-paginated files.
	PageCount int `json:"page_count,omitempty" yaml:"page_count,omitempty"`

	// Extraction is the outcome of metadata and text extraction.
	Extraction ExtractionStatus `json:"extraction" yaml:"extraction"`

	// ExtractionErr explains a failed extraction.
	ExtractionErr string `json:"extraction_error,omitempty" yaml:"extraction_error,omitempty"`
}

// Failed reports whether extraction produced nothing usable.
func (d Document) Failed() bool {
	return d.Extraction == ExtractionFailed
}

// HasSignal reports whether the document carries the minimum content a
// relevance judgement needs: a title or an abstract.
func (d Document) HasSignal() bool {
	return d.Title != "" || d.Abstract != ""
}

// CanonicalReady reports whether there is enough metadata to derive a
// canonical filename.
func (d Document) CanonicalReady() bool {
	if d.Title == "" {
		return false
	}
	for _, a := range d.Authors {
		if a != "" {
			return true
		}
	}
	return false
}

// Ref returns the identity fields of the document used in reports.
func (d Document) Ref() DocumentRef {
	return DocumentRef{
		Path:  d.Path,
		Name:  d.Name,
		Title: d.Title,
		Size:  d.Size,
	}
}

// DocumentRef identifies a document in a RunReport without carrying its text.
type DocumentRef struct {
	Path  string `json:"path" yaml:"path"`
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Size  int64  `json:"size" yaml:"size"`
}
