// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rename

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/docintel/pkg/types"
)

// ErrInsufficientMetadata means a document lacks the title or author a
// canonical name needs.
var ErrInsufficientMetadata = errors.New("insufficient metadata for a canonical name")

const (
	maxTitleWords = 8
	maxTitleChars = 120

	// noYear stands in for an unknown publication year.
	noYear = "nd"
)

// nameSuffixes are trailing author tokens that are not a surname.
var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true, "phd": true,
}

// CanonicalName returns Surname_Year_Title_Words.ext for doc, with the
// first author's surname, the year (or "nd"), and at most eight words of
// the title. The result is ASCII-only and safe on every common filesystem.
func CanonicalName(doc types.Document) (string, error) {
	author := ""
	for _, a := range doc.Authors {
		if s := Sanitize(surname(a)); s != "" {
			author = s
			break
		}
	}
	title := titleWords(doc.Title)
	if author == "" || title == "" {
		return "", ErrInsufficientMetadata
	}

	year := Sanitize(doc.Year)
	if year == "" {
		year = noYear
	}
	return author + "_" + year + "_" + title + strings.ToLower(doc.Ext), nil
}

// surname picks the family name out of "Given Family" or "Family, Given".
func surname(author string) string {
	author = strings.TrimSpace(author)
	if i := strings.Index(author, ","); i > 0 {
		return strings.TrimSpace(author[:i])
	}
	fields := strings.Fields(author)
	for len(fields) > 1 && nameSuffixes[strings.ToLower(strings.Trim(fields[len(fields)-1], "."))] {
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func titleWords(title string) string {
	words := strings.Split(Sanitize(title), "_")
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	t := strings.Join(words, "_")
	if len(t) > maxTitleChars {
		t = strings.TrimRight(t[:maxTitleChars], "_-")
	}
	return t
}

// Sanitize folds s to ASCII and keeps only letters, digits, hyphens and
// underscores. Whitespace and other separators become a single underscore.
func Sanitize(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	underscore := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-'):
			b.WriteRune(r)
			underscore = false
		case r == '_' || unicode.IsSpace(r) || r == '/' || r == ':' || r == '.':
			if !underscore && b.Len() > 0 {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_-")
}
