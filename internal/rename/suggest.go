// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rename

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"github.com/pdiddy/docintel/internal/judge"
	"github.com/pdiddy/docintel/pkg/types"
)

const (
	defaultSuggestChars = 3000
	maxSuggestedChars   = maxTitleChars + 40
)

var suggestPromptTmpl = template.Must(template.New("suggest").Parse(`You are naming files in a library of academic papers. Read the start of the document below and propose a filename in the form FirstAuthorSurname_Year_Short_Title.

Rules:
- Use the first author's surname only.
- Use the four-digit publication year, or "nd" if there is none.
- Use at most eight words of the title, joined by underscores.
- Use ASCII letters, digits, hyphens and underscores only.
- Reply with the filename alone, without an extension, quotes, or explanation.
{{- if .Title}}

Known title: {{.Title}}
{{- end}}

Document:
{{.Text}}
`))

// Suggester asks a language model for a filename when the extracted
// metadata is not enough to build one.
type Suggester struct {
	Backend judge.Backend

	// MaxChars caps the document text in the prompt.
	MaxChars int
}

// Suggest returns a sanitized filename, extension included, for doc.
func (s *Suggester) Suggest(ctx context.Context, doc types.Document) (string, error) {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		text = strings.TrimSpace(doc.Abstract)
	}
	if text == "" {
		return "", fmt.Errorf("%w: no text to suggest a name from", ErrInsufficientMetadata)
	}
	max := s.MaxChars
	if max <= 0 {
		max = defaultSuggestChars
	}
	if r := []rune(text); len(r) > max {
		text = string(r[:max])
	}

	var buf bytes.Buffer
	if err := suggestPromptTmpl.Execute(&buf, struct{ Title, Text string }{doc.Title, text}); err != nil {
		return "", fmt.Errorf("rendering name prompt: %w", err)
	}

	reply, err := s.Backend.Complete(ctx, buf.String())
	if err != nil {
		return "", fmt.Errorf("suggesting name: %w", err)
	}

	name := cleanSuggestion(reply)
	if name == "" {
		return "", fmt.Errorf("suggesting name: unusable reply %q", abbreviate(reply, 80))
	}
	return name + strings.ToLower(doc.Ext), nil
}

// cleanSuggestion takes the first non-empty line of reply, drops quoting
// and any extension, and sanitizes what is left.
func cleanSuggestion(reply string) string {
	var line string
	for _, l := range strings.Split(reply, "\n") {
		l = strings.Trim(strings.TrimSpace(l), "`\"'*")
		if l != "" && !strings.HasPrefix(l, "```") {
			line = l
			break
		}
	}
	if ext := filepath.Ext(line); len(ext) > 1 && len(ext) <= 5 && !strings.ContainsFunc(ext[1:], unicode.IsDigit) {
		line = strings.TrimSuffix(line, ext)
	}

	name := Sanitize(line)
	if len(name) > maxSuggestedChars {
		name = strings.TrimRight(name[:maxSuggestedChars], "_-")
	}
	if !strings.ContainsFunc(name, unicode.IsLetter) {
		return ""
	}
	return name
}

func abbreviate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
