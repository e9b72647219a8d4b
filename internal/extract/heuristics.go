// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	minTitleLen     = 5
	maxTitleLen     = 300
	maxAbstractLen  = 2000
	titleScanLines  = 15
	authorScanLines = 40
)

var (
	yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	// abstractRe matches the line that opens an abstract; the remainder of
	// the line, if any, is the first part of the abstract itself.
	abstractRe = regexp.MustCompile(`(?i)^\s*a\s?b\s?s\s?t\s?r\s?a\s?c\s?t\b[\s.:\-\x{2014}\x{2013}]*(.*)$`)

	// abstractEndRe matches the first line after the abstract.
	abstractEndRe = regexp.MustCompile(`(?i)^\s*(?:keywords?|key\s+words|index\s+terms|(?:1|i)\.?\s+introduction|introduction)\b`)

	authorLabelRe = regexp.MustCompile(`(?i)^\s*(?:authors?|by)\s*[:\-]?\s+(.+)$`)

	authorSplitRe = regexp.MustCompile(`\s*(?:,|&|\band\b)\s*`)

	// bannerRe matches header lines that are not the title: journal and
	// preprint banners, identifiers, and copyright notices.
	bannerRe = regexp.MustCompile(`(?i)(arxiv|doi[:\s]|https?://|www\.|journal of|proceedings|vol\.|volume\s+\d|issn|preprint|copyright|\x{00a9}|received\s|accepted\s|published\s)`)

	// placeholderTitleRe matches Info-dict titles that PDF producers fill in.
	placeholderTitleRe = regexp.MustCompile(`(?i)^(untitled|title|document\d*|microsoft word\b.*|.*\.(pdf|docx?|tex|dvi))$`)
)

// cleanTitle returns the metadata title if it looks like a real title.
func cleanTitle(title string) string {
	title = collapseSpace(title)
	if len(title) < minTitleLen || len(title) > maxTitleLen {
		return ""
	}
	if placeholderTitleRe.MatchString(title) {
		return ""
	}
	return title
}

// guessTitle returns the first plausible title line near the top of text.
func guessTitle(text string) string {
	for i, line := range strings.Split(text, "\n") {
		if i >= titleScanLines {
			break
		}
		line = collapseSpace(line)
		if len(line) < minTitleLen || len(line) > maxTitleLen {
			continue
		}
		if bannerRe.MatchString(line) || abstractRe.MatchString(line) || !hasLetters(line, 3) {
			continue
		}
		return line
	}
	return ""
}

// splitAuthors splits an author string into names. A semicolon-separated
// list keeps "Surname, Given" pairs intact; otherwise commas, ampersands,
// and the word "and" all separate names.
func splitAuthors(s string) []string {
	s = collapseSpace(s)
	if s == "" {
		return nil
	}

	var parts []string
	if strings.Contains(s, ";") {
		parts = strings.Split(s, ";")
	} else {
		parts = authorSplitRe.Split(s, -1)
	}

	var authors []string
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), ".,")
		if !hasLetters(p, 2) {
			continue
		}
		authors = append(authors, p)
	}
	return authors
}

// labeledAuthors finds an "Authors:" or "By" line near the top of text.
func labeledAuthors(text string) []string {
	for i, line := range strings.Split(text, "\n") {
		if i >= authorScanLines {
			break
		}
		if m := authorLabelRe.FindStringSubmatch(line); m != nil {
			return splitAuthors(m[1])
		}
	}
	return nil
}

// findYear returns the first plausible four-digit year in s.
func findYear(s string) string {
	return yearRe.FindString(s)
}

// pdfDateYear returns the year of a PDF date string ("D:YYYYMMDD...").
func pdfDateYear(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(s) < 4 {
		return ""
	}
	return findYear(s[:4])
}

// findAbstract returns the text between an abstract marker and the next
// section heading, capped at maxAbstractLen bytes.
func findAbstract(text string) string {
	lines := strings.Split(text, "\n")
	start := -1
	var b strings.Builder
	for i, line := range lines {
		if m := abstractRe.FindStringSubmatch(line); m != nil {
			start = i
			b.WriteString(m[1])
			break
		}
	}
	if start < 0 {
		return ""
	}

	for _, line := range lines[start+1:] {
		if abstractEndRe.MatchString(line) {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
		if b.Len() >= maxAbstractLen {
			break
		}
	}
	return truncateBytes(collapseSpace(b.String()), maxAbstractLen)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hasLetters(s string, n int) bool {
	count := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			count++
			if count >= n {
				return true
			}
		}
	}
	return false
}
