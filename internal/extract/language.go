// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// minLanguageSample is the shortest text worth classifying.
const minLanguageSample = 40

// LanguageDetector classifies text among the languages academic papers in
// the corpus are usually written in.
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector builds a detector. Building loads language models and
// takes a noticeable amount of memory, so callers build one per run.
func NewLanguageDetector() *LanguageDetector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.German,
			lingua.French,
			lingua.Spanish,
			lingua.Portuguese,
			lingua.Italian,
			lingua.Dutch,
		).
		Build()
	return &LanguageDetector{detector: d}
}

// Detect returns the lowercase ISO 639-1 code of text's language, or the
// empty string when the text is too short or ambiguous.
func (l *LanguageDetector) Detect(text string) string {
	if len(strings.TrimSpace(text)) < minLanguageSample {
		return ""
	}
	lang, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
