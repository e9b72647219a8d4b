// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package criteria loads the user's research specification into a
// types.ResearchCriteria. Two formats are accepted: Markdown with one
// section per heading (or "Label: value" lines), and YAML with one key per
// section. Topic and aim are required; every other section may be absent.
package criteria

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docintel/pkg/types"
)

// Section names.
const (
	SectionTopic      = "topic"
	SectionAim        = "aim"
	SectionQuestions  = "questions"
	SectionObjectives = "objectives"
	SectionRationale  = "rationale"
)

// ErrMissingSection matches every *MissingSectionError.
var ErrMissingSection = errors.New("missing required section")

// MissingSectionError names the required section a criteria file lacks.
type MissingSectionError struct {
	Section string
	Source  string
}

func (e *MissingSectionError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("criteria: %s %q", ErrMissingSection, e.Section)
	}
	return fmt.Sprintf("criteria %s: %s %q", e.Source, ErrMissingSection, e.Section)
}

// Is reports whether target is ErrMissingSection.
func (e *MissingSectionError) Is(target error) bool {
	return target == ErrMissingSection
}

// aliases maps lowercase labels to section names.
var aliases = map[string]string{
	"topic":               SectionTopic,
	"title":               SectionTopic,
	"research topic":      SectionTopic,
	"aim":                 SectionAim,
	"aims":                SectionAim,
	"goal":                SectionAim,
	"goals":               SectionAim,
	"purpose":             SectionAim,
	"research aim":        SectionAim,
	"question":            SectionQuestions,
	"questions":           SectionQuestions,
	"research question":   SectionQuestions,
	"research questions":  SectionQuestions,
	"objective":           SectionObjectives,
	"objectives":          SectionObjectives,
	"research objectives": SectionObjectives,
	"rationale":           SectionRationale,
	"justification":       SectionRationale,
	"background":          SectionRationale,
	"motivation":          SectionRationale,
}

var (
	headingRe  = regexp.MustCompile(`^#{1,4}\s+(.+?)\s*#*$`)
	labelRe    = regexp.MustCompile(`^\s*(?:\*\*|__)?([A-Za-z][A-Za-z ]{1,30}?)(?:\*\*|__)?\s*:\s*(?:\*\*|__)?\s*(.*)$`)
	listItemRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.+)$`)
	numberedRe = regexp.MustCompile(`^\d+(?:\.\d+)*[.)]?\s+`)
	parenRe    = regexp.MustCompile(`\s*\([^()]*\)$`)
)

// yamlCriteria is the YAML form of a criteria file.
type yamlCriteria struct {
	Topic      string   `yaml:"topic"`
	Aim        string   `yaml:"aim"`
	Questions  []string `yaml:"questions"`
	Objectives []string `yaml:"objectives"`
	Rationale  string   `yaml:"rationale"`
}

// Load reads and parses the criteria file at path. A missing file yields an
// error matching fs.ErrNotExist.
func Load(path string) (types.ResearchCriteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ResearchCriteria{}, fmt.Errorf("reading criteria file: %w", err)
	}
	return Parse(path, data)
}

// Parse parses criteria from data. The format follows name's extension:
// .yaml and .yml are YAML, everything else is Markdown.
func Parse(name string, data []byte) (types.ResearchCriteria, error) {
	var c types.ResearchCriteria
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var y yamlCriteria
		if err := yaml.Unmarshal(data, &y); err != nil {
			return types.ResearchCriteria{}, fmt.Errorf("parsing criteria %s: %w", name, err)
		}
		c = types.ResearchCriteria{
			Topic:      strings.TrimSpace(y.Topic),
			Aim:        strings.TrimSpace(y.Aim),
			Questions:  trimAll(y.Questions),
			Objectives: trimAll(y.Objectives),
			Rationale:  strings.TrimSpace(y.Rationale),
		}
	default:
		c = parseMarkdown(string(data))
	}
	c.Source = name

	if c.Topic == "" {
		return types.ResearchCriteria{}, &MissingSectionError{Section: SectionTopic, Source: name}
	}
	if c.Aim == "" {
		return types.ResearchCriteria{}, &MissingSectionError{Section: SectionAim, Source: name}
	}
	return c, nil
}

// parseMarkdown collects the lines under each recognized heading or label
// and folds them into criteria fields.
func parseMarkdown(text string) types.ResearchCriteria {
	sections := map[string][]string{}
	current := ""

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			current = lookup(m[1])
			if current == "" {
				// "# Topic: climate adaptation"
				if lm := labelRe.FindStringSubmatch(m[1]); lm != nil {
					if current = lookup(lm[1]); current != "" && strings.TrimSpace(lm[2]) != "" {
						sections[current] = append(sections[current], strings.TrimSpace(lm[2]))
					}
				}
			}
			if current == "" {
				log.Debug().Str("heading", m[1]).Msg("criteria: ignoring lines under unrecognized heading")
			}
			continue
		}
		if m := labelRe.FindStringSubmatch(trimmed); m != nil {
			if sec := lookup(m[1]); sec != "" {
				current = sec
				if v := strings.TrimSpace(m[2]); v != "" {
					sections[current] = append(sections[current], v)
				}
				continue
			}
		}
		if current != "" && trimmed != "" {
			sections[current] = append(sections[current], line)
		}
	}

	return types.ResearchCriteria{
		Topic:      joinText(sections[SectionTopic]),
		Aim:        joinText(sections[SectionAim]),
		Questions:  listItems(sections[SectionQuestions]),
		Objectives: listItems(sections[SectionObjectives]),
		Rationale:  joinText(sections[SectionRationale]),
	}
}

// lookup maps a heading or label to a section name, ignoring case,
// emphasis, numbering, a parenthesized suffix such as "(RQs)", and a
// trailing colon.
func lookup(label string) string {
	label = strings.Trim(label, "*_ :")
	label = strings.Trim(parenRe.ReplaceAllString(label, ""), "*_ :")
	label = numberedRe.ReplaceAllString(label, "")
	return aliases[strings.ToLower(strings.Join(strings.Fields(label), " "))]
}

// joinText joins lines into one paragraph, dropping list markers.
func joinText(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if m := listItemRe.FindStringSubmatch(l); m != nil {
			l = m[1]
		}
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " ")
}

// listItems returns list items when the lines contain a Markdown list,
// folding unmarked lines into the preceding item. Without any list marker
// every line is an item.
func listItems(lines []string) []string {
	hasList := false
	for _, l := range lines {
		if listItemRe.MatchString(l) {
			hasList = true
			break
		}
	}

	var items []string
	for _, l := range lines {
		if m := listItemRe.FindStringSubmatch(l); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
			continue
		}
		l = strings.TrimSpace(l)
		if hasList && len(items) > 0 {
			items[len(items)-1] += " " + l
			continue
		}
		items = append(items, l)
	}
	return items
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
