// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/docintel/pkg/types"
)

// scoringPromptTmpl asks the model to rate one document against every
// criterion and reply with a single JSON object.
var scoringPromptTmpl = template.Must(template.New("scoring").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`You are screening academic literature for a research project. Assess how relevant the document below is to the research criteria.

Research criteria:
{{- range .Criteria}}
- {{.Name}}: {{.Text}}
{{- end}}

Document:
Title: {{if .Doc.Title}}{{.Doc.Title}}{{else}}(unknown){{end}}
Authors: {{if .Doc.Authors}}{{join .Doc.Authors ", "}}{{else}}(unknown){{end}}
Year: {{if .Doc.Year}}{{.Doc.Year}}{{else}}(unknown){{end}}
{{- if .Doc.Language}}
Language: {{.Doc.Language}}
{{- end}}
{{- if .Doc.Abstract}}

Abstract:
{{.Doc.Abstract}}
{{- end}}
{{- if .Content}}

Leading text:
{{.Content}}
{{- end}}

Score each criterion from 0 (unrelated) to 100 (directly addresses it), then give an overall relevance score from 0 to 100 and a short justification that cites the evidence in the document. Judge only from the content shown.

Respond with a JSON object and nothing else, in this form:
{"score": 0, "justification": "...", "criteria": [{"criterion": "topic", "score": 0, "comment": "..."}]}
`))

// promptCriterion is one labeled line of the criteria block.
type promptCriterion struct {
	Name string
	Text string
}

// criteriaLines flattens criteria into named lines: topic, aim, each
// question and objective, and the rationale.
func criteriaLines(c types.ResearchCriteria) []promptCriterion {
	lines := []promptCriterion{
		{Name: "topic", Text: c.Topic},
		{Name: "aim", Text: c.Aim},
	}
	for i, q := range c.Questions {
		lines = append(lines, promptCriterion{Name: fmt.Sprintf("question %d", i+1), Text: q})
	}
	for i, o := range c.Objectives {
		lines = append(lines, promptCriterion{Name: fmt.Sprintf("objective %d", i+1), Text: o})
	}
	if c.Rationale != "" {
		lines = append(lines, promptCriterion{Name: "rationale", Text: c.Rationale})
	}
	return lines
}

// renderPrompt executes the scoring template. The document text is cut to
// maxChars characters.
func renderPrompt(doc types.Document, c types.ResearchCriteria, maxChars int) (string, error) {
	var buf bytes.Buffer
	err := scoringPromptTmpl.Execute(&buf, struct {
		Criteria []promptCriterion
		Doc      types.Document
		Content  string
	}{
		Criteria: criteriaLines(c),
		Doc:      doc,
		Content:  truncateChars(strings.TrimSpace(doc.Text), maxChars),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// truncateChars returns the first n characters of s.
func truncateChars(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
