// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdiddy/docintel/pkg/types"
)

// verdictSchemaJSON is the shape a model reply must have.
const verdictSchemaJSON = `{
  "type": "object",
  "required": ["score", "justification"],
  "properties": {
    "score": {"type": "number", "minimum": 0, "maximum": 100},
    "justification": {"type": "string", "minLength": 1},
    "criteria": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["criterion", "score"],
        "properties": {
          "criterion": {"type": "string"},
          "score": {"type": "number", "minimum": 0, "maximum": 100},
          "comment": {"type": "string"}
        }
      }
    }
  }
}`

var verdictSchema = mustCompileSchema("verdict.json", verdictSchemaJSON)

func mustCompileSchema(url, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", url, err))
	}
	s, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", url, err))
	}
	return s
}

// verdictReply is the decoded model reply.
type verdictReply struct {
	Score         float64                `json:"score"`
	Justification string                 `json:"justification"`
	Criteria      []types.CriterionScore `json:"criteria"`
}

// parseVerdict extracts the JSON object from a model reply, validates it
// against the verdict schema, and decodes it. Scores on a 0-1 scale are
// taken at face value; they are valid but low.
func parseVerdict(reply string) (verdictReply, error) {
	body := extractJSON(reply)
	if body == "" {
		return verdictReply{}, fmt.Errorf("%w: no JSON object in reply %q", ErrMalformedResponse, abbreviate(reply, 120))
	}

	var raw any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return verdictReply{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := verdictSchema.Validate(raw); err != nil {
		return verdictReply{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var v verdictReply
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return verdictReply{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	v.Justification = strings.TrimSpace(v.Justification)
	if v.Justification == "" {
		return verdictReply{}, fmt.Errorf("%w: empty justification", ErrMalformedResponse)
	}
	return v, nil
}

// extractJSON strips Markdown code fences and returns the outermost
// {...} span of s, or "" when there is none.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func abbreviate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return truncateChars(s, n) + "..."
}
