// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ResearchCriteria is the structured form of the user's research intent.
// It is loaded once per run and shared read-only by every judge call.
type ResearchCriteria struct {
	// Topic is the research topic. Required.
	Topic string `json:"topic" yaml:"topic"`

	// Aim states what the research sets out to do. Required.
	Aim string `json:"aim" yaml:"aim"`

	// Questions are the research questions.
	Questions []string `json:"questions,omitempty" yaml:"questions,omitempty"`

	// Objectives are the research objectives.
	Objectives []string `json:"objectives,omitempty" yaml:"objectives,omitempty"`

	// Rationale explains why the research matters.
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`

	// Source is the file the criteria were loaded from.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}
