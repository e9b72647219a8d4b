// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rename

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docintel/pkg/types"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name string
		doc  types.Document
		want string
	}{
		{
			name: "basic",
			doc:  types.Document{Title: "Adaptive Policy Evaluation", Authors: []string{"Jane Doe", "John Smith"}, Year: "2021", Ext: ".pdf"},
			want: "Doe_2021_Adaptive_Policy_Evaluation.pdf",
		},
		{
			name: "family name first",
			doc:  types.Document{Title: "Flood Risk", Authors: []string{"Doe, Jane"}, Year: "2019", Ext: ".pdf"},
			want: "Doe_2019_Flood_Risk.pdf",
		},
		{
			name: "missing year",
			doc:  types.Document{Title: "Flood Risk", Authors: []string{"Jane Doe"}, Ext: ".txt"},
			want: "Doe_nd_Flood_Risk.txt",
		},
		{
			name: "diacritics folded",
			doc:  types.Document{Title: "Économie du climat", Authors: []string{"José Müller"}, Year: "2020", Ext: ".pdf"},
			want: "Muller_2020_Economie_du_climat.pdf",
		},
		{
			name: "punctuation removed",
			doc:  types.Document{Title: "Cities: what works? A review (2nd ed.)", Authors: []string{"A. O'Brien"}, Year: "2018", Ext: ".PDF"},
			want: "OBrien_2018_Cities_what_works_A_review_2nd_ed.pdf",
		},
		{
			name: "title cut to eight words",
			doc:  types.Document{Title: "one two three four five six seven eight nine ten", Authors: []string{"Jane Doe"}, Year: "2022", Ext: ".pdf"},
			want: "Doe_2022_one_two_three_four_five_six_seven_eight.pdf",
		},
		{
			name: "suffix skipped",
			doc:  types.Document{Title: "Water", Authors: []string{"Martin Luther King Jr."}, Year: "1968", Ext: ".pdf"},
			want: "King_1968_Water.pdf",
		},
		{
			name: "first usable author wins",
			doc:  types.Document{Title: "Water", Authors: []string{"", "張", "Jane Doe"}, Year: "2001", Ext: ".pdf"},
			want: "Doe_2001_Water.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalName(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalName_LongTitle(t *testing.T) {
	word := strings.Repeat("a", 40)
	doc := types.Document{Title: strings.Repeat(word+" ", 8), Authors: []string{"Jane Doe"}, Year: "2020", Ext: ".pdf"}

	got, err := CanonicalName(doc)
	require.NoError(t, err)
	title := strings.TrimSuffix(strings.TrimPrefix(got, "Doe_2020_"), ".pdf")
	assert.LessOrEqual(t, len(title), maxTitleChars)
	assert.False(t, strings.HasSuffix(title, "_"))
}

func TestCanonicalName_Insufficient(t *testing.T) {
	tests := []struct {
		name string
		doc  types.Document
	}{
		{"no title", types.Document{Authors: []string{"Jane Doe"}, Year: "2020"}},
		{"no authors", types.Document{Title: "Flood Risk", Year: "2020"}},
		{"title without ASCII", types.Document{Title: "気候変動", Authors: []string{"Jane Doe"}}},
		{"blank author", types.Document{Title: "Flood Risk", Authors: []string{"  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CanonicalName(tt.doc)
			assert.ErrorIs(t, err, ErrInsufficientMetadata)
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello World", "Hello_World"},
		{"  spaced   out  ", "spaced_out"},
		{"a__b", "a_b"},
		{"Ångström", "Angstrom"},
		{"re-use/abuse", "re-use_abuse"},
		{"<>:\"|?*", ""},
		{"_-edge-_", "edge"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), tt.in)
	}
}

func TestCleanSuggestion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Doe_2021_Flood_Risk", "Doe_2021_Flood_Risk"},
		{"`Doe_2021_Flood_Risk.pdf`", "Doe_2021_Flood_Risk"},
		{"```\nDoe_2021_Flood_Risk\n```", "Doe_2021_Flood_Risk"},
		{"\n\n\"Doe 2021 Flood Risk\"\nbecause...", "Doe_2021_Flood_Risk"},
		{"2021", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanSuggestion(tt.in), tt.in)
	}
}
