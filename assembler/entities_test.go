package assembler

import (
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sol/model"
)

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		wantNames     []string
		wantDates     []string
		wantLocations []string
		wantKeywords  []string
		notKeywords   []string
	}{
		{
			name:         "meeting with sarah next week",
			query:        "Can you schedule a meeting with Sarah next week?",
			wantNames:    []string{"Sarah"},
			wantDates:    []string{"next week"},
			wantKeywords: []string{"schedule", "meeting", "sarah", "week"},
			notKeywords:  []string{"can", "you", "with"},
		},
		{
			name:      "first token is never a name",
			query:     "Sarah wants an update",
			wantNames: []string{},
		},
		{
			name:      "token after sentence end is not a name",
			query:     "thanks. Bob said hi to Alice",
			wantNames: []string{"Alice"},
		},
		{
			name:      "common capitalized words skipped",
			query:     "tell me what The team said on Monday",
			wantNames: []string{},
			wantDates: []string{"monday"},
		},
		{
			name:          "locations after prepositions",
			query:         "lunch with Priya at Blue Bottle in Oakland tomorrow",
			wantNames:     []string{"Priya", "Blue", "Bottle", "Oakland"},
			wantDates:     []string{"tomorrow", "lunch"},
			wantLocations: []string{"Blue", "Oakland"},
		},
		{
			name:      "possessive stripped",
			query:     "what is Maria's phone number",
			wantNames: []string{"Maria"},
		},
		{
			name:      "single letter capitals ignored",
			query:     "plan A or plan B",
			wantNames: []string{},
		},
		{
			name:      "day parts",
			query:     "free tomorrow morning or friday afternoon?",
			wantDates: []string{"tomorrow", "friday", "morning", "afternoon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.query)

			if tt.wantNames != nil {
				if diff := cmp.Diff(tt.wantNames, got.Names); diff != "" {
					t.Errorf("names mismatch (-want +got):\n%s", diff)
				}
			}
			for _, d := range tt.wantDates {
				if !slices.Contains(got.Dates, d) {
					t.Errorf("dates %v missing %q", got.Dates, d)
				}
			}
			if tt.wantLocations != nil {
				if diff := cmp.Diff(tt.wantLocations, got.Locations); diff != "" {
					t.Errorf("locations mismatch (-want +got):\n%s", diff)
				}
			}
			for _, k := range tt.wantKeywords {
				if !slices.Contains(got.Keywords, k) {
					t.Errorf("keywords %v missing %q", got.Keywords, k)
				}
			}
			for _, k := range tt.notKeywords {
				if slices.Contains(got.Keywords, k) {
					t.Errorf("keywords %v should not contain %q", got.Keywords, k)
				}
			}
		})
	}
}

func TestExtractEntitiesDeduplicatesAndIsIdempotent(t *testing.T) {
	queries := []string{
		"Ask Sarah and sarah and SARAH about Sarah's plan today, today",
		"Meet Tom at Cafe near Cafe on friday. Friday works for Tom",
		"",
		"   ",
		"I I I The The",
	}

	for _, q := range queries {
		first := ExtractEntities(q)
		second := ExtractEntities(q)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("ExtractEntities(%q) not deterministic:\n%s", q, diff)
		}

		for field, set := range map[string][]string{
			"names":     first.Names,
			"dates":     first.Dates,
			"locations": first.Locations,
			"keywords":  first.Keywords,
		} {
			seen := map[string]bool{}
			for _, v := range set {
				key := strings.ToLower(v)
				if seen[key] {
					t.Errorf("ExtractEntities(%q).%s has duplicate %q", q, field, v)
				}
				seen[key] = true
			}
		}
	}
}

func TestExtractEntitiesEmptySetsNotNil(t *testing.T) {
	got := ExtractEntities("")
	want := model.ExtractedEntities{
		Keywords:  []string{},
		Names:     []string{},
		Dates:     []string{},
		Locations: []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected entities (-want +got):\n%s", diff)
	}
}
