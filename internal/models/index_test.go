package models

import (
	"slices"
	"testing"
)

func TestOrderedRunIDs(t *testing.T) {
	ix := NewIndex()
	ix.Runs = []RunSummary{
		{RunID: "b", Name: "second", Timestamp: "2026-02-09T14:10:00Z"},
		{RunID: "a", Name: "first", Timestamp: "2026-02-09T14:06:45Z"},
		{RunID: "d", Name: "broken", Timestamp: "not-a-timestamp"},
		{RunID: "", Name: "nameless", Timestamp: "2026-02-09T14:08:00Z"},
		{RunID: "c", Name: "third", Timestamp: "2026-02-09T15:00:00Z"},
	}

	got := ix.OrderedRunIDs()
	want := []string{"a", "b", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("OrderedRunIDs() = %v, want %v", got, want)
	}
}

func TestOrderedRunIDsStableOnTies(t *testing.T) {
	ix := NewIndex()
	ix.Runs = []RunSummary{
		{RunID: "x", Timestamp: "2026-02-09T14:06:45Z"},
		{RunID: "y", Timestamp: "2026-02-09T14:06:45Z"},
		{RunID: "z", Timestamp: "2026-02-09T14:06:45Z"},
	}

	got := ix.OrderedRunIDs()
	want := []string{"x", "y", "z"}
	if !slices.Equal(got, want) {
		t.Errorf("OrderedRunIDs() = %v, want insertion order %v", got, want)
	}
}

func TestTagsForRun(t *testing.T) {
	ix := NewIndex()
	ix.Tags = map[string]string{
		"baseline":  "a",
		"v2":        "b",
		"candidate": "a",
	}

	got := ix.TagsForRun("a")
	want := []string{"baseline", "candidate"}
	if !slices.Equal(got, want) {
		t.Errorf("TagsForRun(a) = %v, want %v", got, want)
	}
	if got := ix.TagsForRun("missing"); len(got) != 0 {
		t.Errorf("TagsForRun(missing) = %v, want empty", got)
	}
}

func TestHasRun(t *testing.T) {
	ix := NewIndex()
	ix.Runs = []RunSummary{{RunID: "a", Timestamp: "2026-02-09T14:06:45Z"}}

	if !ix.HasRun("a") {
		t.Error("HasRun(a) = false, want true")
	}
	if ix.HasRun("b") {
		t.Error("HasRun(b) = true, want false")
	}
}

func TestValidateTagName(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		wantErr bool
	}{
		{"simple word", "baseline", false},
		{"with dots and dashes", "exp-2.1_final", false},
		{"leading digit ok", "2nd-try", false},
		{"single letter", "v", false},
		{"empty", "", true},
		{"all digits", "12", true},
		{"ordinal-like", "#3", true},
		{"inner whitespace", "my tag", true},
		{"leading whitespace", " tag", true},
		{"trailing whitespace", "tag ", true},
		{"leading dash", "-tag", true},
		{"slash", "a/b", true},
		{"unicode", "café", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTagName(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTagName(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
		})
	}
}
