package refs

import (
	"errors"
	"strings"
	"testing"

	"github.com/salazaj/provenance-recorder/internal/models"
	"github.com/salazaj/provenance-recorder/internal/store"
)

const (
	runFirst  = "2026-02-09T13-00-00Z_aaa111"
	runSecond = "2026-02-09T14-06-45Z_594e12"
	runThird  = "2026-02-11T16-08-36Z_27971d"
)

func testIndex() *models.Index {
	ix := models.NewIndex()
	ix.Runs = []models.RunSummary{
		{RunID: runFirst, Name: "first", Timestamp: "2026-02-09T13:00:00Z"},
		{RunID: runSecond, Name: "second", Timestamp: "2026-02-09T14:06:45Z"},
		{RunID: runThird, Name: "third", Timestamp: "2026-02-11T16:08:36Z"},
	}
	ix.Tags["baseline"] = runFirst
	return ix
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr string
	}{
		{name: "ordinal hash oldest", ref: "#1", want: runFirst},
		{name: "ordinal bare", ref: "2", want: runSecond},
		{name: "ordinal newest", ref: "#3", want: runThird},
		{name: "ordinal with spaces", ref: " #2 ", want: runSecond},
		{name: "ordinal too large", ref: "#4", wantErr: "run index 4 out of range (1..3)"},
		{name: "ordinal zero", ref: "0", wantErr: "run index 0 out of range (1..3)"},
		{name: "tag", ref: "baseline", want: runFirst},
		{name: "run id in index", ref: runSecond, want: runSecond},
		{name: "run id shape not in index", ref: "2027-01-01T00-00-00Z_ffffff", want: "2027-01-01T00-00-00Z_ffffff"},
		{name: "unrecognized", ref: "no/such/thing", wantErr: `cannot resolve "no/such/thing"`},
		{name: "empty", ref: "", wantErr: "cannot resolve"},
	}

	ix := testIndex()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(ix, tt.ref)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Resolve(%q) = %q, want error containing %q", tt.ref, got, tt.wantErr)
				}
				if !errors.Is(err, store.ErrNotFound) {
					t.Errorf("Resolve(%q) error = %v, want ErrNotFound", tt.ref, err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Resolve(%q) error = %q, want substring %q", tt.ref, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

// A tag that happens to look like a run id must resolve as the tag; the
// resolver never falls back to the literal reading.
func TestResolveTagWinsOverRunID(t *testing.T) {
	ix := testIndex()
	ix.Tags[runSecond] = runFirst

	got, err := Resolve(ix, runSecond)
	if err != nil {
		t.Fatal(err)
	}
	if got != runFirst {
		t.Errorf("Resolve(%q) = %q, want tag target %q", runSecond, got, runFirst)
	}
}

// A legacy id recorded in the index resolves verbatim even though it does
// not match the current id shape.
func TestResolveVerbatimIndexEntry(t *testing.T) {
	ix := testIndex()
	ix.Runs = append(ix.Runs, models.RunSummary{RunID: "legacy-run", Timestamp: "2026-02-12T00:00:00Z"})

	got, err := Resolve(ix, "legacy-run")
	if err != nil {
		t.Fatal(err)
	}
	if got != "legacy-run" {
		t.Errorf("Resolve(legacy-run) = %q, want legacy-run", got)
	}
}

func TestResolveRunID(t *testing.T) {
	ix := testIndex()

	got, err := ResolveRunID(ix, "#2")
	if err != nil {
		t.Fatal(err)
	}
	if got != runSecond {
		t.Errorf("ResolveRunID(#2) = %q, want %q", got, runSecond)
	}

	got, err = ResolveRunID(ix, runThird)
	if err != nil {
		t.Fatal(err)
	}
	if got != runThird {
		t.Errorf("ResolveRunID(%q) = %q, want it back verbatim", runThird, got)
	}
}

// A known tag in a run-id-expected context gets the tag hint, never a
// generic not-found.
func TestResolveRunIDRejectsTag(t *testing.T) {
	ix := testIndex()

	_, err := ResolveRunID(ix, "baseline")
	if err == nil {
		t.Fatal("ResolveRunID(baseline) should fail")
	}
	if !errors.Is(err, store.ErrAmbiguousRef) {
		t.Errorf("error = %v, want ErrAmbiguousRef", err)
	}
	if errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, must not be ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), `"baseline" is a tag`) {
		t.Errorf("error = %q, want the is-a-tag message", err)
	}
}

func TestResolveRunIDUnrecognized(t *testing.T) {
	ix := testIndex()

	_, err := ResolveRunID(ix, "mystery")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ResolveRunID(mystery) = %v, want ErrNotFound", err)
	}
}

func TestClassify(t *testing.T) {
	ix := testIndex()
	tests := []struct {
		ref  string
		want Kind
	}{
		{"#2", KindOrdinal},
		{"7", KindOrdinal},
		{"baseline", KindTag},
		{runThird, KindRunID},
		{"2027-01-01T00-00-00Z_ffffff", KindRunID},
		{"mystery", KindUnrecognized},
	}
	for _, tt := range tests {
		if got := Classify(ix, tt.ref); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestResolvePairDefaults(t *testing.T) {
	ix := testIndex()

	a, b, err := ResolvePair(ix, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if a != runSecond || b != runThird {
		t.Errorf("ResolvePair(, ) = (%q, %q), want last two (%q, %q)", a, b, runSecond, runThird)
	}
}

func TestResolvePairOneArg(t *testing.T) {
	ix := testIndex()

	a, b, err := ResolvePair(ix, "#1", "")
	if err != nil {
		t.Fatal(err)
	}
	if a != runFirst || b != runThird {
		t.Errorf("ResolvePair(#1, ) = (%q, %q), want (%q, %q)", a, b, runFirst, runThird)
	}
}

// One arg naming the latest run compares the previous run against it
// instead of diffing the latest run with itself.
func TestResolvePairOneArgIsLatest(t *testing.T) {
	ix := testIndex()

	a, b, err := ResolvePair(ix, "#3", "")
	if err != nil {
		t.Fatal(err)
	}
	if a != runSecond || b != runThird {
		t.Errorf("ResolvePair(#3, ) = (%q, %q), want previous vs latest (%q, %q)", a, b, runSecond, runThird)
	}
}

func TestResolvePairTwoArgs(t *testing.T) {
	ix := testIndex()

	a, b, err := ResolvePair(ix, "baseline", "#3")
	if err != nil {
		t.Fatal(err)
	}
	if a != runFirst || b != runThird {
		t.Errorf("ResolvePair(baseline, #3) = (%q, %q), want (%q, %q)", a, b, runFirst, runThird)
	}
}

func TestResolvePairNeedsTwoRuns(t *testing.T) {
	ix := models.NewIndex()
	ix.Runs = []models.RunSummary{{RunID: runFirst, Timestamp: "2026-02-09T13:00:00Z"}}

	for _, args := range [][2]string{{"", ""}, {"#1", ""}} {
		_, _, err := ResolvePair(ix, args[0], args[1])
		if err == nil {
			t.Fatalf("ResolvePair(%q, %q) with one run should fail", args[0], args[1])
		}
		if !strings.Contains(err.Error(), "need at least two recorded runs to diff") {
			t.Errorf("error = %q, want the need-two-runs message", err)
		}
	}
}

func TestResolvePairPropagatesErrors(t *testing.T) {
	ix := testIndex()

	_, _, err := ResolvePair(ix, "#1", "bogus")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ResolvePair with bad b = %v, want ErrNotFound", err)
	}
}
