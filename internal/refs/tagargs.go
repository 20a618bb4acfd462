package refs

import (
	"fmt"
	"strings"

	"github.com/salazaj/provenance-recorder/internal/models"
	"github.com/salazaj/provenance-recorder/internal/store"
)

// TagArgs is the decided interpretation of the tag command's positionals.
type TagArgs struct {
	RunRef  string
	TagName string
}

type argInfo struct {
	raw         string
	isOrdinal   bool
	runIDShape  bool
	tagOK       bool
	runOK       bool
	existingTag bool
}

// explicitRunish reports the user clearly meant the run side.
func (a argInfo) explicitRunish() bool {
	return a.isOrdinal || a.runIDShape
}

// ResolveTagArgs decides (run ref, tag name) from the tag command's two
// positional arguments, accepted in either order. runExists reports whether
// an argument resolves to an existing run. Policy:
//   - ordinals always land on the run side;
//   - an existing tag plus an argument that resolves to a run is accepted
//     automatically only when the run side is explicit (ordinal or run id
//     shape), otherwise the pair is ambiguous;
//   - an existing tag plus a tag-like argument is ambiguous.
func ResolveTagArgs(ix *models.Index, a, b string, runExists func(string) bool) (TagArgs, error) {
	info := func(x string) argInfo {
		x = strings.TrimSpace(x)
		_, isOrd := ParseOrdinal(x)
		_, isTag := ix.Tags[x]
		return argInfo{
			raw:         x,
			isOrdinal:   isOrd,
			runIDShape:  models.LooksLikeRunID(x),
			tagOK:       models.ValidateTagName(x) == nil,
			runOK:       runExists(x),
			existingTag: isTag,
		}
	}
	argA := info(a)
	argB := info(b)

	// Ordinals win.
	if argA.isOrdinal && !argB.isOrdinal {
		return TagArgs{RunRef: argA.raw, TagName: argB.raw}, nil
	}
	if argB.isOrdinal && !argA.isOrdinal {
		return TagArgs{RunRef: argB.raw, TagName: argA.raw}, nil
	}

	// Existing tag plus run: only auto-accept an explicit run side.
	if argA.existingTag && argB.runOK {
		if argB.explicitRunish() {
			return TagArgs{RunRef: argB.raw, TagName: argA.raw}, nil
		}
		return TagArgs{}, ambiguityErr(argA.raw, argB.raw)
	}
	if argB.existingTag && argA.runOK {
		if argA.explicitRunish() {
			return TagArgs{RunRef: argA.raw, TagName: argB.raw}, nil
		}
		return TagArgs{}, ambiguityErr(argB.raw, argA.raw)
	}

	// Existing tag plus a tag-like other argument.
	if argA.existingTag && argB.tagOK && !argB.runOK && !argB.explicitRunish() {
		return TagArgs{}, ambiguityErr(argA.raw, argB.raw)
	}
	if argB.existingTag && argA.tagOK && !argA.runOK && !argA.explicitRunish() {
		return TagArgs{}, ambiguityErr(argB.raw, argA.raw)
	}

	// Exactly one side resolves to a run and the other is a usable tag name.
	if argA.runOK && argB.tagOK && !argB.runOK {
		return TagArgs{RunRef: argA.raw, TagName: argB.raw}, nil
	}
	if argB.runOK && argA.tagOK && !argA.runOK {
		return TagArgs{RunRef: argB.raw, TagName: argA.raw}, nil
	}

	if argA.runOK && argB.runOK {
		return TagArgs{}, fmt.Errorf(
			"%w: both arguments resolve to runs; need a tag name and a run reference\n\n"+
				"Examples:\n  prov tag baseline #2\n  prov tag baseline 2026-02-11T16-08-36Z_27971d",
			store.ErrAmbiguousRef)
	}
	if !argA.runOK && !argB.runOK {
		return TagArgs{}, fmt.Errorf(
			"%w: could not resolve a run from either argument; provide a run ref (id, tag, or ordinal) and a tag name\n\n"+
				"Examples:\n  prov tag baseline #2\n  prov tag baseline 2026-02-09T14-06-45Z_ab12cd",
			store.ErrNotFound)
	}

	// Fallback: first argument is the run, second the tag.
	return TagArgs{RunRef: argA.raw, TagName: argB.raw}, nil
}

func ambiguityErr(existing, other string) error {
	return fmt.Errorf(
		"%w: %q is an existing tag, and %q could be a tag name or a run reference\n\n"+
			"Be explicit:\n"+
			"  prov tag %s #<N>\n"+
			"  prov tag %s <run_id>\n"+
			"  prov tag %s %s    # if you meant to create/update tag %q instead",
		store.ErrAmbiguousRef, existing, other, existing, existing, other, existing, other)
}
