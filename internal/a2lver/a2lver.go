// Package a2lver gates synthesizer behavior on the target A2L file's
// declared version. A2L versions are dotted triples (e.g. "1.7.1") so we
// reuse Masterminds/semver/v3, the version-comparison library
// SeleniaProject-Orizon wires in for the same kind of "is this feature
// available at this version" check, rather than hand-rolling a three-field
// comparator.
package a2lver

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version wraps a parsed A2L version string for ordering comparisons.
type Version struct {
	v *semver.Version
}

// Parse accepts the A2L header's two- or three-field version string (A2L
// versions omit a patch field more often than not, e.g. "1.6"; semver
// requires three fields, so a missing patch is zero-filled).
func Parse(s string) (Version, error) {
	v, err := semver.NewVersion(normalize(s))
	if err != nil {
		return Version{}, fmt.Errorf("a2lver: parsing %q: %w", s, err)
	}
	return Version{v: v}, nil
}

// MustParse is Parse for the fixed well-known version constants below.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func normalize(s string) string {
	dots := 0
	for _, r := range s {
		if r == '.' {
			dots++
		}
	}
	for ; dots < 2; dots++ {
		s += ".0"
	}
	return s
}

// Well-known thresholds referenced by the synthesizer.
var (
	V1_6_0 = MustParse("1.6.0")
	V1_7_0 = MustParse("1.7.0")
	V1_7_1 = MustParse("1.7.1")
)

// AtLeast reports whether v is greater than or equal to other.
func (v Version) AtLeast(other Version) bool {
	return v.v.Compare(other.v) >= 0
}

// String returns the version in dotted form.
func (v Version) String() string {
	return v.v.String()
}

// SupportsStructures reports whether v is new enough for INSTANCE +
// TYPEDEF_STRUCTURE (A2L >= 1.7.1, spec.md §4.5 kind-selection table).
func (v Version) SupportsStructures() bool {
	return v.AtLeast(V1_7_1)
}

// SupportsNewArrayNotation reports whether v is new enough for the
// `base[i]` per-element naming style (A2L >= 1.7.0); below that, only the
// legacy `base._i_` suffix is valid.
func (v Version) SupportsNewArrayNotation() bool {
	return v.AtLeast(V1_7_0)
}
