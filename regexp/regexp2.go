// Package regexp wraps github.com/dlclark/regexp2 behind a small API shaped
// like a textbook Oniguruma binding: compile a pattern once, then search a
// rune slice for the leftmost match and read back 1-based capture groups.
//
// Matching operates on []rune rather than string so that group offsets line
// up with rune positions in the caller's line, not UTF-8 byte positions -
// important once a grammar's input isn't pure ASCII.
package regexp

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Regexp is a compiled pattern. The zero value is not usable; use Compile.
type Regexp struct {
	re      *regexp2.Regexp
	pattern string
}

// Range is a half-open [Start, End) span over a rune slice. A Range with
// Start < 0 means the group did not participate in the match.
type Range struct {
	Start, End int
}

// Len returns the number of runes covered by the range.
func (r Range) Len() int {
	if !r.Participated() {
		return 0
	}
	return r.End - r.Start
}

// Participated reports whether the capture group matched at all.
func (r Range) Participated() bool {
	return r.Start >= 0 && r.End >= 0
}

// Text slices the matched range out of the rune slice it was matched against.
func (r Range) Text(rs []rune) string {
	if !r.Participated() {
		return ""
	}
	return string(rs[r.Start:r.End])
}

// Match is one search result: group 0 is the whole match, groups 1..N are
// the pattern's capturing groups in open-paren order, matching Oniguruma's
// (and Sublime's) 1-based capture numbering.
type Match struct {
	groups []Range
}

// Group returns the i'th capture group (0 = whole match). Out-of-range
// indices return a non-participating Range, matching "skip" semantics
// for captures maps that reference a group the pattern doesn't have.
func (m *Match) Group(i int) Range {
	if i < 0 || i >= len(m.groups) {
		return Range{-1, -1}
	}
	return m.groups[i]
}

// NumGroups returns 1 + the highest capturing group index (whole match
// counts as group 0).
func (m *Match) NumGroups() int {
	return len(m.groups)
}

// Compile parses pattern as an Oniguruma-like regex (backreferences and
// lookaround supported, per dlclark/regexp2's default RegexOptions).
func Compile(pattern string) (*Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("regexp: empty pattern")
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("regexp: %w", err)
	}
	return &Regexp{re: re, pattern: pattern}, nil
}

// MustCompile is like Compile but panics on error; useful for patterns
// baked into Go source rather than loaded from a grammar document.
func MustCompile(pattern string) *Regexp {
	re, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

func (re *Regexp) String() string {
	return re.pattern
}

// FindRunesMatch searches rs for the leftmost match anywhere in the slice
// (not anchored to position 0), returning nil if there is none.
func (re *Regexp) FindRunesMatch(rs []rune) (*Match, error) {
	m, err := re.re.FindRunesMatch(rs)
	if err != nil {
		return nil, fmt.Errorf("regexp: %w", err)
	}
	if m == nil {
		return nil, nil
	}
	groups := m.Groups()
	ranges := make([]Range, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			ranges[i] = Range{-1, -1}
			continue
		}
		c := g.Captures[0]
		ranges[i] = Range{c.Index, c.Index + c.Length}
	}
	return &Match{groups: ranges}, nil
}
