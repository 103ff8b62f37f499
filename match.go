package regexkit

// Range is a half-open span [Start, End) measured in rune offsets.
type Range struct {
	Start, End int
}

// Len returns the number of runes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsValid reports whether the range denotes an actual span. Capture
// groups that did not participate in a match have invalid ranges.
func (r Range) IsValid() bool {
	return r.Start >= 0
}

// noRange marks a capture group with no participation.
var noRange = Range{-1, -1}

// Match is the result of one successful match attempt: the overall
// span plus one span per capturing group. A Match is a value type with
// no ties to matcher internals and may be copied and retained freely.
type Match struct {
	// Range is the span of the whole match.
	Range Range

	// Groups holds the span of each capturing group; Groups[0] equals
	// Range. A group that did not participate has an invalid range.
	Groups []Range
}

// Group returns the span of capturing group i (0 is the whole match).
// Out-of-range indices return an invalid range.
func (m *Match) Group(i int) Range {
	if i < 0 || i >= len(m.Groups) {
		return noRange
	}
	return m.Groups[i]
}

// matchFromCaps converts vm capture slots to a Match.
func matchFromCaps(caps []int) Match {
	groups := make([]Range, len(caps)/2)
	for i := range groups {
		s, e := caps[2*i], caps[2*i+1]
		if s < 0 || e < 0 {
			groups[i] = noRange
		} else {
			groups[i] = Range{s, e}
		}
	}
	return Match{Range: groups[0], Groups: groups}
}
