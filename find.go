package regexkit

import "github.com/coregx/regexkit/vm"

// MatchString reports whether text contains any match of the pattern.
//
// Example:
//
//	re := regexkit.MustCompile(`\d+`, 0)
//	re.MatchString("agent 007") // true
func (re *Regexp) MatchString(text string) bool {
	r, _ := re.RangeOfFirstMatch(text)
	return r.IsValid()
}

// NumberOfMatches returns the number of non-overlapping matches in text.
func (re *Regexp) NumberOfMatches(text string) int {
	runes := []rune(text)
	return re.countIn(runes, 0, fullRange(runes))
}

// NumberOfMatchesIn returns the number of non-overlapping matches
// within r, honoring mopts.
func (re *Regexp) NumberOfMatchesIn(text string, mopts MatchOptions, r Range) int {
	runes := []rune(text)
	return re.countIn(runes, mopts, clampRange(r, len(runes)))
}

func (re *Regexp) countIn(runes []rune, mopts MatchOptions, bounds Range) int {
	it := re.iter(runes, mopts, bounds)
	n := 0
	for {
		if _, ok := it.Next(); !ok {
			return n
		}
		n++
	}
}

// Matches returns one row per match: the matched text followed by the
// text of each capturing group that participated in that match. Groups
// with no capture are omitted from the row.
//
// Example:
//
//	re := regexkit.MustCompile(`(\w)(\d)?`, 0)
//	re.Matches("a1 b")
//	// [["a1", "a", "1"], ["b", "b"]]
func (re *Regexp) Matches(text string) [][]string {
	runes := []rune(text)
	return re.matchesIn(runes, 0, fullRange(runes))
}

// MatchesIn is Matches restricted to r, honoring mopts.
func (re *Regexp) MatchesIn(text string, mopts MatchOptions, r Range) [][]string {
	runes := []rune(text)
	return re.matchesIn(runes, mopts, clampRange(r, len(runes)))
}

func (re *Regexp) matchesIn(runes []rune, mopts MatchOptions, bounds Range) [][]string {
	it := re.iter(runes, mopts, bounds)
	var rows [][]string
	for {
		m, ok := it.Next()
		if !ok {
			return rows
		}
		rows = append(rows, rowFor(runes, m))
	}
}

// FirstMatch returns the row (matched text plus participating group
// texts) for the first match, or nil if there is none.
func (re *Regexp) FirstMatch(text string) []string {
	runes := []rune(text)
	return re.firstMatchIn(runes, 0, fullRange(runes))
}

// FirstMatchIn is FirstMatch restricted to r, honoring mopts.
func (re *Regexp) FirstMatchIn(text string, mopts MatchOptions, r Range) []string {
	runes := []rune(text)
	return re.firstMatchIn(runes, mopts, clampRange(r, len(runes)))
}

func (re *Regexp) firstMatchIn(runes []rune, mopts MatchOptions, bounds Range) []string {
	m, err := re.findAt(runes, bounds, bounds.Start, mopts)
	if err != nil || m == nil {
		return nil
	}
	return rowFor(runes, *m)
}

// RangeOfFirstMatch returns the span of the first match.
// ok is false when there is no match.
func (re *Regexp) RangeOfFirstMatch(text string) (Range, bool) {
	runes := []rune(text)
	return re.rangeOfFirstIn(runes, 0, fullRange(runes))
}

// RangeOfFirstMatchIn is RangeOfFirstMatch restricted to r.
func (re *Regexp) RangeOfFirstMatchIn(text string, mopts MatchOptions, r Range) (Range, bool) {
	runes := []rune(text)
	return re.rangeOfFirstIn(runes, mopts, clampRange(r, len(runes)))
}

func (re *Regexp) rangeOfFirstIn(runes []rune, mopts MatchOptions, bounds Range) (Range, bool) {
	m, err := re.findAt(runes, bounds, bounds.Start, mopts)
	if err != nil || m == nil {
		return noRange, false
	}
	return m.Range, true
}

// FindMatch returns the first match with full capture group spans, or
// nil if there is none. It reports vm.ErrStepLimit when the search
// exceeded its backtracking budget.
func (re *Regexp) FindMatch(text string) (*Match, error) {
	runes := []rune(text)
	return re.findAt(runes, fullRange(runes), 0, 0)
}

// FindMatchIn is FindMatch restricted to r, honoring mopts.
func (re *Regexp) FindMatchIn(text string, mopts MatchOptions, r Range) (*Match, error) {
	runes := []rune(text)
	bounds := clampRange(r, len(runes))
	return re.findAt(runes, bounds, bounds.Start, mopts)
}

// FindSubmatchIndex returns the capture span vector of the first match:
// [start0, end0, start1, end1, ...] in rune offsets, with -1 pairs for
// groups that did not participate. It returns nil when there is no
// match or the search exceeded its step budget.
func (re *Regexp) FindSubmatchIndex(text string) []int {
	m, err := re.FindMatch(text)
	if err != nil || m == nil {
		return nil
	}
	return submatchIndex(m)
}

// FindAllSubmatchIndex returns the capture span vector of every match,
// in order.
func (re *Regexp) FindAllSubmatchIndex(text string) [][]int {
	runes := []rune(text)
	it := re.iter(runes, 0, fullRange(runes))
	var out [][]int
	for {
		m, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, submatchIndex(&m))
	}
}

func submatchIndex(m *Match) []int {
	idx := make([]int, 0, 2*len(m.Groups))
	for _, g := range m.Groups {
		idx = append(idx, g.Start, g.End)
	}
	return idx
}

// findAt runs a single search attempt sequence from at.
func (re *Regexp) findAt(runes []rune, bounds Range, at int, mopts MatchOptions) (*Match, error) {
	var cand vm.Candidates
	if re.pf != nil {
		cand = re.pf.Scan(runes)
	}
	caps, err := re.prog.Search(runes, bounds.Start, bounds.End, at, mopts&Anchored != 0, cand, re.config.StepLimit)
	if err != nil {
		return nil, err
	}
	if caps == nil {
		return nil, nil
	}
	m := matchFromCaps(caps)
	return &m, nil
}

// rowFor builds the facade row for a match: full text first, then each
// participating group's text in order. Non-participating groups leave
// no entry.
func rowFor(runes []rune, m Match) []string {
	row := make([]string, 0, len(m.Groups))
	row = append(row, string(runes[m.Range.Start:m.Range.End]))
	for i := 1; i < len(m.Groups); i++ {
		if g := m.Groups[i]; g.IsValid() {
			row = append(row, string(runes[g.Start:g.End]))
		}
	}
	return row
}
