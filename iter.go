package regexkit

import "github.com/coregx/regexkit/vm"

// Iter enumerates the non-overlapping matches of a pattern over a
// range of text, in strictly increasing start order.
//
// After a zero-length match the cursor advances by one rune, so
// iteration always terminates. Each call to Regexp.Iter produces an
// independent, restartable sequence over the same inputs.
//
// Example:
//
//	re := regexkit.MustCompile(`\d+`, 0)
//	it := re.Iter("1 22 333")
//	for m, ok := it.Next(); ok; m, ok = it.Next() {
//	    fmt.Println(m.Range)
//	}
type Iter struct {
	re     *Regexp
	text   []rune
	bounds Range
	mopts  MatchOptions
	cursor int
	cand   vm.Candidates
	err    error
	done   bool
}

// Iter returns an iterator over all matches in the full text.
func (re *Regexp) Iter(text string) *Iter {
	runes := []rune(text)
	return re.iter(runes, 0, fullRange(runes))
}

// IterIn returns an iterator over matches within r, honoring mopts.
func (re *Regexp) IterIn(text string, mopts MatchOptions, r Range) *Iter {
	runes := []rune(text)
	return re.iter(runes, mopts, clampRange(r, len(runes)))
}

func (re *Regexp) iter(runes []rune, mopts MatchOptions, bounds Range) *Iter {
	it := &Iter{
		re:     re,
		text:   runes,
		bounds: bounds,
		mopts:  mopts,
		cursor: bounds.Start,
	}
	if re.pf != nil {
		it.cand = re.pf.Scan(runes)
	}
	return it
}

// Next returns the next match, or ok == false when the sequence is
// exhausted. After an aborted search (see Err) Next reports no further
// matches.
func (it *Iter) Next() (Match, bool) {
	if it.done {
		return Match{}, false
	}
	caps, err := it.re.prog.Search(
		it.text, it.bounds.Start, it.bounds.End, it.cursor,
		it.mopts&Anchored != 0, it.cand, it.re.config.StepLimit,
	)
	if err != nil {
		it.err = err
		it.done = true
		return Match{}, false
	}
	if caps == nil {
		it.done = true
		return Match{}, false
	}

	m := matchFromCaps(caps)
	// advancing past zero-length matches keeps iteration finite
	if m.Range.End > m.Range.Start {
		it.cursor = m.Range.End
	} else {
		it.cursor = m.Range.Start + 1
	}
	return m, true
}

// Err returns the error that ended iteration early, if any.
// The only such error is vm.ErrStepLimit from runaway backtracking.
func (it *Iter) Err() error {
	return it.err
}

// Text returns the text covered by r in the iterator's input.
func (it *Iter) Text(r Range) string {
	if !r.IsValid() {
		return ""
	}
	return string(it.text[r.Start:r.End])
}

func fullRange(runes []rune) Range {
	return Range{0, len(runes)}
}

// clampRange confines r to [0, n], treating an invalid range as the
// full extent.
func clampRange(r Range, n int) Range {
	if !r.IsValid() {
		return Range{0, n}
	}
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End > n {
		r.End = n
	}
	if r.End < r.Start {
		r.End = r.Start
	}
	return r
}
