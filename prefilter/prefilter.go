// Package prefilter accelerates unanchored searches by skipping start
// offsets that cannot begin a match.
//
// A prefilter is derived from the pattern's mandatory literal prefixes:
// every match of the pattern must begin with one of them. A single
// prefix is scanned directly; a set of prefixes uses an Aho-Corasick
// automaton. Prefilters never produce false negatives; a candidate
// position may still fail full matching.
package prefilter

import (
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/regexkit/syntax"
)

// maxLiterals caps the size of a prefix set worth building an
// automaton for.
const maxLiterals = 64

// Prefilter builds per-search scanners for one compiled pattern.
// Prefilters are immutable and safe for concurrent use.
type Prefilter interface {
	// Scan returns a scanner bound to text. The scanner satisfies the
	// vm search loop's Candidates contract.
	Scan(text []rune) Scanner
}

// Scanner reports candidate match start positions within one search.
// Next returns the first plausible start at or after from, or -1.
type Scanner interface {
	Next(text []rune, from int) int
}

// FromRegexp derives a prefilter from a parsed pattern, or nil when no
// useful literal prefix exists. Case-insensitive patterns get no
// prefilter: folding multiplies the literal set beyond usefulness.
func FromRegexp(re *syntax.Regexp, flags syntax.Flags) Prefilter {
	if flags&syntax.FoldCase != 0 {
		return nil
	}
	lits, ok := prefixLiterals(re)
	if !ok || len(lits) == 0 || len(lits) > maxLiterals {
		return nil
	}
	lits = dedup(lits)

	if len(lits) == 1 {
		return &literalPrefilter{lit: lits[0]}
	}

	builder := ahocorasick.NewBuilder()
	for _, lit := range lits {
		builder.AddPattern([]byte(string(lit)))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &acPrefilter{auto: auto}
}

// prefixLiterals returns the set of literal strings one of which every
// match of re must begin with. ok is false when no such finite
// non-empty set exists.
func prefixLiterals(re *syntax.Regexp) ([][]rune, bool) {
	switch re.Op {
	case syntax.OpLiteral:
		if len(re.Runes) == 0 {
			return nil, false
		}
		return [][]rune{re.Runes}, true

	case syntax.OpCapture:
		return prefixLiterals(re.Sub[0])

	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if zeroWidth(sub) {
				continue
			}
			return prefixLiterals(sub)
		}
		return nil, false

	case syntax.OpAlternate:
		var all [][]rune
		for _, sub := range re.Sub {
			lits, ok := prefixLiterals(sub)
			if !ok {
				return nil, false
			}
			all = append(all, lits...)
			if len(all) > maxLiterals {
				return nil, false
			}
		}
		return all, true

	case syntax.OpRepeat:
		if re.Min >= 1 {
			return prefixLiterals(re.Sub[0])
		}
		return nil, false
	}
	return nil, false
}

// zeroWidth reports whether re never consumes input (assertions and the
// empty expression). Such nodes do not affect what a match begins with.
func zeroWidth(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpEmpty, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return true
	}
	return false
}

func dedup(lits [][]rune) [][]rune {
	seen := make(map[string]bool, len(lits))
	out := lits[:0]
	for _, lit := range lits {
		s := string(lit)
		if !seen[s] {
			seen[s] = true
			out = append(out, lit)
		}
	}
	return out
}

// literalPrefilter scans for a single mandatory prefix.
// It is stateless, so it is its own scanner.
type literalPrefilter struct {
	lit []rune
}

func (p *literalPrefilter) Scan([]rune) Scanner { return p }

func (p *literalPrefilter) Next(text []rune, from int) int {
	lit := p.lit
	last := len(text) - len(lit)
	for i := from; i <= last; i++ {
		if text[i] != lit[0] {
			continue
		}
		j := 1
		for ; j < len(lit); j++ {
			if text[i+j] != lit[j] {
				break
			}
		}
		if j == len(lit) {
			return i
		}
	}
	return -1
}

// acPrefilter scans for a set of mandatory prefixes with Aho-Corasick.
// The automaton works in byte space, so each scan carries a rune/byte
// offset mapping built once per text.
type acPrefilter struct {
	auto *ahocorasick.Automaton
}

func (p *acPrefilter) Scan(text []rune) Scanner {
	s := &acScan{auto: p.auto}
	s.bytes = make([]byte, 0, len(text))
	s.byteOf = make([]int, len(text)+1)
	s.runeOf = make(map[int]int, len(text)+1)
	for i, r := range text {
		s.byteOf[i] = len(s.bytes)
		s.runeOf[len(s.bytes)] = i
		s.bytes = utf8.AppendRune(s.bytes, r)
	}
	s.byteOf[len(text)] = len(s.bytes)
	s.runeOf[len(s.bytes)] = len(text)
	return s
}

type acScan struct {
	auto   *ahocorasick.Automaton
	bytes  []byte
	byteOf []int       // rune index -> byte offset
	runeOf map[int]int // byte offset of a rune start -> rune index
}

func (s *acScan) Next(_ []rune, from int) int {
	if from < 0 || from >= len(s.byteOf) {
		return -1
	}
	m := s.auto.Find(s.bytes, s.byteOf[from])
	if m == nil {
		return -1
	}
	return s.runeOf[m.Start]
}
