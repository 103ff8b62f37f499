// Package syntax parses regular expression patterns into an abstract
// syntax tree.
//
// The dialect is a Perl-compatible core: literals, character classes,
// anchors, greedy and lazy quantifiers, alternation, capturing and
// non-capturing groups, named groups, and backreferences. Parsing is
// driven by a Flags bitmask; the same flags later steer lowering and
// matching in the vm package.
//
// The parser produces a tree of *Regexp nodes. Capturing groups are
// numbered left to right starting at 1; index 0 is reserved for the
// whole match.
package syntax

import (
	"fmt"
	"strings"
)

// Flags controls pattern parsing and matching behavior.
type Flags uint32

const (
	// FoldCase enables Unicode simple-case-insensitive matching
	FoldCase Flags = 1 << iota

	// AllowComments enables free-spacing mode: unescaped whitespace is
	// ignored and # starts a comment running to end of line, except
	// inside character classes
	AllowComments

	// Literal treats the entire pattern as a literal string
	Literal

	// DotAll lets . match line separators
	DotAll

	// Multiline lets ^ and $ match at line boundaries in addition to
	// text boundaries
	Multiline

	// UnixLines restricts the line separator set to '\n' alone
	UnixLines
)

// Op identifies the kind of a Regexp node.
type Op uint8

const (
	OpEmpty         Op = iota // matches the empty string
	OpLiteral                 // matches the run of runes in Runes
	OpCharClass               // matches a rune accepted by Class
	OpAnyChar                 // matches any rune (. — newline handling decided at lowering)
	OpBeginLine               // ^ in multiline mode
	OpEndLine                 // $ in multiline mode
	OpBeginText               // \A, or ^ outside multiline mode
	OpEndText                 // \z, or $ outside multiline mode
	OpWordBoundary            // \b
	OpNoWordBoundary          // \B
	OpCapture                 // capturing group; Sub[0] is the body
	OpConcat                  // concatenation of Sub
	OpAlternate               // alternation of Sub
	OpRepeat                  // Sub[0] repeated Min..Max times
	OpBackref                 // backreference to group Ref
)

// Regexp is a node in the parsed pattern tree.
// Which fields are meaningful depends on Op.
type Regexp struct {
	Op     Op
	Sub    []*Regexp // subexpressions for Concat, Alternate, Repeat, Capture
	Runes  []rune    // literal run for OpLiteral
	Class  *Class    // class for OpCharClass
	Min    int       // OpRepeat minimum
	Max    int       // OpRepeat maximum; -1 means unbounded
	Greedy bool      // OpRepeat greediness
	Cap    int       // OpCapture group index (1-based)
	Name   string    // OpCapture group name, if named
	Ref    int       // OpBackref target group index
}

// ClassRange is an inclusive rune range inside a character class.
type ClassRange struct {
	Lo, Hi rune
}

// Class is a character class: a set of rune ranges, possibly negated.
// Ranges are kept sorted and non-overlapping after parsing.
type Class struct {
	Ranges []ClassRange
	Negate bool
}

// Contains reports whether r is accepted by the class, ignoring case
// folding (the vm layer handles folding).
func (c *Class) Contains(r rune) bool {
	return c.InRanges(r) != c.Negate
}

// InRanges reports whether r falls in the class ranges, before negation
// is applied. Case-insensitive matching folds against the raw ranges
// and negates afterwards, so the two steps are exposed separately.
func (c *Class) InRanges(r rune) bool {
	// Ranges are sorted; binary search is overkill for typical class sizes.
	for _, cr := range c.Ranges {
		if r >= cr.Lo && r <= cr.Hi {
			return true
		}
	}
	return false
}

// MaxCap returns the highest capture group index in the tree.
func (re *Regexp) MaxCap() int {
	m := 0
	if re.Op == OpCapture && re.Cap > m {
		m = re.Cap
	}
	for _, sub := range re.Sub {
		if n := sub.MaxCap(); n > m {
			m = n
		}
	}
	return m
}

// CapNames returns a slice mapping capture index to group name.
// Index 0 is always the empty string; unnamed groups are empty.
func (re *Regexp) CapNames() []string {
	names := make([]string, re.MaxCap()+1)
	re.capNames(names)
	return names
}

func (re *Regexp) capNames(names []string) {
	if re.Op == OpCapture {
		names[re.Cap] = re.Name
	}
	for _, sub := range re.Sub {
		sub.capNames(names)
	}
}

// HasBackref reports whether the tree contains a backreference.
// The vm uses this to decide whether position memoization is sound.
func (re *Regexp) HasBackref() bool {
	if re.Op == OpBackref {
		return true
	}
	for _, sub := range re.Sub {
		if sub.HasBackref() {
			return true
		}
	}
	return false
}

// String returns a compact dump of the tree, used by tests.
func (re *Regexp) String() string {
	var b strings.Builder
	re.dump(&b)
	return b.String()
}

func (re *Regexp) dump(b *strings.Builder) {
	switch re.Op {
	case OpEmpty:
		b.WriteString("emp{}")
	case OpLiteral:
		fmt.Fprintf(b, "lit{%s}", string(re.Runes))
	case OpCharClass:
		b.WriteString("cc{")
		if re.Class.Negate {
			b.WriteString("^")
		}
		for i, cr := range re.Class.Ranges {
			if i > 0 {
				b.WriteString(" ")
			}
			if cr.Lo == cr.Hi {
				fmt.Fprintf(b, "%#x", cr.Lo)
			} else {
				fmt.Fprintf(b, "%#x-%#x", cr.Lo, cr.Hi)
			}
		}
		b.WriteString("}")
	case OpAnyChar:
		b.WriteString("dot{}")
	case OpBeginLine:
		b.WriteString("bol{}")
	case OpEndLine:
		b.WriteString("eol{}")
	case OpBeginText:
		b.WriteString("bot{}")
	case OpEndText:
		b.WriteString("eot{}")
	case OpWordBoundary:
		b.WriteString("wb{}")
	case OpNoWordBoundary:
		b.WriteString("nwb{}")
	case OpCapture:
		if re.Name != "" {
			fmt.Fprintf(b, "cap{%d:%s ", re.Cap, re.Name)
		} else {
			fmt.Fprintf(b, "cap{%d ", re.Cap)
		}
		re.Sub[0].dump(b)
		b.WriteString("}")
	case OpConcat:
		b.WriteString("cat{")
		for i, sub := range re.Sub {
			if i > 0 {
				b.WriteString(" ")
			}
			sub.dump(b)
		}
		b.WriteString("}")
	case OpAlternate:
		b.WriteString("alt{")
		for i, sub := range re.Sub {
			if i > 0 {
				b.WriteString(" ")
			}
			sub.dump(b)
		}
		b.WriteString("}")
	case OpRepeat:
		greedy := ""
		if !re.Greedy {
			greedy = "?"
		}
		fmt.Fprintf(b, "rep{%d,%d%s ", re.Min, re.Max, greedy)
		re.Sub[0].dump(b)
		b.WriteString("}")
	case OpBackref:
		fmt.Fprintf(b, "ref{%d}", re.Ref)
	default:
		fmt.Fprintf(b, "badop{%d}", re.Op)
	}
}
