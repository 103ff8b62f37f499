// Package vm lowers parsed patterns into a flat instruction program and
// executes it with an explicit-stack backtracking machine.
//
// The program form supports constructs a Thompson NFA cannot express,
// most importantly backreferences, at the cost of worst-case exponential
// search. Two guards bound that cost: a visited-position bitmap prunes
// revisited (pc, pos) configurations whenever the program has no
// backreferences, and a per-call step budget aborts pathological
// searches with ErrStepLimit.
//
// A compiled Prog is immutable and safe for concurrent use; all mutable
// search state lives in pooled per-call machines.
package vm

import (
	"fmt"
	"sync"

	"github.com/coregx/regexkit/syntax"
)

// InstOp identifies the operation of a single instruction.
type InstOp uint8

const (
	// InstMatch ends a successful attempt
	InstMatch InstOp = iota

	// InstRune matches a single rune
	InstRune

	// InstClass matches a rune accepted by a character class
	InstClass

	// InstAny matches any rune except a line separator
	InstAny

	// InstAnyNL matches any rune including line separators
	InstAnyNL

	// InstSplit tries Out first and falls back to Alt
	InstSplit

	// InstJump continues at Out
	InstJump

	// InstSave records the current position in slot Arg
	InstSave

	// InstBackref matches the text captured by group Arg
	InstBackref

	// InstProgress continues at Out if the position has advanced past
	// the mark in slot Arg, and at Alt otherwise. It terminates loops
	// whose body matched the empty string.
	InstProgress

	// InstAssert matches the empty string at a position satisfying the
	// assertion in Arg
	InstAssert
)

// Assertion kinds for InstAssert.
const (
	AssertBeginText uint32 = iota
	AssertEndText
	AssertBeginLine
	AssertEndLine
	AssertWordBoundary
	AssertNoWordBoundary
)

// Inst is a single program instruction. Out is the primary successor;
// Alt is the secondary successor for InstSplit and InstProgress. The
// meaning of Arg depends on the opcode.
type Inst struct {
	Op    InstOp
	Out   uint32
	Alt   uint32
	Arg   uint32
	Rune  rune
	Class *syntax.Class
}

// Prog is a compiled pattern program.
//
// A Prog is immutable after compilation and safe to share across
// goroutines. Per-search state is pooled internally.
type Prog struct {
	Insts []Inst
	Start uint32

	// NumCap is the number of capturing groups plus one for the
	// overall match. Capture slot layout: group i occupies slots
	// 2i and 2i+1.
	NumCap int

	// Names maps capture index to group name; empty for unnamed.
	Names []string

	flags       syntax.Flags
	numSlots    int  // capture slots plus loop-progress marks
	hasBackref  bool // disables the visited bitmap when set
	minWidth    int // minimum runes any match consumes
	machinePool sync.Pool
}

// Flags returns the flags the program was compiled with.
func (p *Prog) Flags() syntax.Flags { return p.flags }

// MinWidth returns the minimum number of runes a match consumes.
func (p *Prog) MinWidth() int { return p.minWidth }

// HasBackref reports whether the program contains backreferences.
func (p *Prog) HasBackref() bool { return p.hasBackref }

// String returns a readable listing of the program, used in tests and
// debugging.
func (p *Prog) String() string {
	out := ""
	for pc, in := range p.Insts {
		out += fmt.Sprintf("%3d: %s\n", pc, in.String())
	}
	return out
}

func (i Inst) String() string {
	switch i.Op {
	case InstMatch:
		return "match"
	case InstRune:
		return fmt.Sprintf("rune %q -> %d", i.Rune, i.Out)
	case InstClass:
		return fmt.Sprintf("class -> %d", i.Out)
	case InstAny:
		return fmt.Sprintf("any -> %d", i.Out)
	case InstAnyNL:
		return fmt.Sprintf("anynl -> %d", i.Out)
	case InstSplit:
		return fmt.Sprintf("split -> %d, %d", i.Out, i.Alt)
	case InstJump:
		return fmt.Sprintf("jump -> %d", i.Out)
	case InstSave:
		return fmt.Sprintf("save %d -> %d", i.Arg, i.Out)
	case InstBackref:
		return fmt.Sprintf("backref %d -> %d", i.Arg, i.Out)
	case InstProgress:
		return fmt.Sprintf("progress %d -> %d, %d", i.Arg, i.Out, i.Alt)
	case InstAssert:
		return fmt.Sprintf("assert %d -> %d", i.Arg, i.Out)
	}
	return fmt.Sprintf("op%d", i.Op)
}
