package vm

import (
	"errors"

	"github.com/coregx/regexkit/syntax"
)

// ErrProgramTooLarge indicates the lowered program exceeded the
// instruction limit. Large counted repeats of large bodies can get here.
var ErrProgramTooLarge = errors.New("compiled program too large")

// maxInsts bounds program size after repeat unrolling.
const maxInsts = 1 << 18

// Compile lowers a parsed pattern into an executable program.
func Compile(re *syntax.Regexp, flags syntax.Flags) (*Prog, error) {
	c := &compiler{flags: flags}
	numCap := re.MaxCap() + 1
	c.nextSlot = 2 * numCap

	f, err := c.compile(re)
	if err != nil {
		return nil, err
	}
	end := c.emit(Inst{Op: InstMatch})
	c.patch(f.out, end)

	return &Prog{
		Insts:      c.insts,
		Start:      f.start,
		NumCap:     numCap,
		Names:      re.CapNames(),
		flags:      flags,
		numSlots:   c.nextSlot,
		hasBackref: re.HasBackref(),
		minWidth:   minWidth(re),
	}, nil
}

// frag is a program fragment: an entry point and the dangling exits
// still waiting to be patched to a successor.
type frag struct {
	start uint32
	out   []patchRef
}

// patchRef identifies an unpatched successor field of an instruction.
type patchRef struct {
	pc  uint32
	alt bool
}

type compiler struct {
	insts    []Inst
	flags    syntax.Flags
	nextSlot int
	err      error
}

func (c *compiler) emit(in Inst) uint32 {
	pc := uint32(len(c.insts))
	c.insts = append(c.insts, in)
	if len(c.insts) > maxInsts && c.err == nil {
		c.err = ErrProgramTooLarge
	}
	return pc
}

func (c *compiler) patch(refs []patchRef, to uint32) {
	for _, ref := range refs {
		if ref.alt {
			c.insts[ref.pc].Alt = to
		} else {
			c.insts[ref.pc].Out = to
		}
	}
}

func (c *compiler) compile(re *syntax.Regexp) (frag, error) {
	if c.err != nil {
		return frag{}, c.err
	}
	switch re.Op {
	case syntax.OpEmpty:
		pc := c.emit(Inst{Op: InstJump})
		return frag{start: pc, out: []patchRef{{pc, false}}}, c.err

	case syntax.OpLiteral:
		var f frag
		for i, r := range re.Runes {
			pc := c.emit(Inst{Op: InstRune, Rune: r})
			if i == 0 {
				f.start = pc
			} else {
				c.patch(f.out, pc)
			}
			f.out = []patchRef{{pc, false}}
		}
		if len(re.Runes) == 0 {
			pc := c.emit(Inst{Op: InstJump})
			f = frag{start: pc, out: []patchRef{{pc, false}}}
		}
		return f, c.err

	case syntax.OpCharClass:
		pc := c.emit(Inst{Op: InstClass, Class: re.Class})
		return frag{start: pc, out: []patchRef{{pc, false}}}, c.err

	case syntax.OpAnyChar:
		op := InstAny
		if c.flags&syntax.DotAll != 0 {
			op = InstAnyNL
		}
		pc := c.emit(Inst{Op: op})
		return frag{start: pc, out: []patchRef{{pc, false}}}, c.err

	case syntax.OpBeginText, syntax.OpEndText, syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		pc := c.emit(Inst{Op: InstAssert, Arg: assertKind(re.Op)})
		return frag{start: pc, out: []patchRef{{pc, false}}}, c.err

	case syntax.OpCapture:
		open := c.emit(Inst{Op: InstSave, Arg: uint32(2 * re.Cap)})
		body, err := c.compile(re.Sub[0])
		if err != nil {
			return frag{}, err
		}
		c.insts[open].Out = body.start
		closing := c.emit(Inst{Op: InstSave, Arg: uint32(2*re.Cap + 1)})
		c.patch(body.out, closing)
		return frag{start: open, out: []patchRef{{closing, false}}}, c.err

	case syntax.OpConcat:
		var f frag
		for i, sub := range re.Sub {
			sf, err := c.compile(sub)
			if err != nil {
				return frag{}, err
			}
			if i == 0 {
				f.start = sf.start
			} else {
				c.patch(f.out, sf.start)
			}
			f.out = sf.out
		}
		return f, c.err

	case syntax.OpAlternate:
		var f frag
		var lastSplit uint32
		for i, sub := range re.Sub {
			if i < len(re.Sub)-1 {
				split := c.emit(Inst{Op: InstSplit})
				if i == 0 {
					f.start = split
				} else {
					c.insts[lastSplit].Alt = split
				}
				sf, err := c.compile(sub)
				if err != nil {
					return frag{}, err
				}
				c.insts[split].Out = sf.start
				f.out = append(f.out, sf.out...)
				lastSplit = split
			} else {
				sf, err := c.compile(sub)
				if err != nil {
					return frag{}, err
				}
				if i == 0 {
					f.start = sf.start
				} else {
					c.insts[lastSplit].Alt = sf.start
				}
				f.out = append(f.out, sf.out...)
			}
		}
		return f, c.err

	case syntax.OpRepeat:
		return c.compileRepeat(re)

	case syntax.OpBackref:
		pc := c.emit(Inst{Op: InstBackref, Arg: uint32(re.Ref)})
		return frag{start: pc, out: []patchRef{{pc, false}}}, c.err
	}
	return frag{}, errors.New("vm: unknown syntax op")
}

func assertKind(op syntax.Op) uint32 {
	switch op {
	case syntax.OpBeginText:
		return AssertBeginText
	case syntax.OpEndText:
		return AssertEndText
	case syntax.OpBeginLine:
		return AssertBeginLine
	case syntax.OpEndLine:
		return AssertEndLine
	case syntax.OpWordBoundary:
		return AssertWordBoundary
	}
	return AssertNoWordBoundary
}

// compileRepeat lowers x{min,max}. Unbounded tails become loops;
// bounded parts are unrolled. Loops whose body can match the empty
// string carry a progress check so an empty iteration exits the loop
// instead of spinning.
func (c *compiler) compileRepeat(re *syntax.Regexp) (frag, error) {
	sub := re.Sub[0]
	min, max := re.Min, re.Max

	if max == 0 {
		pc := c.emit(Inst{Op: InstJump})
		return frag{start: pc, out: []patchRef{{pc, false}}}, c.err
	}

	var f frag
	started := false
	link := func(sf frag) {
		if !started {
			f.start = sf.start
			started = true
		} else {
			c.patch(f.out, sf.start)
		}
		f.out = sf.out
	}

	// mandatory prefix: min copies (the last one is folded into the
	// loop for unbounded repeats)
	prefix := min
	if max < 0 && min > 0 {
		prefix = min - 1
	}
	for i := 0; i < prefix; i++ {
		sf, err := c.compile(sub)
		if err != nil {
			return frag{}, err
		}
		link(sf)
	}

	if max < 0 {
		var lf frag
		var err error
		if min > 0 {
			lf, err = c.compilePlus(sub, re.Greedy)
		} else {
			lf, err = c.compileStar(sub, re.Greedy)
		}
		if err != nil {
			return frag{}, err
		}
		link(lf)
		return f, c.err
	}

	// optional suffix: (max-min) nested optionals
	if max > min {
		opt, err := c.compileOptionals(sub, max-min, re.Greedy)
		if err != nil {
			return frag{}, err
		}
		link(opt)
	}
	if !started {
		pc := c.emit(Inst{Op: InstJump})
		f = frag{start: pc, out: []patchRef{{pc, false}}}
	}
	return f, c.err
}

// compileStar lowers x* (greedy) or x*? (lazy).
func (c *compiler) compileStar(sub *syntax.Regexp, greedy bool) (frag, error) {
	guarded := minWidth(sub) == 0

	split := c.emit(Inst{Op: InstSplit})
	entry := split

	bodyStart, bodyEnd, err := c.compileLoopBody(sub, guarded)
	if err != nil {
		return frag{}, err
	}

	out := []patchRef{{split, greedy}}
	if greedy {
		c.insts[split].Out = bodyStart
	} else {
		c.insts[split].Alt = bodyStart
	}
	if guarded {
		// progress made: back to the split; none: exit the loop
		c.insts[bodyEnd].Out = split
		out = append(out, patchRef{bodyEnd, true})
	} else {
		c.insts[bodyEnd].Out = split
	}
	return frag{start: entry, out: out}, c.err
}

// compilePlus lowers x+ (greedy) or x+? (lazy).
func (c *compiler) compilePlus(sub *syntax.Regexp, greedy bool) (frag, error) {
	guarded := minWidth(sub) == 0

	bodyStart, bodyEnd, err := c.compileLoopBody(sub, guarded)
	if err != nil {
		return frag{}, err
	}
	split := c.emit(Inst{Op: InstSplit})

	var out []patchRef
	if greedy {
		c.insts[split].Out = bodyStart
		out = append(out, patchRef{split, true})
	} else {
		c.insts[split].Alt = bodyStart
		out = append(out, patchRef{split, false})
	}
	if guarded {
		c.insts[bodyEnd].Out = split
		out = append(out, patchRef{bodyEnd, true})
	} else {
		c.insts[bodyEnd].Out = split
	}
	return frag{start: bodyStart, out: out}, c.err
}

// compileLoopBody emits the body of a repeat loop. When guarded, the
// body is bracketed by a mark save and a progress check; bodyEnd is the
// pc whose Out must be patched to the loop continuation (and, when
// guarded, whose Alt is the empty-iteration exit).
func (c *compiler) compileLoopBody(sub *syntax.Regexp, guarded bool) (bodyStart, bodyEnd uint32, err error) {
	if !guarded {
		bf, err := c.compile(sub)
		if err != nil {
			return 0, 0, err
		}
		join := c.emit(Inst{Op: InstJump})
		c.patch(bf.out, join)
		return bf.start, join, c.err
	}

	slot := c.nextSlot
	c.nextSlot++
	mark := c.emit(Inst{Op: InstSave, Arg: uint32(slot)})
	bf, err2 := c.compile(sub)
	if err2 != nil {
		return 0, 0, err2
	}
	c.insts[mark].Out = bf.start
	prog := c.emit(Inst{Op: InstProgress, Arg: uint32(slot)})
	c.patch(bf.out, prog)
	return mark, prog, c.err
}

// compileOptionals lowers x{0,n} as n right-nested optionals.
func (c *compiler) compileOptionals(sub *syntax.Regexp, n int, greedy bool) (frag, error) {
	if n == 0 {
		pc := c.emit(Inst{Op: InstJump})
		return frag{start: pc, out: []patchRef{{pc, false}}}, c.err
	}

	split := c.emit(Inst{Op: InstSplit})
	bf, err := c.compile(sub)
	if err != nil {
		return frag{}, err
	}
	inner, err := c.compileOptionals(sub, n-1, greedy)
	if err != nil {
		return frag{}, err
	}
	c.patch(bf.out, inner.start)

	out := make([]patchRef, 0, len(inner.out)+1)
	out = append(out, inner.out...)
	if greedy {
		c.insts[split].Out = bf.start
		out = append(out, patchRef{split, true})
	} else {
		c.insts[split].Alt = bf.start
		out = append(out, patchRef{split, false})
	}
	return frag{start: split, out: out}, c.err
}

// minWidth returns the minimum number of runes re must consume.
// Backreferences count as zero since the referenced text may be empty.
func minWidth(re *syntax.Regexp) int {
	switch re.Op {
	case syntax.OpLiteral:
		return len(re.Runes)
	case syntax.OpCharClass, syntax.OpAnyChar:
		return 1
	case syntax.OpCapture:
		return minWidth(re.Sub[0])
	case syntax.OpConcat:
		n := 0
		for _, sub := range re.Sub {
			n += minWidth(sub)
		}
		return n
	case syntax.OpAlternate:
		n := -1
		for _, sub := range re.Sub {
			if w := minWidth(sub); n < 0 || w < n {
				n = w
			}
		}
		if n < 0 {
			n = 0
		}
		return n
	case syntax.OpRepeat:
		return re.Min * minWidth(re.Sub[0])
	}
	return 0
}
