package vm

import (
	"errors"
	"unicode"

	"github.com/coregx/regexkit/syntax"
)

// ErrStepLimit indicates a search was aborted because backtracking
// exceeded the step budget. The caller may retry with a smaller range
// or a larger budget.
var ErrStepLimit = errors.New("backtracking step limit exceeded")

// maxVisitedBits caps the memory spent on the visited bitmap.
// 256KB, matching the bounded-backtracker budget this engine grew from.
const maxVisitedBits = 256 * 1024 * 8

// DefaultStepLimit returns the default step budget for an input of n
// runes. It is generous for honest patterns and still bounds
// pathological backtracking to well under a second.
func DefaultStepLimit(n int) int64 {
	return 1<<20 + int64(n)*1000
}

// Candidates supplies plausible match start positions, letting the
// search loop skip offsets a prefilter has ruled out. Implementations
// must never skip a real match start (false positives are fine).
type Candidates interface {
	Next(text []rune, from int) int
}

// Search runs the program over text[begin:end], trying successive start
// offsets from at. It returns capture slots
// [start0, end0, start1, end1, ...] in rune offsets, with -1 pairs for
// groups that did not participate, or nil if there is no match.
//
// When anchored is set only a match beginning exactly at `at` is
// accepted. cand may be nil. A stepLimit of 0 selects the default
// budget for the input size.
func (p *Prog) Search(text []rune, begin, end, at int, anchored bool, cand Candidates, stepLimit int64) ([]int, error) {
	if at < begin {
		at = begin
	}
	if end > len(text) {
		end = len(text)
	}
	if at > end {
		return nil, nil
	}
	if stepLimit <= 0 {
		stepLimit = DefaultStepLimit(end - at)
	}

	m := p.getMachine()
	defer p.putMachine(m)
	m.init(text, begin, end, stepLimit)

	last := end - p.minWidth
	for start := at; start <= last; start++ {
		if cand != nil && !anchored {
			start = cand.Next(text, start)
			if start < 0 || start > last {
				break
			}
		}
		m.resetAttempt(start)
		endPos, ok, err := m.run(p.Start, start)
		if err != nil {
			return nil, err
		}
		if ok {
			caps := make([]int, 2*p.NumCap)
			copy(caps, m.caps[:2*p.NumCap])
			caps[0] = start
			caps[1] = endPos
			return caps, nil
		}
		if anchored {
			break
		}
	}
	return nil, nil
}

// frame is a backtracking continuation: resume at pc with the input at
// pos and the capture slots restored to caps.
type frame struct {
	pc   uint32
	pos  int
	caps []int
}

type machine struct {
	prog  *Prog
	text  []rune
	begin int
	end   int

	caps  []int
	stack []frame

	steps int64
	limit int64

	// visited tracks (pc, pos) configurations already explored.
	// Pruning them is sound only without backreferences, since capture
	// state is then irrelevant to whether a configuration can succeed.
	// visitBuf is the reusable backing array; visited is nil when
	// memoization is disabled for this search.
	visited     []uint64
	visitBuf    []uint64
	visitStride int

	// free list of capture snapshots recycled across frames
	free [][]int
}

func (p *Prog) getMachine() *machine {
	if v := p.machinePool.Get(); v != nil {
		return v.(*machine)
	}
	return &machine{
		prog: p,
		caps: make([]int, p.numSlots),
	}
}

func (p *Prog) putMachine(m *machine) {
	m.text = nil
	m.stack = m.stack[:0]
	p.machinePool.Put(m)
}

func (m *machine) init(text []rune, begin, end int, limit int64) {
	m.text = text
	m.begin = begin
	m.end = end
	m.steps = 0
	m.limit = limit

	m.visited = nil
	if !m.prog.hasBackref {
		bits := len(m.prog.Insts) * (end - begin + 1)
		if bits <= maxVisitedBits {
			words := (bits + 63) / 64
			if cap(m.visitBuf) >= words {
				m.visitBuf = m.visitBuf[:words]
				for i := range m.visitBuf {
					m.visitBuf[i] = 0
				}
			} else {
				m.visitBuf = make([]uint64, words)
			}
			m.visited = m.visitBuf
			m.visitStride = end - begin + 1
		}
	}
}

func (m *machine) resetAttempt(start int) {
	for i := range m.caps {
		m.caps[i] = -1
	}
	for _, fr := range m.stack {
		m.releaseCaps(fr.caps)
	}
	m.stack = m.stack[:0]
	m.caps[0] = start
}

// shouldVisit marks (pc, pos) and reports whether it was unseen.
// Marks persist across start offsets within one Search call: a
// configuration that failed once cannot succeed later.
func (m *machine) shouldVisit(pc uint32, pos int) bool {
	idx := int(pc)*m.visitStride + (pos - m.begin)
	word, bit := idx/64, uint64(1)<<(idx%64)
	if m.visited[word]&bit != 0 {
		return false
	}
	m.visited[word] |= bit
	return true
}

func (m *machine) snapshotCaps() []int {
	var s []int
	if n := len(m.free); n > 0 {
		s = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		s = make([]int, len(m.caps))
	}
	copy(s, m.caps)
	return s
}

func (m *machine) releaseCaps(s []int) {
	m.free = append(m.free, s)
}

// run executes the program from pc at input position pos, returning the
// match end position on success.
//
//nolint:gocyclo,cyclop // complexity is inherent to instruction dispatch
func (m *machine) run(pc uint32, pos int) (int, bool, error) {
	fold := m.prog.flags&syntax.FoldCase != 0

	for {
		m.steps++
		if m.steps > m.limit {
			return 0, false, ErrStepLimit
		}
		if m.visited != nil && !m.shouldVisit(pc, pos) {
			goto Backtrack
		}

		{
			in := &m.prog.Insts[pc]
			switch in.Op {
			case InstMatch:
				return pos, true, nil

			case InstRune:
				if pos < m.end && runeEqual(m.text[pos], in.Rune, fold) {
					pos++
					pc = in.Out
					continue
				}
				goto Backtrack

			case InstClass:
				if pos < m.end && classMatch(in.Class, m.text[pos], fold) {
					pos++
					pc = in.Out
					continue
				}
				goto Backtrack

			case InstAny:
				if pos < m.end && !m.isLineSep(m.text[pos]) {
					pos++
					pc = in.Out
					continue
				}
				goto Backtrack

			case InstAnyNL:
				if pos < m.end {
					pos++
					pc = in.Out
					continue
				}
				goto Backtrack

			case InstSplit:
				m.stack = append(m.stack, frame{pc: in.Alt, pos: pos, caps: m.snapshotCaps()})
				pc = in.Out
				continue

			case InstJump:
				pc = in.Out
				continue

			case InstSave:
				m.caps[in.Arg] = pos
				pc = in.Out
				continue

			case InstProgress:
				if pos > m.caps[in.Arg] {
					pc = in.Out
				} else {
					pc = in.Alt
				}
				continue

			case InstBackref:
				g := int(in.Arg)
				s, e := m.caps[2*g], m.caps[2*g+1]
				if s < 0 || e < 0 {
					// referenced group has not captured yet
					goto Backtrack
				}
				if pos+(e-s) > m.end {
					goto Backtrack
				}
				for i := s; i < e; i++ {
					if !runeEqual(m.text[pos+i-s], m.text[i], fold) {
						goto Backtrack
					}
				}
				pos += e - s
				pc = in.Out
				continue

			case InstAssert:
				if m.assert(in.Arg, pos) {
					pc = in.Out
					continue
				}
				goto Backtrack
			}
			return 0, false, errors.New("vm: bad instruction")
		}

	Backtrack:
		n := len(m.stack)
		if n == 0 {
			return 0, false, nil
		}
		fr := m.stack[n-1]
		m.stack = m.stack[:n-1]
		pc = fr.pc
		pos = fr.pos
		copy(m.caps, fr.caps)
		m.releaseCaps(fr.caps)
	}
}

func (m *machine) assert(kind uint32, pos int) bool {
	switch kind {
	case AssertBeginText:
		return pos == m.begin
	case AssertEndText:
		return pos == m.end
	case AssertBeginLine:
		return pos == m.begin || m.isLineStart(pos)
	case AssertEndLine:
		return pos == m.end || m.isLineEnd(pos)
	case AssertWordBoundary:
		return m.isWordChar(pos-1) != m.isWordChar(pos)
	case AssertNoWordBoundary:
		return m.isWordChar(pos-1) == m.isWordChar(pos)
	}
	return false
}

// isLineSep reports whether r is a line separator. The default set is
// {'\n', '\r', U+0085, U+2028, U+2029}; UnixLines restricts it to
// '\n'.
func (m *machine) isLineSep(r rune) bool {
	if m.prog.flags&syntax.UnixLines != 0 {
		return r == '\n'
	}
	return r == '\n' || r == '\r' || r == 0x85 || r == 0x2028 || r == 0x2029
}

// isLineStart reports whether pos is just after a line boundary.
// "\r\n" counts as a single boundary: the position between the two
// runes is not a line start.
func (m *machine) isLineStart(pos int) bool {
	if pos <= m.begin || pos > m.end {
		return false
	}
	prev := m.text[pos-1]
	if !m.isLineSep(prev) {
		return false
	}
	if m.prog.flags&syntax.UnixLines == 0 && prev == '\r' && pos < m.end && m.text[pos] == '\n' {
		return false
	}
	return true
}

// isLineEnd reports whether pos is just before a line boundary.
func (m *machine) isLineEnd(pos int) bool {
	if pos < m.begin || pos >= m.end {
		return false
	}
	r := m.text[pos]
	if !m.isLineSep(r) {
		return false
	}
	if m.prog.flags&syntax.UnixLines == 0 && r == '\n' && pos > m.begin && m.text[pos-1] == '\r' {
		return false
	}
	return true
}

// isWordChar reports whether the rune at pos is a word character.
// Positions outside the search range count as non-word.
func (m *machine) isWordChar(pos int) bool {
	if pos < m.begin || pos >= m.end {
		return false
	}
	r := m.text[pos]
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// runeEqual compares two runes, with Unicode simple case folding when
// fold is set.
func runeEqual(a, b rune, fold bool) bool {
	if a == b {
		return true
	}
	if !fold {
		return false
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// classMatch reports whether r is accepted by cls. Under folding, a
// rune is in the class if any member of its fold orbit is in the raw
// ranges; negation applies after folding.
func classMatch(cls *syntax.Class, r rune, fold bool) bool {
	in := cls.InRanges(r)
	if !in && fold {
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			if cls.InRanges(f) {
				in = true
				break
			}
		}
	}
	return in != cls.Negate
}
