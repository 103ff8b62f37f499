package syntax

import (
	"unicode"
)

// Repeat counts above this limit are rejected, matching the stdlib cap.
const maxRepeatCount = 1000

// Parse parses a regular expression pattern into its syntax tree.
//
// On failure it returns a *Error and no tree; a pattern never yields a
// partially usable result.
func Parse(pattern string, flags Flags) (*Regexp, error) {
	src := []rune(pattern)

	if flags&Literal != 0 {
		return literalTree(src), nil
	}

	p := &parser{
		src:   src,
		flags: flags,
		names: make(map[string]int),
	}
	re, err := p.parseAlternate()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		// parseAlternate stops at ')'; anything left is unbalanced.
		return nil, p.errorAt(ErrUnexpectedParen, ")", p.pos)
	}
	return re, nil
}

// literalTree builds the tree for a pattern compiled in literal mode:
// one literal run, no metacharacters.
func literalTree(src []rune) *Regexp {
	if len(src) == 0 {
		return &Regexp{Op: OpEmpty}
	}
	runes := make([]rune, len(src))
	copy(runes, src)
	return &Regexp{Op: OpLiteral, Runes: runes}
}

type parser struct {
	src    []rune
	pos    int
	flags  Flags
	numCap int
	names  map[string]int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() rune {
	return p.src[p.pos]
}

func (p *parser) errorAt(code ErrorCode, expr string, pos int) *Error {
	return &Error{Code: code, Expr: expr, Pos: pos}
}

// skipSpace consumes ignorable whitespace and #-comments in
// free-spacing mode. It is a no-op otherwise.
func (p *parser) skipSpace() {
	if p.flags&AllowComments == 0 {
		return
	}
	for !p.eof() {
		c := p.peek()
		switch {
		case unicode.IsSpace(c):
			p.pos++
		case c == '#':
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

// parseAlternate parses a sequence of concatenations separated by '|'.
func (p *parser) parseAlternate() (*Regexp, error) {
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	if p.eof() || p.peek() != '|' {
		return first, nil
	}

	subs := []*Regexp{first}
	for !p.eof() && p.peek() == '|' {
		p.pos++
		sub, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return &Regexp{Op: OpAlternate, Sub: subs}, nil
}

// parseConcat parses a run of quantified atoms up to '|', ')' or end.
func (p *parser) parseConcat() (*Regexp, error) {
	var subs []*Regexp
	for {
		p.skipSpace()
		if p.eof() || p.peek() == '|' || p.peek() == ')' {
			break
		}
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		atom, err = p.parseRepeat(atom)
		if err != nil {
			return nil, err
		}
		subs = appendAtom(subs, atom)
	}
	switch len(subs) {
	case 0:
		return &Regexp{Op: OpEmpty}, nil
	case 1:
		return subs[0], nil
	}
	return &Regexp{Op: OpConcat, Sub: subs}, nil
}

// appendAtom appends atom to subs, merging adjacent unquantified
// literal runs into a single node.
func appendAtom(subs []*Regexp, atom *Regexp) []*Regexp {
	if atom.Op == OpLiteral && len(subs) > 0 {
		last := subs[len(subs)-1]
		if last.Op == OpLiteral {
			last.Runes = append(last.Runes, atom.Runes...)
			return subs
		}
	}
	return append(subs, atom)
}

// parseRepeat applies any quantifier following an atom.
func (p *parser) parseRepeat(sub *Regexp) (*Regexp, error) {
	for {
		p.skipSpace()
		if p.eof() {
			return sub, nil
		}
		start := p.pos
		var min, max int
		switch p.peek() {
		case '*':
			min, max = 0, -1
			p.pos++
		case '+':
			min, max = 1, -1
			p.pos++
		case '?':
			min, max = 0, 1
			p.pos++
		case '{':
			var ok bool
			min, max, ok = p.tryParseCounts()
			if !ok {
				// Not a valid counted repeat; '{' is a literal and
				// will be consumed by the caller on the next atom.
				return sub, nil
			}
			if min > maxRepeatCount || (max >= 0 && max > maxRepeatCount) || (max >= 0 && min > max) {
				return nil, p.errorAt(ErrInvalidRepeatSize, string(p.src[start:p.pos]), start)
			}
		default:
			return sub, nil
		}

		if sub.Op == OpRepeat {
			return nil, p.errorAt(ErrInvalidRepeatOp, string(p.src[start:p.pos]), start)
		}

		greedy := true
		p.skipSpace()
		if !p.eof() && p.peek() == '?' {
			greedy = false
			p.pos++
		}
		sub = &Regexp{Op: OpRepeat, Min: min, Max: max, Greedy: greedy, Sub: []*Regexp{sub}}
	}
}

// tryParseCounts parses {n}, {n,} or {n,m} starting at '{'.
// It consumes input only on success.
func (p *parser) tryParseCounts() (min, max int, ok bool) {
	save := p.pos
	p.pos++ // '{'

	min, ok = p.parseInt()
	if !ok {
		p.pos = save
		return 0, 0, false
	}
	max = min
	if !p.eof() && p.peek() == ',' {
		p.pos++
		if !p.eof() && p.peek() == '}' {
			max = -1
		} else {
			max, ok = p.parseInt()
			if !ok {
				p.pos = save
				return 0, 0, false
			}
		}
	}
	if p.eof() || p.peek() != '}' {
		p.pos = save
		return 0, 0, false
	}
	p.pos++
	return min, max, true
}

func (p *parser) parseInt() (int, bool) {
	start := p.pos
	n := 0
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		n = n*10 + int(p.peek()-'0')
		if n > 10*maxRepeatCount {
			n = 10 * maxRepeatCount // clamp; the caller rejects it anyway
		}
		p.pos++
	}
	return n, p.pos > start
}

// parseAtom parses a single atom: a literal, class, group, anchor or
// escape. The caller has already skipped ignorable whitespace.
func (p *parser) parseAtom() (*Regexp, error) {
	start := p.pos
	c := p.peek()
	switch c {
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseClass()
	case '.':
		p.pos++
		return &Regexp{Op: OpAnyChar}, nil
	case '^':
		p.pos++
		if p.flags&Multiline != 0 {
			return &Regexp{Op: OpBeginLine}, nil
		}
		return &Regexp{Op: OpBeginText}, nil
	case '$':
		p.pos++
		if p.flags&Multiline != 0 {
			return &Regexp{Op: OpEndLine}, nil
		}
		return &Regexp{Op: OpEndText}, nil
	case '\\':
		return p.parseEscape()
	case '*', '+', '?':
		return nil, p.errorAt(ErrMissingRepeatArgument, string(c), start)
	case '{':
		if _, _, ok := p.tryParseCounts(); ok {
			return nil, p.errorAt(ErrMissingRepeatArgument, string(p.src[start:p.pos]), start)
		}
		p.pos++
		return &Regexp{Op: OpLiteral, Runes: []rune{c}}, nil
	default:
		p.pos++
		return &Regexp{Op: OpLiteral, Runes: []rune{c}}, nil
	}
}

// parseGroup parses a parenthesized group. The '(?' extensions handled
// are non-capturing groups, named captures and inline comments;
// lookaround and inline flags are recognized but unsupported.
func (p *parser) parseGroup() (*Regexp, error) {
	start := p.pos
	p.pos++ // '('

	capturing := true
	name := ""
	if !p.eof() && p.peek() == '?' {
		p.pos++
		if p.eof() {
			return nil, p.errorAt(ErrMissingParen, "(?", start)
		}
		switch p.peek() {
		case ':':
			p.pos++
			capturing = false
		case 'P', '<':
			if p.peek() == 'P' {
				p.pos++
			}
			if p.eof() || p.peek() != '<' {
				return nil, p.errorAt(ErrInvalidNamedCapture, string(p.src[start:p.pos]), start)
			}
			p.pos++
			if !p.eof() && (p.peek() == '=' || p.peek() == '!') {
				// lookbehind
				return nil, p.errorAt(ErrUnsupported, string(p.src[start:p.pos+1]), start)
			}
			var err error
			name, err = p.parseGroupName(start)
			if err != nil {
				return nil, err
			}
		case '#':
			// inline comment: (?#...)
			for !p.eof() && p.peek() != ')' {
				p.pos++
			}
			if p.eof() {
				return nil, p.errorAt(ErrMissingParen, string(p.src[start:]), start)
			}
			p.pos++
			return &Regexp{Op: OpEmpty}, nil
		case '=', '!':
			return nil, p.errorAt(ErrUnsupported, string(p.src[start:p.pos+1]), start)
		default:
			return nil, p.errorAt(ErrUnsupported, string(p.src[start:p.pos+1]), start)
		}
	}

	index := 0
	if capturing {
		p.numCap++
		index = p.numCap
		if name != "" {
			if _, dup := p.names[name]; dup {
				return nil, p.errorAt(ErrInvalidNamedCapture, name, start)
			}
			p.names[name] = index
		}
	}

	body, err := p.parseAlternate()
	if err != nil {
		return nil, err
	}
	if p.eof() || p.peek() != ')' {
		return nil, p.errorAt(ErrMissingParen, string(p.src[start:]), start)
	}
	p.pos++

	if !capturing {
		return body, nil
	}
	return &Regexp{Op: OpCapture, Cap: index, Name: name, Sub: []*Regexp{body}}, nil
}

// parseGroupName reads a group name up to '>'. Names are word
// characters only and must not be empty.
func (p *parser) parseGroupName(start int) (string, error) {
	nameStart := p.pos
	for !p.eof() && p.peek() != '>' {
		c := p.peek()
		if !isWordRune(c) {
			return "", p.errorAt(ErrInvalidNamedCapture, string(c), p.pos)
		}
		p.pos++
	}
	if p.eof() || p.pos == nameStart {
		return "", p.errorAt(ErrInvalidNamedCapture, string(p.src[start:p.pos]), start)
	}
	name := string(p.src[nameStart:p.pos])
	p.pos++ // '>'
	return name, nil
}

// parseEscape parses an escape sequence outside a character class.
func (p *parser) parseEscape() (*Regexp, error) {
	start := p.pos
	p.pos++ // '\'
	if p.eof() {
		return nil, p.errorAt(ErrTrailingBackslash, "", start)
	}
	c := p.peek()

	// Backreferences: \1 .. \99.
	if c >= '1' && c <= '9' {
		n, _ := p.parseInt()
		if n > p.numCap {
			return nil, p.errorAt(ErrUndefinedGroup, string(p.src[start:p.pos]), start)
		}
		return &Regexp{Op: OpBackref, Ref: n}, nil
	}

	p.pos++
	switch c {
	case 'k':
		// named backreference: \k<name>
		if p.eof() || p.peek() != '<' {
			return nil, p.errorAt(ErrInvalidEscape, string(p.src[start:p.pos]), start)
		}
		p.pos++
		name, err := p.parseGroupName(start)
		if err != nil {
			return nil, err
		}
		index, defined := p.names[name]
		if !defined {
			return nil, p.errorAt(ErrUndefinedGroup, name, start)
		}
		return &Regexp{Op: OpBackref, Ref: index, Name: name}, nil
	case 'A':
		return &Regexp{Op: OpBeginText}, nil
	case 'z':
		return &Regexp{Op: OpEndText}, nil
	case 'b':
		return &Regexp{Op: OpWordBoundary}, nil
	case 'B':
		return &Regexp{Op: OpNoWordBoundary}, nil
	case 'd', 'D', 'w', 'W', 's', 'S':
		return &Regexp{Op: OpCharClass, Class: perlClass(c)}, nil
	}

	if r, ok, err := p.parseCharEscape(c, start); err != nil {
		return nil, err
	} else if ok {
		return &Regexp{Op: OpLiteral, Runes: []rune{r}}, nil
	}

	// Any other escaped non-word rune matches itself. Escaped letters
	// and digits we do not recognize are reserved, so reject them.
	if isWordRune(c) {
		return nil, p.errorAt(ErrInvalidEscape, string(p.src[start:p.pos]), start)
	}
	return &Regexp{Op: OpLiteral, Runes: []rune{c}}, nil
}

// parseCharEscape handles single-character escapes shared between the
// top level and character classes: control characters, \0 octal, \xHH,
// \x{...} and \uHHHH. The leading backslash and c are already consumed.
func (p *parser) parseCharEscape(c rune, start int) (rune, bool, error) {
	switch c {
	case 'n':
		return '\n', true, nil
	case 'r':
		return '\r', true, nil
	case 't':
		return '\t', true, nil
	case 'f':
		return '\f', true, nil
	case 'v':
		return '\v', true, nil
	case 'a':
		return '\a', true, nil
	case '0':
		// \0 followed by up to two octal digits
		r := rune(0)
		for i := 0; i < 2 && !p.eof() && p.peek() >= '0' && p.peek() <= '7'; i++ {
			r = r*8 + (p.peek() - '0')
			p.pos++
		}
		return r, true, nil
	case 'x':
		if !p.eof() && p.peek() == '{' {
			p.pos++
			r, ok := p.parseHex(6, '}')
			if !ok {
				return 0, false, p.errorAt(ErrInvalidEscape, string(p.src[start:p.pos]), start)
			}
			return r, true, nil
		}
		r, ok := p.parseHex(2, 0)
		if !ok {
			return 0, false, p.errorAt(ErrInvalidEscape, string(p.src[start:p.pos]), start)
		}
		return r, true, nil
	case 'u':
		r, ok := p.parseHex(4, 0)
		if !ok {
			return 0, false, p.errorAt(ErrInvalidEscape, string(p.src[start:p.pos]), start)
		}
		return r, true, nil
	case 'Q', 'E', 'p', 'P', 'Z', 'G':
		return 0, false, p.errorAt(ErrUnsupported, string(p.src[start:p.pos]), start)
	}
	return 0, false, nil
}

// parseHex reads exactly n hex digits, or up to n digits terminated by
// term when term is nonzero.
func (p *parser) parseHex(n int, term rune) (rune, bool) {
	r := rune(0)
	digits := 0
	for digits < n && !p.eof() {
		c := p.peek()
		var d rune
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			goto done
		}
		r = r*16 + d
		digits++
		p.pos++
	}
done:
	if digits == 0 || r > unicode.MaxRune {
		return 0, false
	}
	if term != 0 {
		if p.eof() || p.peek() != term {
			return 0, false
		}
		p.pos++
	} else if digits != n {
		return 0, false
	}
	return r, true
}

// parseClass parses a [...] character class. A ']' immediately after
// the opening '[' or '[^' is a literal member, not the terminator, so
// "[]a]" is the two-rune class {']', 'a'}.
func (p *parser) parseClass() (*Regexp, error) {
	start := p.pos
	p.pos++ // '['

	cls := &Class{}
	if !p.eof() && p.peek() == '^' {
		cls.Negate = true
		p.pos++
	}
	first := true
	for {
		if p.eof() {
			return nil, p.errorAt(ErrMissingBracket, string(p.src[start:]), start)
		}
		c := p.peek()
		if c == ']' && !first {
			p.pos++
			break
		}
		first = false

		lo, sub, err := p.parseClassAtom(start)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			// embedded class escape like \d; a negated escape such as
			// \D contributes its complement to the enclosing class
			if sub.Negate {
				cls.Ranges = append(cls.Ranges, negateRanges(sub.Ranges)...)
			} else {
				cls.Ranges = append(cls.Ranges, sub.Ranges...)
			}
			continue
		}

		hi := lo
		if !p.eof() && p.peek() == '-' && p.pos+1 < len(p.src) && p.src[p.pos+1] != ']' {
			p.pos++
			rangeStart := p.pos
			hi, sub, err = p.parseClassAtom(start)
			if err != nil {
				return nil, err
			}
			if sub != nil || hi < lo {
				return nil, p.errorAt(ErrInvalidCharRange, string(p.src[rangeStart-2:p.pos]), rangeStart-2)
			}
		}
		cls.Ranges = append(cls.Ranges, ClassRange{Lo: lo, Hi: hi})
	}

	if len(cls.Ranges) == 0 {
		return nil, p.errorAt(ErrInvalidCharClass, string(p.src[start:p.pos]), start)
	}
	normalizeClass(cls)
	return &Regexp{Op: OpCharClass, Class: cls}, nil
}

// parseClassAtom parses one class member: a literal rune, a character
// escape, or an embedded class escape (returned as a Class).
func (p *parser) parseClassAtom(classStart int) (rune, *Class, error) {
	c := p.peek()
	if c != '\\' {
		p.pos++
		return c, nil, nil
	}

	escStart := p.pos
	p.pos++
	if p.eof() {
		return 0, nil, p.errorAt(ErrTrailingBackslash, "", escStart)
	}
	c = p.peek()
	p.pos++
	switch c {
	case 'd', 'D', 'w', 'W', 's', 'S':
		return 0, perlClass(c), nil
	case 'b':
		// inside a class, \b is backspace
		return '\b', nil, nil
	}
	if r, ok, err := p.parseCharEscape(c, escStart); err != nil {
		return 0, nil, err
	} else if ok {
		return r, nil, nil
	}
	if isWordRune(c) {
		return 0, nil, p.errorAt(ErrInvalidEscape, string(p.src[escStart:p.pos]), escStart)
	}
	return c, nil, nil
}

// normalizeClass sorts and merges overlapping ranges in place.
func normalizeClass(cls *Class) {
	ranges := cls.Ranges
	// insertion sort; classes are small
	for i := 1; i < len(ranges); i++ {
		for j := i; j > 0 && ranges[j].Lo < ranges[j-1].Lo; j-- {
			ranges[j], ranges[j-1] = ranges[j-1], ranges[j]
		}
	}
	merged := ranges[:0]
	for _, r := range ranges {
		if n := len(merged); n > 0 && r.Lo <= merged[n-1].Hi+1 {
			if r.Hi > merged[n-1].Hi {
				merged[n-1].Hi = r.Hi
			}
			continue
		}
		merged = append(merged, r)
	}
	cls.Ranges = merged
}

// negateRanges returns the complement of sorted, disjoint ranges over
// the full rune space.
func negateRanges(ranges []ClassRange) []ClassRange {
	out := make([]ClassRange, 0, len(ranges)+1)
	next := rune(0)
	for _, r := range ranges {
		if r.Lo > next {
			out = append(out, ClassRange{Lo: next, Hi: r.Lo - 1})
		}
		next = r.Hi + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, ClassRange{Lo: next, Hi: unicode.MaxRune})
	}
	return out
}

// perlClass returns the class for \d, \w, \s and their negations.
// \d and \w use the conventional ASCII sets; \s adds NEL, NBSP and the
// Unicode line/paragraph separators to the ASCII whitespace set.
func perlClass(c rune) *Class {
	switch c {
	case 'd':
		return &Class{Ranges: []ClassRange{{'0', '9'}}}
	case 'D':
		return &Class{Ranges: []ClassRange{{'0', '9'}}, Negate: true}
	case 'w':
		return &Class{Ranges: wordRanges()}
	case 'W':
		return &Class{Ranges: wordRanges(), Negate: true}
	case 's':
		return &Class{Ranges: spaceRanges()}
	case 'S':
		return &Class{Ranges: spaceRanges(), Negate: true}
	}
	return nil
}

func wordRanges() []ClassRange {
	return []ClassRange{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}
}

func spaceRanges() []ClassRange {
	return []ClassRange{{'\t', '\r'}, {' ', ' '}, {0x85, 0x85}, {0xA0, 0xA0}, {0x2028, 0x2029}}
}

// isWordRune reports whether r is a word character for the pattern
// grammar (group names, reserved escapes).
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
