package regexkit

import "strings"

// ReplaceMatches returns a copy of text with every match replaced by
// the expansion of template.
//
// Template syntax:
//   - $0 substitutes the whole match, $1..$N the numbered groups
//   - ${n} and ${name} give explicit boundaries and named groups
//   - $$ is a literal dollar sign; a backslash escapes the next rune
//
// A group that did not participate substitutes the empty string.
// Replacements use the original text's positions; replacement output is
// never re-scanned.
//
// Example:
//
//	re := regexkit.MustCompile(`(\d+)`, 0)
//	re.ReplaceMatches("x12y34", "[$1]") // "x[12]y[34]"
func (re *Regexp) ReplaceMatches(text, template string) string {
	runes := []rune(text)
	return re.replaceIn(runes, 0, fullRange(runes), template)
}

// ReplaceMatchesIn is ReplaceMatches restricted to r, honoring mopts.
// Text outside r is preserved unchanged.
func (re *Regexp) ReplaceMatchesIn(text string, mopts MatchOptions, r Range, template string) string {
	runes := []rune(text)
	return re.replaceIn(runes, mopts, clampRange(r, len(runes)), template)
}

func (re *Regexp) replaceIn(runes []rune, mopts MatchOptions, bounds Range, template string) string {
	segs := re.parseTemplate(template)

	var b strings.Builder
	b.WriteString(string(runes[:bounds.Start]))

	last := bounds.Start
	it := re.iter(runes, mopts, bounds)
	for {
		m, ok := it.Next()
		if !ok {
			break
		}
		b.WriteString(string(runes[last:m.Range.Start]))
		expand(&b, segs, runes, m)
		last = m.Range.End
	}
	b.WriteString(string(runes[last:]))
	return b.String()
}

// segment is one piece of a parsed replacement template: literal text,
// or a capture reference by index.
type segment struct {
	lit   string
	group int // -1 for literal segments
}

// parseTemplate splits a replacement template into literal and
// capture-reference segments. Unknown group names and out-of-range
// indices become empty substitutions, mirroring the treatment of
// non-participating groups.
func (re *Regexp) parseTemplate(template string) []segment {
	var segs []segment
	var lit []rune

	flushLit := func() {
		if len(lit) > 0 {
			segs = append(segs, segment{lit: string(lit), group: -1})
			lit = lit[:0]
		}
	}

	src := []rune(template)
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			i++
			lit = append(lit, src[i])

		case c == '$' && i+1 < len(src) && src[i+1] == '$':
			i++
			lit = append(lit, '$')

		case c == '$' && i+1 < len(src) && src[i+1] == '{':
			end := i + 2
			for end < len(src) && src[end] != '}' {
				end++
			}
			if end == len(src) {
				lit = append(lit, c)
				continue
			}
			flushLit()
			segs = append(segs, segment{group: re.resolveGroup(string(src[i+2 : end]))})
			i = end

		case c == '$' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			j := i + 1
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			// take the longest digit run naming an existing group
			n, end := -1, j
			for end > i+1 {
				v := atoi(src[i+1 : end])
				if v < re.prog.NumCap {
					n = v
					break
				}
				end--
			}
			flushLit()
			if n >= 0 {
				segs = append(segs, segment{group: n})
				i = end - 1
			} else {
				// no such group: the whole reference substitutes empty
				i = j - 1
			}

		default:
			lit = append(lit, c)
		}
	}
	flushLit()
	return segs
}

// resolveGroup maps a ${...} reference to a group index, or -2 (empty
// substitution) when it names nothing.
func (re *Regexp) resolveGroup(ref string) int {
	if ref == "" {
		return -2
	}
	digits := true
	for _, c := range ref {
		if c < '0' || c > '9' {
			digits = false
			break
		}
	}
	if digits {
		if n := atoi([]rune(ref)); n < re.prog.NumCap {
			return n
		}
		return -2
	}
	if n, ok := re.names[ref]; ok {
		return n
	}
	return -2
}

func atoi(digits []rune) int {
	n := 0
	for _, c := range digits {
		n = n*10 + int(c-'0')
		if n > 1<<20 {
			return n
		}
	}
	return n
}

func expand(b *strings.Builder, segs []segment, runes []rune, m Match) {
	for _, seg := range segs {
		if seg.group < 0 {
			b.WriteString(seg.lit)
			continue
		}
		if g := m.Group(seg.group); g.IsValid() {
			b.WriteString(string(runes[g.Start:g.End]))
		}
	}
}
