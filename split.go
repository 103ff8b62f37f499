package regexkit

// Split slices text into the pieces strictly between consecutive
// matches, scanning the full text.
//
// With zero matches the result is the whole text in a single element.
// A match at position 0 produces a leading empty piece, and a match
// ending at text end produces a trailing empty piece, so joining the
// pieces with the matched separators always reconstructs text exactly.
//
// Example:
//
//	re := regexkit.MustCompile(`\s+`, 0)
//	re.Split("a   b c") // ["a", "b", "c"]
func (re *Regexp) Split(text string) []string {
	runes := []rune(text)
	it := re.iter(runes, 0, fullRange(runes))

	var pieces []string
	last := 0
	for {
		m, ok := it.Next()
		if !ok {
			break
		}
		pieces = append(pieces, string(runes[last:m.Range.Start]))
		last = m.Range.End
	}
	pieces = append(pieces, string(runes[last:]))
	return pieces
}
