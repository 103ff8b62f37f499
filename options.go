package regexkit

import "github.com/coregx/regexkit/syntax"

// Options is a set of flags fixed at pattern compilation.
// Options values combine with bitwise or.
type Options = syntax.Flags

const (
	// CaseInsensitive matches with Unicode simple case folding.
	CaseInsensitive Options = syntax.FoldCase

	// AllowCommentsAndWhitespace ignores unescaped whitespace in the
	// pattern and treats # as starting a comment to end of line,
	// except inside character classes.
	AllowCommentsAndWhitespace Options = syntax.AllowComments

	// IgnoreMetacharacters treats the whole pattern as a literal string.
	IgnoreMetacharacters Options = syntax.Literal

	// DotMatchesLineSeparators lets . match line separators.
	DotMatchesLineSeparators Options = syntax.DotAll

	// AnchorsMatchLines lets ^ and $ match at line boundaries in
	// addition to the bounds of the search range.
	AnchorsMatchLines Options = syntax.Multiline

	// UseUnixLineSeparators restricts the line separator set to '\n'.
	// The default set is {'\n', '\r', U+0085, U+2028, U+2029}, with
	// "\r\n" treated as a single boundary.
	UseUnixLineSeparators Options = syntax.UnixLines
)

// MatchOptions is a set of flags applied per search call.
type MatchOptions uint32

const (
	// Anchored requires a match to begin exactly at the position the
	// search starts from.
	Anchored MatchOptions = 1 << iota
)
