package syntax

import "fmt"

// ErrorCode identifies the kind of pattern compilation failure.
type ErrorCode string

const (
	// ErrInvalidCharClass indicates a malformed character class
	ErrInvalidCharClass ErrorCode = "invalid character class"

	// ErrInvalidCharRange indicates a reversed range like [z-a]
	ErrInvalidCharRange ErrorCode = "invalid character class range"

	// ErrInvalidEscape indicates an unrecognized escape sequence
	ErrInvalidEscape ErrorCode = "invalid escape sequence"

	// ErrInvalidNamedCapture indicates a malformed or duplicate group name
	ErrInvalidNamedCapture ErrorCode = "invalid named capture"

	// ErrInvalidRepeatOp indicates a doubled quantifier like a**
	ErrInvalidRepeatOp ErrorCode = "invalid nested repetition"

	// ErrInvalidRepeatSize indicates {n,m} with n > m or a count above the limit
	ErrInvalidRepeatSize ErrorCode = "invalid repeat count"

	// ErrMissingBracket indicates an unterminated character class
	ErrMissingBracket ErrorCode = "missing closing ]"

	// ErrMissingParen indicates an unterminated group
	ErrMissingParen ErrorCode = "missing closing )"

	// ErrMissingRepeatArgument indicates a quantifier with nothing to repeat
	ErrMissingRepeatArgument ErrorCode = "missing argument to repetition"

	// ErrTrailingBackslash indicates a pattern ending in a bare backslash
	ErrTrailingBackslash ErrorCode = "trailing backslash"

	// ErrUnexpectedParen indicates an unmatched )
	ErrUnexpectedParen ErrorCode = "unexpected )"

	// ErrUndefinedGroup indicates a backreference to a group that has not
	// been opened at the point of reference
	ErrUndefinedGroup ErrorCode = "reference to undefined group"

	// ErrUnsupported indicates a recognized but unsupported construct,
	// such as lookahead assertions
	ErrUnsupported ErrorCode = "unsupported construct"
)

// Error is a pattern compilation error.
// Pos is the rune offset into the pattern where the error was detected,
// and Expr is the offending fragment of the pattern.
type Error struct {
	Code ErrorCode
	Expr string
	Pos  int
}

func (e *Error) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("error parsing pattern: %s: `%s` at position %d", e.Code, e.Expr, e.Pos)
	}
	return fmt.Sprintf("error parsing pattern: %s at position %d", e.Code, e.Pos)
}
