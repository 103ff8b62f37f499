// Package regexkit provides a backtracking regular expression engine
// with capture groups, backreferences and codepoint-indexed ranges.
//
// Unlike Thompson-construction engines, regexkit supports
// backreferences (\1, \k<name>), at the cost of worst-case exponential
// search. Two guards keep that bounded: revisited configurations are
// pruned whenever the pattern has no backreferences, and every search
// carries a step budget that aborts pathological backtracking with
// ErrStepLimit instead of hanging.
//
// All positions in the public API are rune (Unicode codepoint) offsets
// into the text, never byte offsets, so ranges can never split an
// encoded character.
//
// Basic usage:
//
//	re, err := regexkit.Compile(`(\w+)@(\w+)`, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rows := re.Matches("ann@home bob@work")
//	// rows[0] = ["ann@home", "ann", "home"]
//	// rows[1] = ["bob@work", "bob", "work"]
//
// Matching options:
//
//	re, _ := regexkit.Compile(`^item`, regexkit.CaseInsensitive|regexkit.AnchorsMatchLines)
//	n := re.NumberOfMatches("Item 1\nitem 2")
//	// n == 2
//
// A compiled Regexp is immutable and safe for concurrent use from
// multiple goroutines; per-search state is pooled internally.
package regexkit

import (
	"github.com/coregx/regexkit/prefilter"
	"github.com/coregx/regexkit/syntax"
	"github.com/coregx/regexkit/vm"
)

// Regexp is a compiled regular expression.
//
// Example:
//
//	re := regexkit.MustCompile(`\d+`, 0)
//	if re.MatchString("agent 007") {
//	    println("matched!")
//	}
type Regexp struct {
	pattern string
	opts    Options
	config  Config
	prog    *vm.Prog
	pf      prefilter.Prefilter
	names   map[string]int
}

// Config tunes search behavior for a compiled pattern.
type Config struct {
	// StepLimit is the per-call backtracking step budget.
	// Zero selects a default that scales with input length.
	StepLimit int64
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{}
}

// Compile compiles a pattern with the given options.
//
// It returns a *syntax.Error describing the failure for invalid
// patterns; no usable Regexp is ever returned alongside an error.
//
// Example:
//
//	re, err := regexkit.Compile(`(\d+)-(\d+)`, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string, opts Options) (*Regexp, error) {
	return CompileWithConfig(pattern, opts, DefaultConfig())
}

// CompileWithConfig compiles a pattern with custom search configuration.
//
// Example:
//
//	config := regexkit.DefaultConfig()
//	config.StepLimit = 1 << 16
//	re, err := regexkit.CompileWithConfig(`(a|aa)+$`, 0, config)
func CompileWithConfig(pattern string, opts Options, config Config) (*Regexp, error) {
	tree, err := syntax.Parse(pattern, opts)
	if err != nil {
		return nil, err
	}
	prog, err := vm.Compile(tree, opts)
	if err != nil {
		return nil, err
	}

	names := make(map[string]int)
	for i, name := range prog.Names {
		if name != "" {
			names[name] = i
		}
	}

	return &Regexp{
		pattern: pattern,
		opts:    opts,
		config:  config,
		prog:    prog,
		pf:      prefilter.FromRegexp(tree, opts),
		names:   names,
	}, nil
}

// MustCompile compiles a pattern and panics if it fails.
// Useful for patterns known to be valid at compile time.
func MustCompile(pattern string, opts Options) *Regexp {
	re, err := Compile(pattern, opts)
	if err != nil {
		panic("regexkit: Compile(`" + pattern + "`): " + err.Error())
	}
	return re
}

// String returns the source text used to compile the pattern.
func (re *Regexp) String() string {
	return re.pattern
}

// Options returns the options the pattern was compiled with.
func (re *Regexp) Options() Options {
	return re.opts
}

// NumSubexp returns the number of capturing groups in the pattern,
// not counting the whole match.
func (re *Regexp) NumSubexp() int {
	return re.prog.NumCap - 1
}

// SubexpNames returns the names of the capturing groups, indexed by
// group number. Index 0 is always the empty string; unnamed groups are
// empty strings. The returned slice is shared and must not be modified.
func (re *Regexp) SubexpNames() []string {
	return re.prog.Names
}

// QuoteMeta returns a string that escapes all pattern metacharacters in
// text; the result is a pattern matching the literal text.
//
// Example:
//
//	escaped := regexkit.QuoteMeta("2+2=4?")
//	// escaped = `2\+2=4\?`
func QuoteMeta(text string) string {
	const special = `\.+*?()|[]{}^$#`

	n := 0
	for i := 0; i < len(text); i++ {
		if isSpecial(text[i], special) {
			n++
		}
	}
	if n == 0 {
		return text
	}

	buf := make([]byte, 0, len(text)+n)
	for i := 0; i < len(text); i++ {
		if isSpecial(text[i], special) {
			buf = append(buf, '\\')
		}
		buf = append(buf, text[i])
	}
	return string(buf)
}

func isSpecial(c byte, special string) bool {
	for i := 0; i < len(special); i++ {
		if c == special[i] {
			return true
		}
	}
	return false
}
