package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/coregx/regexkit/syntax"
)

func compileForTest(t *testing.T, pattern string, flags syntax.Flags) *Prog {
	t.Helper()
	re, err := syntax.Parse(pattern, flags)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", pattern, err)
	}
	prog, err := Compile(re, flags)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", pattern, err)
	}
	return prog
}

func searchAll(t *testing.T, pattern, input string, flags syntax.Flags) []int {
	t.Helper()
	prog := compileForTest(t, pattern, flags)
	text := []rune(input)
	caps, err := prog.Search(text, 0, len(text), 0, false, nil, 0)
	if err != nil {
		t.Fatalf("Search(%q, %q) error: %v", pattern, input, err)
	}
	return caps
}

// TestSearchSpans verifies match spans for the core constructs.
func TestSearchSpans(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		flags   syntax.Flags
		start   int // -1 means no match
		end     int
	}{
		{"literal", "abc", "xabcy", 0, 1, 4},
		{"literal no match", "abc", "xaby", 0, -1, 0},
		{"greedy plus", "a+", "baaa", 0, 1, 4},
		{"lazy plus", "a+?", "baaa", 0, 1, 2},
		{"greedy star empty", "a*", "bbb", 0, 0, 0},
		{"counted greedy", "a{2,3}", "aaaa", 0, 0, 3},
		{"counted lazy", "a{2,3}?", "aaaa", 0, 0, 2},
		{"counted exact", "a{3}", "aaaa", 0, 0, 3},
		{"leftmost first alt", "a|ab", "ab", 0, 0, 1},
		{"alt second branch", "foo|bar", "a bar", 0, 2, 5},
		{"class", "[b-d]+", "abcde", 0, 1, 4},
		{"negated class", "[^a]+", "aabba", 0, 2, 4},
		{"nested class escape", `[\d]+`, "ab123", 0, 2, 5},
		{"nested negated escape", `[\D]`, "5x", 0, 1, 2},
		{"nested negated escape no match", `[\D]`, "57", 0, -1, 0},
		{"nested negated word escape", `[\W]+`, "ab, cd", 0, 2, 4},
		{"nested escape pair any", `[\d\D]`, "x", 0, 0, 1},
		{"dot skips newline", "x.", "x\nxy", 0, 2, 4},
		{"dot with dotall", "x.", "x\nxy", syntax.DotAll, 0, 2},
		{"begin text", "^a", "ba", 0, -1, 0},
		{"end text", "a$", "bba", 0, 2, 3},
		{"empty body loop", "(a*)*", "b", 0, 0, 0},
		{"alt loop", "(?:a|b)+", "xabba", 0, 1, 5},
		{"empty alt arm loop", "(a|b|)*c", "ababc", 0, 0, 5},
		{"word boundary", `\bcat\b`, "scatter cat", 0, 8, 11},
		{"no word boundary", `\Bcat`, "scatter cat", 0, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := searchAll(t, tt.pattern, tt.input, tt.flags)
			if tt.start < 0 {
				if caps != nil {
					t.Fatalf("Search() = %v, want no match", caps)
				}
				return
			}
			if caps == nil {
				t.Fatal("Search() = no match, want match")
			}
			if caps[0] != tt.start || caps[1] != tt.end {
				t.Errorf("Search() span = [%d,%d), want [%d,%d)", caps[0], caps[1], tt.start, tt.end)
			}
		})
	}
}

// TestSearchCaptures verifies full capture slot contents.
func TestSearchCaptures(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    []int
	}{
		{"two groups", "(a+)(b+)", "xaabbb", []int{1, 6, 1, 3, 3, 6}},
		{"repeated group keeps last", "(ab)+", "ababab", []int{0, 6, 4, 6}},
		{"optional group unset", "(a)(b)?", "ac", []int{0, 1, 0, 1, -1, -1}},
		{"nested groups", "((a)b)", "ab", []int{0, 2, 0, 2, 0, 1}},
		{"alternation unset arm", "(a)|(b)", "b", []int{0, 1, -1, -1, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := searchAll(t, tt.pattern, tt.input, 0)
			if caps == nil {
				t.Fatal("Search() = no match, want match")
			}
			if len(caps) != len(tt.want) {
				t.Fatalf("Search() = %v, want %v", caps, tt.want)
			}
			for i := range tt.want {
				if caps[i] != tt.want[i] {
					t.Fatalf("Search() = %v, want %v", caps, tt.want)
				}
			}
		})
	}
}

// TestSearchBackrefs exercises backreference matching, which disables
// the visited bitmap.
func TestSearchBackrefs(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		start   int
		end     int
	}{
		{"simple", `(ab)\1`, "zabab", 1, 5},
		{"backtracks into group", `(a+)\1`, "aaaa", 0, 4},
		{"doubled word", `(\w+) \1`, "say no no", 4, 9},
		{"empty reference", `(a*)b\1`, "b", 0, 1},
		{"no match", `(ab)\1`, "abba", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := searchAll(t, tt.pattern, tt.input, 0)
			if tt.start < 0 {
				if caps != nil {
					t.Fatalf("Search() = %v, want no match", caps)
				}
				return
			}
			if caps == nil {
				t.Fatal("Search() = no match, want match")
			}
			if caps[0] != tt.start || caps[1] != tt.end {
				t.Errorf("Search() span = [%d,%d), want [%d,%d)", caps[0], caps[1], tt.start, tt.end)
			}
		})
	}
}

// TestSearchBounds checks that the search range acts as the text
// boundary for anchors and word boundaries.
func TestSearchBounds(t *testing.T) {
	prog := compileForTest(t, "^b$", 0)
	text := []rune("abc")
	caps, err := prog.Search(text, 1, 2, 1, false, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if caps == nil || caps[0] != 1 || caps[1] != 2 {
		t.Errorf("Search() = %v, want [1,2)", caps)
	}

	// the same pattern over the full text has no match
	caps, err = prog.Search(text, 0, 3, 0, false, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if caps != nil {
		t.Errorf("Search() = %v, want no match", caps)
	}
}

func TestSearchAnchored(t *testing.T) {
	prog := compileForTest(t, "ab", 0)
	text := []rune("xab")

	caps, err := prog.Search(text, 0, 3, 0, true, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if caps != nil {
		t.Errorf("anchored Search() = %v, want no match", caps)
	}

	caps, err = prog.Search(text, 0, 3, 1, true, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if caps == nil || caps[0] != 1 || caps[1] != 3 {
		t.Errorf("anchored Search() at 1 = %v, want [1,3)", caps)
	}
}

// TestStepLimit verifies the budget aborts a search with ErrStepLimit.
func TestStepLimit(t *testing.T) {
	prog := compileForTest(t, `\d+`, 0)
	text := []rune("xxxxxxxxxx")
	_, err := prog.Search(text, 0, len(text), 0, false, nil, 2)
	if !errors.Is(err, ErrStepLimit) {
		t.Errorf("Search() error = %v, want ErrStepLimit", err)
	}
}

// TestVisitedPruning runs a pattern that is exponential for a naive
// backtracker; the visited bitmap must keep it inside the default
// budget.
func TestVisitedPruning(t *testing.T) {
	pattern := strings.Repeat("(a|a)", 20) + "b"
	prog := compileForTest(t, pattern, 0)
	text := []rune(strings.Repeat("a", 20))
	caps, err := prog.Search(text, 0, len(text), 0, false, nil, 0)
	if err != nil {
		t.Fatalf("Search() error = %v, want pruned search to finish", err)
	}
	if caps != nil {
		t.Errorf("Search() = %v, want no match", caps)
	}
}

// TestLineAnchors covers multiline ^ and $ with the default separator
// set, including the \r\n single-boundary rule.
func TestLineAnchors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		flags   syntax.Flags
		start   int
		end     int
	}{
		{"bol after lf", "^b", "a\nb", syntax.Multiline, 2, 3},
		{"bol after crlf", "^b", "a\r\nb", syntax.Multiline, 3, 4},
		{"eol before cr", "a$", "a\r\nb", syntax.Multiline, 0, 1},
		{"eol before nel", "a$", "ab", syntax.Multiline, 0, 1},
		{"eol before ps", "a$", "a b", syntax.Multiline, 0, 1},
		{"unix ignores cr", "a$", "a\r\nb", syntax.Multiline | syntax.UnixLines, -1, 0},
		{"unix keeps lf", "a$", "a\nb", syntax.Multiline | syntax.UnixLines, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := searchAll(t, tt.pattern, tt.input, tt.flags)
			if tt.start < 0 {
				if caps != nil {
					t.Fatalf("Search() = %v, want no match", caps)
				}
				return
			}
			if caps == nil {
				t.Fatal("Search() = no match, want match")
			}
			if caps[0] != tt.start || caps[1] != tt.end {
				t.Errorf("Search() span = [%d,%d), want [%d,%d)", caps[0], caps[1], tt.start, tt.end)
			}
		})
	}
}

// TestCaseFolding covers Unicode simple case folding for runes and
// classes.
func TestCaseFolding(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		flags   syntax.Flags
		match   bool
	}{
		{"ascii rune", "abc", "xABCy", syntax.FoldCase, true},
		{"no fold without flag", "abc", "ABC", 0, false},
		{"kelvin sign", "k", "K", syntax.FoldCase, true},
		{"accented", "é", "É", syntax.FoldCase, true},
		{"class folds", "[a-z]+", "HELLO", syntax.FoldCase, true},
		{"negated class folds first", "[^a]", "A", syntax.FoldCase, false},
		{"backref folds", `(a)x\1`, "AxA", syntax.FoldCase, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := searchAll(t, tt.pattern, tt.input, tt.flags)
			if got := caps != nil; got != tt.match {
				t.Errorf("match = %v, want %v", got, tt.match)
			}
		})
	}
}

func TestProgramTooLarge(t *testing.T) {
	re, err := syntax.Parse("(?:"+strings.Repeat("a", 600)+"){900}", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Compile(re, 0); !errors.Is(err, ErrProgramTooLarge) {
		t.Errorf("Compile() error = %v, want ErrProgramTooLarge", err)
	}
}

func TestMinWidth(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{"abc", 3},
		{"a*", 0},
		{"a+", 1},
		{"a{3,5}", 3},
		{"(ab|cde)", 2},
		{`(a)\1`, 1},
		{"^$", 0},
	}
	for _, tt := range tests {
		prog := compileForTest(t, tt.pattern, 0)
		if got := prog.MinWidth(); got != tt.want {
			t.Errorf("MinWidth(%q) = %d, want %d", tt.pattern, got, tt.want)
		}
	}
}
