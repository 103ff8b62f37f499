package regexkit

import (
	"reflect"
	"strings"
	"testing"
)

// TestSplit tests the piece algorithm, including leading and trailing
// empty pieces.
func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    []string
	}{
		{"whitespace", `\s+`, "a   b c", []string{"a", "b", "c"}},
		{"comma", ",", "a,b,c", []string{"a", "b", "c"}},
		{"no matches", "x", "abc", []string{"abc"}},
		{"match at start", "a", "abc", []string{"", "bc"}},
		{"match at end", ",", "a,b,", []string{"a", "b", ""}},
		{"adjacent matches", ",", "a,,b", []string{"a", "", "b"}},
		{"whole text", "abc", "abc", []string{"", ""}},
		{"empty text", "x", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.pattern, 0)
			got := re.Split(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSplitRoundTrip interleaves pieces with the matched separators and
// checks the original text comes back.
func TestSplitRoundTrip(t *testing.T) {
	re := MustCompile(`\s*,\s*`, 0)
	text := "a, b ,c,, d"

	pieces := re.Split(text)
	var seps []string
	it := re.Iter(text)
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		seps = append(seps, it.Text(m.Range))
	}

	if len(pieces) != len(seps)+1 {
		t.Fatalf("%d pieces for %d separators", len(pieces), len(seps))
	}
	var b strings.Builder
	for i, p := range pieces {
		b.WriteString(p)
		if i < len(seps) {
			b.WriteString(seps[i])
		}
	}
	if b.String() != text {
		t.Errorf("reassembled %q, want %q", b.String(), text)
	}
}
