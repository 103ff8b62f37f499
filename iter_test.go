package regexkit

import (
	"errors"
	"testing"

	"github.com/coregx/regexkit/vm"
)

// TestIterRanges tests match enumeration order and spans.
func TestIterRanges(t *testing.T) {
	re := MustCompile(`\d+`, 0)
	it := re.Iter("1 22 333")

	want := []Range{{0, 1}, {2, 4}, {5, 8}}
	var got []Range
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		got = append(got, m.Range)
	}
	if it.Err() != nil {
		t.Fatalf("Err() = %v", it.Err())
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestIterZeroLength verifies the cursor advances past zero-length
// matches so iteration terminates.
func TestIterZeroLength(t *testing.T) {
	re := MustCompile("b*", 0)
	it := re.Iter("abc")

	want := []Range{{0, 0}, {1, 2}, {2, 2}, {3, 3}}
	var got []Range
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		got = append(got, m.Range)
		if len(got) > 10 {
			t.Fatal("iterator did not terminate")
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestIterOrdering checks strictly increasing starts and no overlap
// on a pattern with mixed-width matches.
func TestIterOrdering(t *testing.T) {
	re := MustCompile("a+|b", 0)
	it := re.Iter("aabab baa")

	prevStart, prevEnd := -1, 0
	n := 0
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		if m.Range.Start <= prevStart {
			t.Errorf("starts not strictly increasing: %d after %d", m.Range.Start, prevStart)
		}
		if m.Range.Start < prevEnd {
			t.Errorf("match %v overlaps previous end %d", m.Range, prevEnd)
		}
		prevStart, prevEnd = m.Range.Start, m.Range.End
		n++
	}
	if n != 6 {
		t.Errorf("matched %d times, want 6", n)
	}
}

// TestIterRestartable verifies each Iter call yields an independent
// sequence.
func TestIterRestartable(t *testing.T) {
	re := MustCompile(`\w+`, 0)
	text := "one two"

	first := re.Iter(text)
	m1, _ := first.Next()

	second := re.Iter(text)
	m2, ok := second.Next()
	if !ok || m2.Range != m1.Range {
		t.Errorf("fresh iterator first match = %v, want %v", m2.Range, m1.Range)
	}
}

func TestIterText(t *testing.T) {
	re := MustCompile(`(\w+)=(\w+)`, 0)
	it := re.Iter("key=value")
	m, ok := it.Next()
	if !ok {
		t.Fatal("no match")
	}
	if got := it.Text(m.Group(1)); got != "key" {
		t.Errorf("Text(group 1) = %q, want %q", got, "key")
	}
	if got := it.Text(m.Group(2)); got != "value" {
		t.Errorf("Text(group 2) = %q, want %q", got, "value")
	}
	if got := it.Text(noRange); got != "" {
		t.Errorf("Text(invalid) = %q, want empty", got)
	}
}

// TestIterErr checks that a budget abort ends iteration and is
// reported by Err.
func TestIterErr(t *testing.T) {
	config := DefaultConfig()
	config.StepLimit = 3
	re, err := CompileWithConfig(`\d+`, 0, config)
	if err != nil {
		t.Fatal(err)
	}

	it := re.Iter("xxxxxxxxxx")
	if _, ok := it.Next(); ok {
		t.Fatal("Next() reported a match after budget abort")
	}
	if !errors.Is(it.Err(), vm.ErrStepLimit) {
		t.Errorf("Err() = %v, want vm.ErrStepLimit", it.Err())
	}
	// iteration stays terminated
	if _, ok := it.Next(); ok {
		t.Error("Next() after abort reported a match")
	}
}

func TestIterInRange(t *testing.T) {
	re := MustCompile(`\w+`, 0)
	it := re.IterIn("aa bb cc", 0, Range{2, 7})

	var got []string
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		got = append(got, it.Text(m.Range))
	}
	if len(got) != 2 || got[0] != "bb" || got[1] != "c" {
		t.Errorf("got %v, want [bb c]", got)
	}
}
