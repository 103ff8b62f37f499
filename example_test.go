package regexkit_test

import (
	"fmt"

	"github.com/coregx/regexkit"
)

// ExampleCompile demonstrates basic compilation and matching.
func ExampleCompile() {
	re, err := regexkit.Compile(`\d+`, 0)
	if err != nil {
		panic(err)
	}

	fmt.Println(re.MatchString("agent 007"))
	// Output: true
}

// ExampleRegexp_Matches demonstrates capture group rows.
func ExampleRegexp_Matches() {
	re := regexkit.MustCompile(`(\w+)=(\d+)`, 0)
	for _, row := range re.Matches("a=1 bb=22") {
		fmt.Println(row)
	}
	// Output:
	// [a=1 a 1]
	// [bb=22 bb 22]
}

// ExampleRegexp_ReplaceMatches demonstrates replacement templates.
func ExampleRegexp_ReplaceMatches() {
	re := regexkit.MustCompile(`(\d+)`, 0)
	fmt.Println(re.ReplaceMatches("x12y34", "[$1]"))
	// Output: x[12]y[34]
}

// ExampleRegexp_Split demonstrates splitting on a separator pattern.
func ExampleRegexp_Split() {
	re := regexkit.MustCompile(`\s*,\s*`, 0)
	fmt.Println(re.Split("a, b ,c"))
	// Output: [a b c]
}

// ExampleRegexp_Iter demonstrates lazy match iteration.
func ExampleRegexp_Iter() {
	re := regexkit.MustCompile(`\d+`, 0)
	it := re.Iter("1 22 333")
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		fmt.Println(it.Text(m.Range))
	}
	// Output:
	// 1
	// 22
	// 333
}

// ExampleRegexp_FindMatch demonstrates named group access.
func ExampleRegexp_FindMatch() {
	re := regexkit.MustCompile(`(?P<key>\w+)=(?P<val>\w+)`, 0)
	m, err := re.FindMatch("retries=3")
	if err != nil || m == nil {
		panic("no match")
	}
	fmt.Println(m.Range, m.Group(1), m.Group(2))
	// Output: {0 9} {0 7} {8 9}
}
