package sanitize

import (
	"math"
	"testing"
)

func TestSanitizeLexicalQueryIdempotent(t *testing.T) {
	inputs := []string{
		"foo AND admin",
		`he said "hi"`,
		"",
		`"already quoted"`,
	}
	for _, in := range inputs {
		once := SanitizeLexicalQuery(in)
		twice := SanitizeLexicalQuery(once)
		if once != twice {
			t.Errorf("not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestSanitizeLexicalQueryNeutralizesOperators(t *testing.T) {
	got := SanitizeLexicalQuery("foo AND admin")
	want := `"foo AND admin"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSanitizeLexicalQueryEscapesQuotes(t *testing.T) {
	got := SanitizeLexicalQuery(`she said "no"`)
	want := `"she said ""no"""`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClampLimitBoundaries(t *testing.T) {
	cases := map[float64]int{
		0:     MinLimit,
		10000: MaxLimit,
		1:     1,
		100:   100,
		-5:    MinLimit,
		math.NaN():    DefaultLimit,
		math.Inf(1):   DefaultLimit,
	}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%v) = %d, want %d", in, got, want)
		}
	}
}
