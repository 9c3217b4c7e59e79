// Package natsort orders strings the way people read them: case-insensitive,
// with embedded digit runs compared by numeric value ("img9" < "img10").
package natsort

import (
	"strings"
	"unicode"
)

// Compare returns -1, 0 or 1. Digit runs are compared as integers of any
// length; other runs are compared after lower-casing. Strings that differ
// only in case or leading zeros compare equal.
func Compare(a, b string) int {
	ca, cb := chunks(a), chunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		var c int
		switch {
		case x.numeric && y.numeric:
			c = compareDigits(x.text, y.text)
		case x.numeric != y.numeric:
			// a number sorts before text at the same position
			if x.numeric {
				c = -1
			} else {
				c = 1
			}
		default:
			c = strings.Compare(x.text, y.text)
		}
		if c != 0 {
			return c
		}
	}
	switch {
	case len(ca) < len(cb):
		return -1
	case len(ca) > len(cb):
		return 1
	}
	return 0
}

// Less reports whether a sorts before b. Ties are broken lexically so that
// sort order is deterministic.
func Less(a, b string) bool {
	if c := Compare(a, b); c != 0 {
		return c < 0
	}
	return a < b
}

// CompareTuple compares two equal-length string tuples element by element.
func CompareTuple(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

type chunk struct {
	text    string
	numeric bool
}

func chunks(s string) []chunk {
	var out []chunk
	var b strings.Builder
	numeric := false
	flush := func() {
		if b.Len() > 0 {
			out = append(out, chunk{text: b.String(), numeric: numeric})
			b.Reset()
		}
	}
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		if b.Len() > 0 && isDigit != numeric {
			flush()
		}
		numeric = isDigit
		b.WriteRune(unicode.ToLower(r))
	}
	flush()
	return out
}

func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
