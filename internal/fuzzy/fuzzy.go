// Package fuzzy implements approximate substring matching.
//
// Scores are Indel based: ratio(a, b) = 100 * 2*LCS(a, b) / (len(a)+len(b)),
// computed over Unicode code points after lowercasing and NFC normalization.
// PartialRatio aligns the shorter string against every window of the longer
// one, including the partially overlapping windows at both ends, and keeps
// the best ratio.
package fuzzy

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Text is a string normalized for matching
type Text struct {
	runes []rune
}

// NewText lowercases and NFC-normalizes s
func NewText(s string) Text {
	return Text{runes: []rune(norm.NFC.String(strings.ToLower(s)))}
}

// Len returns the length in code points
func (t Text) Len() int {
	return len(t.runes)
}

// IsEmpty reports whether the text has no code points
func (t Text) IsEmpty() bool {
	return len(t.runes) == 0
}

// String returns the normalized text
func (t Text) String() string {
	return string(t.runes)
}

// PartialRatio scores the best alignment of other inside t (or t inside
// other, whichever is shorter), 0-100.
func (t Text) PartialRatio(other Text) float64 {
	return partialRatio(t.runes, other.runes)
}

// Similar reports whether PartialRatio(other) >= threshold
func (t Text) Similar(other Text, threshold int) bool {
	return t.PartialRatio(other) >= float64(threshold)
}

// PartialRatio normalizes both strings and returns their partial ratio
func PartialRatio(a, b string) float64 {
	return NewText(a).PartialRatio(NewText(b))
}

// Ratio normalizes both strings and returns their full-string ratio
func Ratio(a, b string) float64 {
	return ratio(NewText(a).runes, NewText(b).runes)
}

// IsSimilar reports whether the partial ratio of a and b reaches threshold
func IsSimilar(a, b string, threshold int) bool {
	return PartialRatio(a, b) >= float64(threshold)
}

func ratio(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	return normalized(lcsLength(a, b), len(a), len(b))
}

func normalized(lcs, lenA, lenB int) float64 {
	return 200 * float64(lcs) / float64(lenA+lenB)
}

func partialRatio(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}

	best := align(short, long)
	if best < 100 && len(a) == len(b) {
		if r := align(long, short); r > best {
			best = r
		}
	}
	return best
}

// align slides needle across haystack. len(needle) <= len(haystack).
func align(needle, haystack []rune) float64 {
	n, m := len(needle), len(haystack)
	lcs := newLCS(needle)

	best := 0.0
	score := func(window []rune) bool {
		if r := normalized(lcs.length(window), n, len(window)); r > best {
			best = r
		}
		return best == 100
	}

	for i := 0; i <= m-n; i++ {
		if score(haystack[i : i+n]) {
			return best
		}
	}
	for i := 1; i < n; i++ {
		if score(haystack[:i]) {
			return best
		}
	}
	for i := m - n + 1; i < m; i++ {
		if score(haystack[i:]) {
			return best
		}
	}

	return best
}
