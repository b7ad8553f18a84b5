package fuzzy

import "math/bits"

// lcs computes longest-common-subsequence lengths against a fixed pattern
type lcs interface {
	length(text []rune) int
}

func newLCS(pattern []rune) lcs {
	if len(pattern) <= 64 {
		return newBitLCS(pattern)
	}
	return dpLCS{pattern: pattern}
}

func lcsLength(a, b []rune) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return 0
	}
	return newLCS(a).length(b)
}

// bitLCS is the bit-parallel LCS of Hyyrö for patterns up to 64 code points
type bitLCS struct {
	masks map[rune]uint64
	width uint64
}

func newBitLCS(pattern []rune) *bitLCS {
	masks := make(map[rune]uint64, len(pattern))
	for i, r := range pattern {
		masks[r] |= 1 << uint(i)
	}

	width := ^uint64(0)
	if len(pattern) < 64 {
		width = (1 << uint(len(pattern))) - 1
	}

	return &bitLCS{masks: masks, width: width}
}

func (b *bitLCS) length(text []rune) int {
	s := ^uint64(0)
	for _, r := range text {
		u := s & b.masks[r]
		s = (s + u) | (s - u)
	}
	return bits.OnesCount64(^s & b.width)
}

// dpLCS is the row-rolling dynamic program for long patterns
type dpLCS struct {
	pattern []rune
}

func (d dpLCS) length(text []rune) int {
	prev := make([]int, len(text)+1)
	cur := make([]int, len(text)+1)

	for _, p := range d.pattern {
		for j, t := range text {
			switch {
			case p == t:
				cur[j+1] = prev[j] + 1
			case prev[j+1] >= cur[j]:
				cur[j+1] = prev[j+1]
			default:
				cur[j+1] = cur[j]
			}
		}
		prev, cur = cur, prev
	}

	return prev[len(text)]
}
