// Package fuzzy computes Levenshtein edit distance with Myers' bit-vector
// algorithm. Strings whose shorter side fits in one 32-bit word are handled
// by a single-word pass; longer ones are processed in 32-row blocks that
// carry horizontal deltas between blocks.
package fuzzy

import "unicode/utf8"

const wordSize = 32

// Distance returns the Levenshtein distance between a and b, counting
// insertions, deletions and substitutions of runes at cost 1.
func Distance(a, b string) int {
	var s Scratch
	return s.Distance(a, b)
}

// Scratch holds the match-bit table and carry buffers reused across
// Distance calls. The zero value is ready to use. A Scratch must not be
// shared between goroutines; give each caller its own.
type Scratch struct {
	peq peqTable
	phc []uint32
	mhc []uint32
}

// Distance is like the package-level Distance but reuses s's buffers.
func (s *Scratch) Distance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	// Pattern is the shorter string; it runs down the bit-vector rows.
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if len(rb) <= wordSize {
		return s.myers32(rb, ra)
	}
	return s.myersBlocks(rb, ra)
}

// myers32 computes the distance for a pattern of at most 32 runes.
func (s *Scratch) myers32(pattern, text []rune) int {
	s.peq.load(pattern, 0, len(pattern))
	defer s.peq.clear(pattern, 0, len(pattern))

	m := len(pattern)
	last := uint32(1) << (m - 1)
	pv := ^uint32(0)
	mv := uint32(0)
	score := m

	for _, c := range text {
		eq := s.peq.get(c)
		xv := eq | mv
		xh := (((eq & pv) + pv) ^ pv) | eq
		ph := mv | ^(xh | pv)
		mh := pv & xh
		if ph&last != 0 {
			score++
		}
		if mh&last != 0 {
			score--
		}
		ph = ph<<1 | 1
		mh <<= 1
		pv = mh | ^(xv | ph)
		mv = ph & xv
	}
	return score
}

// myersBlocks computes the distance for patterns longer than one word.
// phc/mhc hold, per text column, whether the horizontal delta at the bottom
// edge of the previous block was +1 or -1.
func (s *Scratch) myersBlocks(pattern, text []rune) int {
	m, n := len(pattern), len(text)
	hsize := (n + wordSize - 1) / wordSize
	s.phc = grow(s.phc, hsize)
	s.mhc = grow(s.mhc, hsize)
	for i := 0; i < hsize; i++ {
		// Row zero of the DP matrix increases by one per column.
		s.phc[i] = ^uint32(0)
		s.mhc[i] = 0
	}

	score := m
	for start := 0; start < m; start += wordSize {
		end := min(start+wordSize, m)
		lastBlock := end == m
		high := uint32(1) << (end - start - 1)

		s.peq.load(pattern, start, end)
		pv := ^uint32(0)
		mv := uint32(0)

		for i, c := range text {
			w, bit := i/wordSize, uint32(1)<<(i%wordSize)
			pb := (s.phc[w] & bit) >> (i % wordSize)
			mb := (s.mhc[w] & bit) >> (i % wordSize)

			eq := s.peq.get(c)
			xv := eq | mv
			xh := ((((eq | mb) & pv) + pv) ^ pv) | eq | mb
			ph := mv | ^(xh | pv)
			mh := pv & xh

			if ph&high != 0 {
				s.phc[w] |= bit
				if lastBlock {
					score++
				}
			} else {
				s.phc[w] &^= bit
			}
			if mh&high != 0 {
				s.mhc[w] |= bit
				if lastBlock {
					score--
				}
			} else {
				s.mhc[w] &^= bit
			}

			ph = ph<<1 | pb
			mh = mh<<1 | mb
			pv = mh | ^(xv | ph)
			mv = ph & xv
		}
		s.peq.clear(pattern, start, end)
	}
	return score
}

func grow(buf []uint32, n int) []uint32 {
	if cap(buf) < n {
		return make([]uint32, n)
	}
	return buf[:n]
}

// peqTable maps a rune to the bitmask of pattern rows holding that rune.
// ASCII runes use a fixed array; anything else falls back to a map.
type peqTable struct {
	ascii [utf8.RuneSelf]uint32
	other map[rune]uint32
}

func (t *peqTable) load(pattern []rune, start, end int) {
	for k := start; k < end; k++ {
		c := pattern[k]
		bit := uint32(1) << (k - start)
		if c < utf8.RuneSelf {
			t.ascii[c] |= bit
			continue
		}
		if t.other == nil {
			t.other = make(map[rune]uint32)
		}
		t.other[c] |= bit
	}
}

func (t *peqTable) clear(pattern []rune, start, end int) {
	for k := start; k < end; k++ {
		c := pattern[k]
		if c < utf8.RuneSelf {
			t.ascii[c] = 0
		} else {
			delete(t.other, c)
		}
	}
}

func (t *peqTable) get(c rune) uint32 {
	if c >= 0 && c < utf8.RuneSelf {
		return t.ascii[c]
	}
	return t.other[c]
}
