package diffmod

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffAlgorithm selects the line-matching strategy of the two-file differ.
// Every algorithm is deterministic for identical input.
type DiffAlgorithm int

// Diff algorithms.
const (
	// AlgorithmMyers finds a shortest edit script by Myers' bisection.
	AlgorithmMyers DiffAlgorithm = iota
	// AlgorithmHistogram anchors on the least frequent common lines first and
	// falls back to Myers where no anchor exists.
	AlgorithmHistogram
	// AlgorithmRatcliff repeatedly matches the longest common block
	// (Ratcliff/Obershelp, as in Python's difflib).
	AlgorithmRatcliff
)

func (a DiffAlgorithm) String() string {
	switch a {
	case AlgorithmMyers:
		return "myers"
	case AlgorithmHistogram:
		return "histogram"
	case AlgorithmRatcliff:
		return "ratcliff"
	default:
		return "DiffAlgorithm(" + strconv.Itoa(int(a)) + ")"
	}
}

// ParseDiffAlgorithm returns the algorithm with the given name.
func ParseDiffAlgorithm(s string) (DiffAlgorithm, error) {
	switch s {
	case "myers", "default", "":
		return AlgorithmMyers, nil
	case "histogram":
		return AlgorithmHistogram, nil
	case "ratcliff", "difflib":
		return AlgorithmRatcliff, nil
	default:
		return 0, fmt.Errorf("%w: unknown diff algorithm %q", ErrParse, s)
	}
}

// match pairs old line a with new line b.
type match struct {
	a, b int
}

// matches returns the common lines of a and b as strictly increasing pairs.
func (alg DiffAlgorithm) matches(a, b []int) []match {
	switch alg {
	case AlgorithmHistogram:
		return histogramMatches(a, b)
	case AlgorithmRatcliff:
		return ratcliffMatches(a, b)
	default:
		return myersMatches(a, b, 0, 0)
	}
}

// maxLineID is the largest line id that can be encoded as a rune.
const maxLineID = utf8.MaxRune - 0x800

// idRune encodes a line id as a valid rune by skipping the surrogate range.
func idRune(id int) rune {
	if id >= 0xD800 {
		id += 0x800
	}
	return rune(id)
}

func myersMatches(a, b []int, aOff, bOff int) []match {
	ra := make([]rune, len(a))
	for i, id := range a {
		ra[i] = idRune(id)
	}
	rb := make([]rune, len(b))
	for i, id := range b {
		rb[i] = idRune(id)
	}

	dmp := diffmatchpatch.New()
	// No deadline, which also disables the non-minimal half-match speedup.
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(ra, rb, false)

	var out []match
	i, j := 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			for k := 0; k < n; k++ {
				out = append(out, match{a: aOff + i + k, b: bOff + j + k})
			}
			i += n
			j += n
		case diffmatchpatch.DiffDelete:
			i += n
		case diffmatchpatch.DiffInsert:
			j += n
		}
	}
	return out
}

func ratcliffMatches(a, b []int) []match {
	sa := make([]string, len(a))
	for i, id := range a {
		sa[i] = strconv.Itoa(id)
	}
	sb := make([]string, len(b))
	for i, id := range b {
		sb[i] = strconv.Itoa(id)
	}
	m := difflib.NewMatcherWithJunk(sa, sb, false, nil)
	var out []match
	for _, blk := range m.GetMatchingBlocks() {
		for k := 0; k < blk.Size; k++ {
			out = append(out, match{a: blk.A + k, b: blk.B + k})
		}
	}
	return out
}

// maxChainLength bounds how often a line may occur in the old region and
// still be used as an anchor.
const maxChainLength = 64

type histogram struct {
	a, b []int
	out  []match
}

func histogramMatches(a, b []int) []match {
	h := &histogram{a: a, b: b}
	h.diff(0, len(a), 0, len(b))
	return h.out
}

func (h *histogram) diff(a0, a1, b0, b1 int) {
	for a0 < a1 && b0 < b1 && h.a[a0] == h.b[b0] {
		h.out = append(h.out, match{a: a0, b: b0})
		a0++
		b0++
	}
	suffix := 0
	for a1 > a0 && b1 > b0 && h.a[a1-1] == h.b[b1-1] {
		a1--
		b1--
		suffix++
	}
	defer func() {
		for k := 0; k < suffix; k++ {
			h.out = append(h.out, match{a: a1 + k, b: b1 + k})
		}
	}()
	if a0 == a1 || b0 == b1 {
		return
	}

	occ := make(map[int][]int)
	for i := a0; i < a1; i++ {
		occ[h.a[i]] = append(occ[h.a[i]], i)
	}

	bestA, bestB, bestLen, bestCount := 0, 0, 0, maxChainLength+1
	for j := b0; j < b1; j++ {
		positions := occ[h.b[j]]
		if len(positions) == 0 || len(positions) > maxChainLength {
			continue
		}
		for _, i := range positions {
			s, t := i, j
			for s > a0 && t > b0 && h.a[s-1] == h.b[t-1] {
				s--
				t--
			}
			e, f := i+1, j+1
			for e < a1 && f < b1 && h.a[e] == h.b[f] {
				e++
				f++
			}
			count := maxChainLength + 1
			for x := s; x < e; x++ {
				count = min(count, len(occ[h.a[x]]))
			}
			if count < bestCount || (count == bestCount && e-s > bestLen) {
				bestA, bestB, bestLen, bestCount = s, t, e-s, count
			}
		}
	}

	if bestLen == 0 {
		h.out = append(h.out, myersMatches(h.a[a0:a1], h.b[b0:b1], a0, b0)...)
		return
	}
	h.diff(a0, bestA, b0, bestB)
	for k := 0; k < bestLen; k++ {
		h.out = append(h.out, match{a: bestA + k, b: bestB + k})
	}
	h.diff(bestA+bestLen, a1, bestB+bestLen, b1)
}
