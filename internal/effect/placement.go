package effect

import "sort"

// span is an inclusive run of free LED indices.
type span struct{ lo, hi int }

// fits reports whether an adjacent pair still fits in the span.
func (s span) fits() bool { return s.hi-s.lo >= 1 }

// placePairs scatters up to n adjacent index pairs over [0, segLen) so that any two pairs
// are separated by at least gap dark LEDs. It stops early once no free span can hold a pair.
func placePairs(n, segLen, gap int, rnd Rand) [][2]int {
	out := make([][2]int, 0, max(n, 0))
	var free []span
	if root := (span{0, segLen - 1}); root.fits() {
		free = append(free, root)
	}

	for len(out) < n && len(free) > 0 {
		i := rnd.Intn(len(free))
		sp := free[i]
		free = append(free[:i], free[i+1:]...)

		x := sp.lo + rnd.Intn(sp.hi-sp.lo)
		if left := (span{sp.lo, x - 1 - gap}); left.fits() {
			free = append(free, left)
		}
		if right := (span{x + 2 + gap, sp.hi}); right.fits() {
			free = append(free, right)
		}
		out = append(out, [2]int{x, x + 1})
	}

	sort.Slice(out, func(a, b int) bool { return out[a][0] < out[b][0] })
	return out
}
