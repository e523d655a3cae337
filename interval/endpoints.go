package interval

import (
	"math"
	"sort"
)

// PosType is an interval coordinate.
type PosType int32

// PosTypeMax is the largest PosType.
const PosTypeMax = math.MaxInt32

// endpoints is a disjoint interval set on one chromosome, flattened into its
// sorted boundaries: [s0, e0) U [s1, e1) U ... is {s0, e0, s1, e1, ...}.
//
// For a position pos, let i be the number of boundaries <= pos.  pos is in the
// set iff i is odd, and if it isn't, endpoints[i] (when i < len) is the start
// of the next interval.
type endpoints []PosType

// rank returns the number of boundaries <= pos.
func (e endpoints) rank(pos PosType) int {
	return sort.Search(len(e), func(i int) bool { return e[i] > pos })
}

// rankFrom is rank for a pos no smaller than the one rank(from) was computed
// for.  It probes from, from+1, from+3, from+7, ... before bisecting, so a
// forward scan costs amortized constant time per query.
func (e endpoints) rankFrom(pos PosType, from int) int {
	lo, hi := from, len(e)
	for i, step := from, 1; i < len(e); i, step = i+step, step*2 {
		if e[i] > pos {
			hi = i
			break
		}
		lo = i + 1
	}
	return lo + sort.Search(hi-lo, func(i int) bool { return e[lo+i] > pos })
}

// inside reports whether a rank denotes a position inside the set.
func inside(rank int) bool { return rank&1 == 1 }

// bases returns the number of positions in the set.
func (e endpoints) bases() int64 {
	var n int64
	for i := 0; i+1 < len(e); i += 2 {
		n += int64(e[i+1] - e[i])
	}
	return n
}
