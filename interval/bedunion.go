package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/lrqc/artifact"
)

// BEDUnion is the union of a set of intervals, keyed by chromosome.
// Overlapping and touching intervals are merged when the set is built.
//
// Point queries through ContainsByName remember where the previous query
// landed, so a scan in increasing position order doesn't repeat the binary
// search.  A BEDUnion is therefore not safe for concurrent queries; use Clone
// to get an independent cursor over the same set.
type BEDUnion struct {
	// chroms holds one set per chromosome named in the input, possibly empty.
	chroms map[string]endpoints
	cur    cursor
}

type cursor struct {
	chr  string
	set  endpoints
	pos  PosType
	rank int
	// forward is set while queries on chr have been nondecreasing.
	forward bool
}

// ContainsByName reports whether position pos (0-based) of chrName is in the
// union.
func (u *BEDUnion) ContainsByName(chrName string, pos PosType) bool {
	c := &u.cur
	switch {
	case chrName != c.chr:
		*c = cursor{chr: chrName, set: u.chroms[chrName]}
		if len(c.set) == 0 {
			return false
		}
		c.pos, c.rank, c.forward = pos, c.set.rank(pos), true
		return inside(c.rank)
	case len(c.set) == 0:
		return false
	case c.forward && pos >= c.pos:
		c.pos, c.rank = pos, c.set.rankFrom(pos, c.rank)
		return inside(c.rank)
	}
	c.forward = false
	return inside(c.set.rank(pos))
}

// Intersect calls fn, in increasing order, on each maximal piece of
// [start, end) on chrName that lies within the BEDUnion.
func (u *BEDUnion) Intersect(chrName string, start, end PosType, fn func(start, end PosType)) {
	set := u.chroms[chrName]
	if end <= start {
		return
	}
	// Each iteration visits the interval [set[i-1], set[i]) once i is odd.
	i := set.rank(start)
	if !inside(i) {
		i++
	}
	for ; i < len(set); i += 2 {
		lo, hi := set[i-1], set[i]
		if lo >= end {
			return
		}
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		fn(lo, hi)
	}
}

// NumBases returns the number of positions covered by the BEDUnion.
func (u *BEDUnion) NumBases() int64 {
	var n int64
	for _, set := range u.chroms {
		n += set.bases()
	}
	return n
}

// Clone returns a BEDUnion over the same intervals with its own query state.
func (u *BEDUnion) Clone() BEDUnion {
	return BEDUnion{chroms: u.chroms}
}

// NewBEDUnion loads the intervals of a BED stream sorted by chromosome and
// start.  Empty intervals are dropped.
func NewBEDUnion(reader io.Reader) (BEDUnion, error) {
	var entries []Entry
	s := NewScanner(reader)
	for s.Scan() {
		entries = append(entries, s.Entry())
	}
	if err := s.Err(); err != nil {
		return BEDUnion{}, err
	}
	u, err := NewBEDUnionFromEntries(entries)
	if err != nil {
		return BEDUnion{}, err
	}
	log.Printf("BED loaded, %d base(s) covered.", u.NumBases())
	return u, nil
}

// NewBEDUnionFromPath is NewBEDUnion on the file at path.  Gzip input is
// detected from the path.
func NewBEDUnionFromPath(ctx context.Context, path string) (u BEDUnion, err error) {
	in, err := artifact.Open(ctx, path)
	if err != nil {
		return BEDUnion{}, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = artifact.WrapError(path, cerr)
		}
	}()
	u, err = NewBEDUnion(bufio.NewReaderSize(in, 64<<10))
	return u, artifact.WrapError(path, err)
}

// NewBEDUnionFromEntries builds a BEDUnion from entries sorted by chromosome
// and start.  A chromosome may not reappear after another one.
func NewBEDUnionFromEntries(entries []Entry) (BEDUnion, error) {
	u := BEDUnion{chroms: map[string]endpoints{}}
	var (
		chr string
		set endpoints
	)
	flush := func() {
		if chr != "" {
			u.chroms[chr] = set
		}
	}
	for _, e := range entries {
		if e.Start0 < 0 || e.End < e.Start0 || e.End >= PosTypeMax {
			return BEDUnion{}, errors.E(errors.Invalid,
				fmt.Sprintf("interval: invalid interval %s:[%d, %d)", e.ChrName, e.Start0, e.End))
		}
		if e.ChrName != chr {
			flush()
			if _, ok := u.chroms[e.ChrName]; ok {
				return BEDUnion{}, errors.E(errors.Invalid, "interval: unsorted input, chromosome", e.ChrName, "is split")
			}
			chr, set = e.ChrName, endpoints{}
		}
		if e.End == e.Start0 {
			continue
		}
		n := len(set)
		switch {
		case n == 0 || e.Start0 > set[n-1]:
			set = append(set, e.Start0, e.End)
		case e.Start0 < set[n-2]:
			return BEDUnion{}, errors.E(errors.Invalid,
				fmt.Sprintf("interval: unsorted input at %s:%d", e.ChrName, e.Start0))
		case e.End > set[n-1]:
			set[n-1] = e.End
		}
	}
	flush()
	return u, nil
}
