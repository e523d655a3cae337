package annotation

import "github.com/biogo/store/llrb"

type rankKey struct {
	total int64
	seq   int
	s     Summary
}

// Compare orders by total, then by insertion order.
func (k rankKey) Compare(c llrb.Comparable) int {
	k2 := c.(rankKey)
	switch {
	case k.total < k2.total:
		return -1
	case k.total > k2.total:
		return 1
	}
	return k.seq - k2.seq
}

// TopN returns the n summaries with the largest totals in ascending order of
// total.  Among equal totals, summaries inserted earlier sort first, so when a
// tie straddles the cutoff the later-inserted summaries are kept.  If s holds
// fewer than n summaries, all of them are returned.
func TopN(s *Summaries, n int) []Summary {
	if n <= 0 {
		return nil
	}
	var tree llrb.Tree
	for i, sum := range s.All() {
		tree.Insert(rankKey{total: sum.Total(), seq: i, s: sum})
		if tree.Len() > n {
			tree.DeleteMin()
		}
	}
	top := make([]Summary, 0, tree.Len())
	tree.Do(func(c llrb.Comparable) bool {
		top = append(top, c.(rankKey).s)
		return false
	})
	return top
}
