package repository

import "math/rand"

// Treap-backed sorted set.
//
// Ordering: score ASC, then member ASC (deterministic). The tree is
// size-augmented so rank and index-range queries stay O(log n) without
// materializing the whole set.

type znode struct {
	member string
	score  float64
	prio   uint64
	left   *znode
	right  *znode
	size   int
}

func zsize(n *znode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func zfix(n *znode) {
	if n != nil {
		n.size = 1 + zsize(n.left) + zsize(n.right)
	}
}

// zless returns true if (aScore, aMember) orders before (bScore, bMember).
func zless(aScore float64, aMember string, bScore float64, bMember string) bool {
	if aScore != bScore {
		return aScore < bScore
	}
	return aMember < bMember
}

func zrotateRight(y *znode) *znode {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	zfix(y)
	zfix(x)
	return x
}

func zrotateLeft(x *znode) *znode {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	zfix(x)
	zfix(y)
	return y
}

func zinsert(n *znode, member string, score float64, prio uint64) *znode {
	if n == nil {
		return &znode{member: member, score: score, prio: prio, size: 1}
	}
	if zless(score, member, n.score, n.member) {
		n.left = zinsert(n.left, member, score, prio)
		if n.left.prio > n.prio {
			n = zrotateRight(n)
		}
	} else {
		n.right = zinsert(n.right, member, score, prio)
		if n.right.prio > n.prio {
			n = zrotateLeft(n)
		}
	}
	zfix(n)
	return n
}

func zdelete(n *znode, member string, score float64) *znode {
	if n == nil {
		return nil
	}
	if score == n.score && member == n.member {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = zrotateRight(n)
			n.right = zdelete(n.right, member, score)
		} else {
			n = zrotateLeft(n)
			n.left = zdelete(n.left, member, score)
		}
	} else if zless(score, member, n.score, n.member) {
		n.left = zdelete(n.left, member, score)
	} else {
		n.right = zdelete(n.right, member, score)
	}
	zfix(n)
	return n
}

// zrankOf returns the 0-based ascending rank of a member, -1 if absent.
func zrankOf(n *znode, member string, score float64) int {
	rank := 0
	for n != nil {
		switch {
		case score == n.score && member == n.member:
			return rank + zsize(n.left)
		case zless(score, member, n.score, n.member):
			n = n.left
		default:
			rank += zsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// zcollect appends members with ascending index in [start, stop] (inclusive).
func zcollect(n *znode, base, start, stop int, out *[]string) {
	if n == nil || base > stop || base+n.size <= start {
		return
	}
	zcollect(n.left, base, start, stop, out)
	i := base + zsize(n.left)
	if i >= start && i <= stop {
		*out = append(*out, n.member)
	}
	zcollect(n.right, i+1, start, stop, out)
}

// zset pairs the treap with a member index for O(1) score lookups.
type zset struct {
	root     *znode
	byMember map[string]float64
	rng      *rand.Rand
}

func newZSet(rng *rand.Rand) *zset {
	return &zset{byMember: make(map[string]float64), rng: rng}
}

// add upserts a member's score.
func (z *zset) add(member string, score float64) {
	if old, ok := z.byMember[member]; ok {
		if old == score {
			return
		}
		z.root = zdelete(z.root, member, old)
	}
	z.byMember[member] = score
	z.root = zinsert(z.root, member, score, z.rng.Uint64())
}

func (z *zset) rem(member string) {
	old, ok := z.byMember[member]
	if !ok {
		return
	}
	delete(z.byMember, member)
	z.root = zdelete(z.root, member, old)
}

func (z *zset) card() int {
	return zsize(z.root)
}

// rangeAsc returns members between normalized ascending indexes, inclusive.
func (z *zset) rangeAsc(start, stop int) []string {
	out := make([]string, 0, stop-start+1)
	zcollect(z.root, 0, start, stop, &out)
	return out
}

// revRank returns the 0-based descending rank of a member.
func (z *zset) revRank(member string) (int, bool) {
	score, ok := z.byMember[member]
	if !ok {
		return 0, false
	}
	asc := zrankOf(z.root, member, score)
	if asc < 0 {
		return 0, false
	}
	return z.card() - 1 - asc, true
}
