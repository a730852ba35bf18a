package lob

import (
	"iter"

	"github.com/huandu/skiplist"
)

// priceComparator orders a Side's price levels. Ascending for asks (best =
// lowest price first), descending for bids (best = highest price first) —
// the same asc/desc pair of comparator structs VictorVVedtion-perp-dex's
// OrderBookV2 builds around github.com/huandu/skiplist, generalized here
// over the opaque Num type instead of a fixed cosmossdk.io/math.LegacyDec.
type priceComparator[N Num[N]] struct {
	descending bool
}

func (c priceComparator[N]) Compare(lhs, rhs any) int {
	l := lhs.(N)
	r := rhs.(N)
	cmp := l.Compare(r)
	if c.descending {
		return -cmp
	}
	return cmp
}

func (c priceComparator[N]) CalcScore(key any) float64 {
	score := key.(N).Float64()
	if c.descending {
		return -score
	}
	return score
}

var _ skiplist.Comparable = priceComparator[comparableNum]{}

// Side is one half of the book: a price-ordered map of Levels, plus a fixed
// traversal direction. Hash maps are unsuitable here per spec.md §9 because
// traversal must stay in price order; skiplist gives O(log n) insertion and
// lookup while keeping that order, the same tradeoff the pack's perp-dex
// order book makes.
type Side[ID comparable, N Num[N], O OrderInterface[ID, N]] struct {
	isBid  bool
	levels *skiplist.SkipList
}

// NewSide creates an empty Side. isBid selects descending (bid) vs ascending
// (ask) price traversal.
func NewSide[ID comparable, N Num[N], O OrderInterface[ID, N]](isBid bool) *Side[ID, N, O] {
	return &Side[ID, N, O]{
		isBid:  isBid,
		levels: skiplist.New(priceComparator[N]{descending: isBid}),
	}
}

// Len returns the number of distinct price levels resting on this side.
func (s *Side[ID, N, O]) Len() int { return s.levels.Len() }

// IsEmpty reports whether this side has no resting orders.
func (s *Side[ID, N, O]) IsEmpty() bool { return s.levels.Len() == 0 }

func (s *Side[ID, N, O]) levelAt(price N) *Level[ID, N, O] {
	elem := s.levels.Get(price)
	if elem == nil {
		return nil
	}
	return elem.Value.(*Level[ID, N, O])
}

// InsertOrder appends o to the tail of its price level (creating the level
// on demand) and returns the order's stable handle.
func (s *Side[ID, N, O]) InsertOrder(o O) Handle {
	price := o.Price()
	level := s.levelAt(price)
	if level == nil {
		level = newLevel[ID, N, O](price)
		s.levels.Set(price, level)
	}
	return level.AddOrder(o)
}

// FillOrder fills the order at handle by n, garbage-collecting its price
// level from the map if that empties it. Returns true if the order was fully
// filled and removed. The caller must ensure handle belongs to this Side.
func (s *Side[ID, N, O]) FillOrder(handle Handle, n N, order O) bool {
	level := s.levelAt(order.Price())
	removed := level.FillOrder(handle, n)
	if level.IsEmpty() {
		s.levels.Remove(level.Price())
	}
	return removed
}

// RemoveOrder unlinks the order at handle, garbage-collecting its price
// level if that empties it. The caller must ensure handle belongs to this Side.
func (s *Side[ID, N, O]) RemoveOrder(handle Handle, order O) {
	level := s.levelAt(order.Price())
	level.RemoveOrder(handle)
	if level.IsEmpty() {
		s.levels.Remove(level.Price())
	}
}

// All yields resting orders flat, in this Side's configured direction and
// FIFO within each level — the price-time priority traversal spec.md §4.3
// requires. It is a push iterator over the skiplist's levels and each
// level's container/list elements, in Go's range-over-func protocol (iter.Seq), so callers can `for o := range
// side.All()` and `break` mid-traversal without the Side needing to know why.
func (s *Side[ID, N, O]) All() iter.Seq[O] {
	return func(yield func(O) bool) {
		for e := s.levels.Front(); e != nil; e = e.Next() {
			level := e.Value.(*Level[ID, N, O])
			for h := level.Front(); h != nil; h = level.Next(h) {
				if !yield(level.Value(h)) {
					return
				}
			}
		}
	}
}

// Levels yields (price, total remaining quantity) pairs in this Side's
// direction, without descending into per-order detail — used to build
// aggregated L2 snapshots.
func (s *Side[ID, N, O]) Levels() iter.Seq2[N, N] {
	return func(yield func(N, N) bool) {
		for e := s.levels.Front(); e != nil; e = e.Next() {
			level := e.Value.(*Level[ID, N, O])
			if !yield(level.Price(), level.TotalQuantity()) {
				return
			}
		}
	}
}

// comparableNum is a minimal Num instantiation used only to type-check the
// priceComparator generic instantiation above at compile time.
type comparableNum int64

func (c comparableNum) Add(o comparableNum) comparableNum { return c + o }
func (c comparableNum) Sub(o comparableNum) comparableNum { return c - o }
func (c comparableNum) Compare(o comparableNum) int {
	switch {
	case c < o:
		return -1
	case c > o:
		return 1
	default:
		return 0
	}
}
func (c comparableNum) IsZero() bool     { return c == 0 }
func (c comparableNum) Float64() float64 { return float64(c) }
