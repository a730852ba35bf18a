// Package lob implements a generic price-time priority limit order book with
// a two-phase evaluate/apply execution model.
//
// The package is organized in four layers, leaves first:
//
//   - list.go:  the intrusive FIFO queue of resting orders at one price
//     (a thin contract wrapper around container/list, the same way the
//     teacher's orderbook package already uses *list.List for its price
//     levels).
//   - level.go: a Level wraps one price's order list plus a cached total
//     remaining quantity.
//   - side.go:  a Side is a price-ordered map of Levels (ascending for asks,
//     descending for bids) with a flat, price-time priority order iterator.
//   - orderbook.go: OrderBook owns both Sides, an id index for O(1) cancel,
//     and the eval/apply verbs.
//
// None of this package knows what an order actually is. Callers plug in a
// concrete type implementing OrderInterface[ID, N]; domain.Order is the one
// shipped alongside it.
package lob
