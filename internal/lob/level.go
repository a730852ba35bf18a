package lob

// Level is the bucket of all resting orders at one price on one side: a FIFO
// queue plus a cached sum of remaining quantities. The invariant
// total == sum(orders.Remaining()) is maintained by every mutator below.
type Level[ID comparable, N Num[N], O OrderInterface[ID, N]] struct {
	price  N
	orders *orderList[O]
	total  N
}

func newLevel[ID comparable, N Num[N], O OrderInterface[ID, N]](price N) *Level[ID, N, O] {
	return &Level[ID, N, O]{price: price, orders: newTypedList[O]()}
}

// Price returns the price this level is keyed at.
func (lv *Level[ID, N, O]) Price() N { return lv.price }

// TotalQuantity returns the cached sum of resting orders' remaining quantity.
func (lv *Level[ID, N, O]) TotalQuantity() N { return lv.total }

// IsEmpty reports whether the level has no resting orders left.
func (lv *Level[ID, N, O]) IsEmpty() bool { return lv.orders.Len() == 0 }

// AddOrder appends an order to the tail of the FIFO queue and returns its
// stable handle.
func (lv *Level[ID, N, O]) AddOrder(o O) Handle {
	lv.total = lv.total.Add(o.Remaining())
	return lv.orders.PushBack(o)
}

// FillOrder decrements the order referenced by handle by n, updates the
// cached total, and unlinks the node if the order is now fully filled.
// Returns true when the order was removed.
func (lv *Level[ID, N, O]) FillOrder(handle Handle, n N) bool {
	o := lv.orders.Value(handle)
	o.Fill(n)
	lv.total = lv.total.Sub(n)

	if o.Remaining().IsZero() {
		lv.orders.Remove(handle)
		return true
	}
	return false
}

// RemoveOrder unlinks the node at handle and decrements the cached total by
// its remaining quantity, without filling it.
func (lv *Level[ID, N, O]) RemoveOrder(handle Handle) {
	o := lv.orders.Value(handle)
	lv.orders.Remove(handle)
	lv.total = lv.total.Sub(o.Remaining())
}

// Front returns the oldest resting order's handle, or nil if the level is empty.
func (lv *Level[ID, N, O]) Front() Handle { return lv.orders.Front() }

// Next returns the handle following h within this level, or nil at the end.
func (lv *Level[ID, N, O]) Next(h Handle) Handle { return h.Next() }

// Value returns the order stored at handle.
func (lv *Level[ID, N, O]) Value(h Handle) O { return lv.orders.Value(h) }
