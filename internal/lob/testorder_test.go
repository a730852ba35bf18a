package lob

// testOrder is the minimal OrderInterface implementation used to exercise
// the matching core in isolation from the domain package, mirroring
// TestOrder in the Rust reference's order module.
type testOrder struct {
	id        string
	isBuy     bool
	price     testNum
	quantity  testNum
	remaining testNum
}

func newTestOrder(id string, isBuy bool, price, qty int64) *testOrder {
	return &testOrder{
		id:        id,
		isBuy:     isBuy,
		price:     testNum(price),
		quantity:  testNum(qty),
		remaining: testNum(qty),
	}
}

func (o *testOrder) ID() string        { return o.id }
func (o *testOrder) IsBuy() bool       { return o.isBuy }
func (o *testOrder) Price() testNum    { return o.price }
func (o *testOrder) Quantity() testNum { return o.quantity }
func (o *testOrder) Remaining() testNum {
	return o.remaining
}
func (o *testOrder) Fill(n testNum) { o.remaining = o.remaining.Sub(n) }

func (o *testOrder) clone() *testOrder {
	dup := *o
	return &dup
}

var _ OrderInterface[string, testNum] = (*testOrder)(nil)

// testNum is a plain int64 Num instantiation for table-driven lob tests.
type testNum int64

func (n testNum) Add(o testNum) testNum { return n + o }
func (n testNum) Sub(o testNum) testNum { return n - o }
func (n testNum) Compare(o testNum) int {
	switch {
	case n < o:
		return -1
	case n > o:
		return 1
	default:
		return 0
	}
}
func (n testNum) IsZero() bool     { return n == 0 }
func (n testNum) Float64() float64 { return float64(n) }

func newBook() *OrderBook[string, testNum, *testOrder] {
	return New[string, testNum, *testOrder]()
}

// setupOrder inserts an order directly into the book's resting state,
// bypassing eval/apply, for tests that need pre-seeded liquidity.
func setupOrder(ob *OrderBook[string, testNum, *testOrder], id string, isBuy bool, price, qty int64) {
	order := newTestOrder(id, isBuy, price, qty)
	var handle Handle
	if isBuy {
		handle = ob.bids.InsertOrder(order)
	} else {
		handle = ob.asks.InsertOrder(order)
	}
	ob.index[id] = handle
}
