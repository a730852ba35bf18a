package domain

import (
	"fmt"
	"time"

	"github.com/nathanyu/lob-exchange/internal/lob"
)

// Side represents the order side (buy or sell).
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCanceled        OrderStatus = "canceled"
)

// OrderType represents the type of order. Only limit orders for this lab.
type OrderType string

const (
	OrderTypeLimit OrderType = "limit"
)

// Cents is an integer price/quantity unit avoiding floating-point drift in
// the matching core. It implements lob.Num[Cents].
type Cents int64

func (c Cents) Add(o Cents) Cents { return c + o }
func (c Cents) Sub(o Cents) Cents { return c - o }
func (c Cents) Compare(o Cents) int {
	switch {
	case c < o:
		return -1
	case c > o:
		return 1
	default:
		return 0
	}
}
func (c Cents) IsZero() bool     { return c == 0 }
func (c Cents) Float64() float64 { return float64(c) }

var _ lob.Num[Cents] = Cents(0)

// Order represents a limit order in the exchange. Prices and quantities are
// in cents (Cents) to avoid floating-point issues, and the type satisfies
// lob.OrderInterface so it can be inserted directly into a matching core.
type Order struct {
	OrderID      string      `json:"order_id"`
	Symbol       string      `json:"symbol"`
	Side         Side        `json:"side"`
	LimitPrice   Cents       `json:"price"` // e.g. 10010 = $100.10
	Qty          Cents       `json:"quantity"`
	FilledQty    Cents       `json:"filled_quantity"`
	RemainingQty Cents       `json:"remaining_quantity"`
	Status       OrderStatus `json:"status"`
	UserID       string      `json:"user_id"`
	CreatedAt    time.Time   `json:"created_at"`
	SequenceID   uint64      `json:"sequence_id"`
}

// NewOrder builds a fresh, unfilled order.
func NewOrder(id, symbol string, side Side, price, qty Cents, userID string) *Order {
	return &Order{
		OrderID:      id,
		Symbol:       symbol,
		Side:         side,
		LimitPrice:   price,
		Qty:          qty,
		RemainingQty: qty,
		Status:       OrderStatusNew,
		UserID:       userID,
		CreatedAt:    time.Now(),
	}
}

func (o *Order) ID() string       { return o.OrderID }
func (o *Order) IsBuy() bool      { return o.Side == SideBuy }
func (o *Order) Price() Cents     { return o.LimitPrice }
func (o *Order) Quantity() Cents  { return o.Qty }
func (o *Order) Remaining() Cents { return o.RemainingQty }

// Fill decrements the order's remaining quantity by n and advances its
// status. It panics on overfill: the matching core is single-writer and
// never issues a Fill instruction larger than an order's resting remainder,
// so this would indicate a broken invariant upstream.
func (o *Order) Fill(n Cents) {
	if n > o.RemainingQty {
		panic(fmt.Sprintf("order %s: fill %d exceeds remaining %d", o.OrderID, n, o.RemainingQty))
	}
	o.RemainingQty -= n
	o.FilledQty += n
	if o.RemainingQty.IsZero() {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}
}

var _ lob.OrderInterface[string, Cents] = (*Order)(nil)

// Execution represents a trade execution between two orders.
type Execution struct {
	ExecID       string    `json:"exec_id"`
	OrderID      string    `json:"order_id"`
	Symbol       string    `json:"symbol"`
	Side         Side      `json:"side"`
	Price        Cents     `json:"price"`
	Quantity     Cents     `json:"quantity"`
	MakerOrderID string    `json:"maker_order_id"`
	TakerOrderID string    `json:"taker_order_id"`
	Timestamp    time.Time `json:"timestamp"`
	SequenceID   uint64    `json:"sequence_id"`
}

// Candlestick represents OHLCV data for a time interval.
type Candlestick struct {
	Symbol    string    `json:"symbol"`
	Open      Cents     `json:"open"`
	High      Cents     `json:"high"`
	Low       Cents     `json:"low"`
	Close     Cents     `json:"close"`
	Volume    Cents     `json:"volume"`
	VWAP      Cents     `json:"vwap"`
	Timestamp time.Time `json:"timestamp"`
	Interval  string    `json:"interval"` // e.g. "1m", "5m"
}

// L2OrderBook represents an aggregated L2 order book snapshot.
type L2OrderBook struct {
	Symbol string       `json:"symbol"`
	Bids   []PriceLevel `json:"bids"`
	Asks   []PriceLevel `json:"asks"`
}

// PriceLevel represents an aggregated price level in the L2 order book.
type PriceLevel struct {
	Price    Cents `json:"price"`
	Quantity Cents `json:"quantity"`
}

// OrderAction is the action type sent through the sequencer.
type OrderAction string

const (
	OrderActionNew    OrderAction = "new"
	OrderActionCancel OrderAction = "cancel"
)

// OrderEvent wraps an order with its action for the sequencer pipeline.
type OrderEvent struct {
	Action   OrderAction
	Order    *Order
	CancelID string // set when Action == OrderActionCancel
	Symbol   string
}

// ExecutionEvent wraps executions with the updated orders for downstream processing.
type ExecutionEvent struct {
	Executions []*Execution
	TakerOrder *Order
	// MakerOrders that were fully or partially filled
	MakerOrders []*Order
	// Rejected carries a NoOp reason when the event produced no effect.
	Rejected string
}
