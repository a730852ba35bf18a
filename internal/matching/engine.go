package matching

import (
	"fmt"
	"time"

	"github.com/nathanyu/lob-exchange/internal/domain"
	"github.com/nathanyu/lob-exchange/internal/lob"
	"github.com/nathanyu/lob-exchange/internal/middleware"
)

type book = lob.OrderBook[string, domain.Cents, *domain.Order]

// Engine is the matching engine. It maintains per-symbol order books, each a
// generic lob.OrderBook instantiated over domain.Order, and dispatches
// incoming order events through the eval/apply pipeline.
//
// lob.Match only carries (id, quantity) pairs, so Engine keeps its own
// orders index to recover the maker's resting price and symbol when turning
// a Match into domain.Execution records.
type Engine struct {
	books   map[string]*book
	orders  map[string]*domain.Order // orderID -> order, across all symbols
	execSeq uint64
}

// NewEngine creates a new matching engine.
func NewEngine() *Engine {
	return &Engine{
		books:  make(map[string]*book),
		orders: make(map[string]*domain.Order),
	}
}

func (e *Engine) getOrCreateBook(symbol string) *book {
	b, exists := e.books[symbol]
	if !exists {
		b = lob.New[string, domain.Cents, *domain.Order]()
		e.books[symbol] = b
	}
	return b
}

// HandleOrder processes an order event (new or cancel) and returns any resulting executions.
func (e *Engine) HandleOrder(event *domain.OrderEvent) *domain.ExecutionEvent {
	switch event.Action {
	case domain.OrderActionNew:
		return e.handleNew(event.Order)
	case domain.OrderActionCancel:
		return e.handleCancel(event.Symbol, event.CancelID)
	default:
		return nil
	}
}

// handleNew evaluates a new order against its symbol's book and, if the
// evaluation is accepted, applies it. A duplicate order id comes back as a
// NoOp and is surfaced on ExecutionEvent.Rejected rather than panicking.
func (e *Engine) handleNew(order *domain.Order) *domain.ExecutionEvent {
	b := e.getOrCreateBook(order.Symbol)

	ops := []lob.Op[string, domain.Cents, *domain.Order]{
		lob.InsertOp[string, domain.Cents, *domain.Order](order),
	}
	matches, instructions := b.Eval(ops)

	for _, instr := range instructions {
		if instr.IsNoOp() {
			return &domain.ExecutionEvent{TakerOrder: order, Rejected: instr.Reason().String()}
		}
	}

	now := time.Now()
	var executions []*domain.Execution
	makerOrders := make([]*domain.Order, 0)
	seen := make(map[string]bool)

	if len(matches) == 1 {
		match := matches[0]
		middleware.MatchesTotal.WithLabelValues(order.Symbol).Inc()
		for _, fill := range match.Makers {
			maker := e.orders[fill.ID]
			exec := e.newExecution(order, maker, fill.Quantity, now)
			executions = append(executions, exec)
			middleware.RecordFill(order.Symbol, float64(fill.Quantity))
			if maker != nil && !seen[maker.OrderID] {
				seen[maker.OrderID] = true
				makerOrders = append(makerOrders, maker)
			}
		}
	}

	b.Apply(instructions)

	if len(matches) == 1 {
		if !b.Has(order.OrderID) {
			// Fully filled: no Insert instruction was emitted, so Apply never
			// filled the taker itself.
			order.Fill(matches[0].TakerQuantity)
		}
		for _, fill := range matches[0].Makers {
			if maker := e.orders[fill.ID]; maker != nil && maker.Remaining().IsZero() {
				delete(e.orders, fill.ID)
			}
		}
	}
	if !order.Remaining().IsZero() {
		e.orders[order.OrderID] = order
	}

	e.reportDepth(order.Symbol, b)

	return &domain.ExecutionEvent{
		Executions:  executions,
		TakerOrder:  order,
		MakerOrders: makerOrders,
	}
}

// reportDepth publishes the resting order count and best price on each side
// of a symbol's book after a mutation.
func (e *Engine) reportDepth(symbol string, b *book) {
	bidDepth, askDepth := 0, 0
	var bestBid, bestAsk domain.Cents
	for o := range b.Bids().All() {
		if bidDepth == 0 {
			bestBid = o.Price()
		}
		bidDepth++
	}
	for o := range b.Asks().All() {
		if askDepth == 0 {
			bestAsk = o.Price()
		}
		askDepth++
	}
	middleware.OrderBookDepth.WithLabelValues(symbol, "bid").Set(float64(bidDepth))
	middleware.OrderBookDepth.WithLabelValues(symbol, "ask").Set(float64(askDepth))
	middleware.BestPrice.WithLabelValues(symbol, "bid").Set(float64(bestBid))
	middleware.BestPrice.WithLabelValues(symbol, "ask").Set(float64(bestAsk))
}

func (e *Engine) newExecution(taker, maker *domain.Order, qty domain.Cents, ts time.Time) *domain.Execution {
	e.execSeq++
	price := taker.Price()
	makerID := ""
	if maker != nil {
		price = maker.Price() // execute at maker's (resting) price
		makerID = maker.OrderID
	}
	return &domain.Execution{
		ExecID:       fmt.Sprintf("%s-exec-%d", taker.OrderID, e.execSeq),
		OrderID:      taker.OrderID,
		Symbol:       taker.Symbol,
		Side:         taker.Side,
		Price:        price,
		Quantity:     qty,
		MakerOrderID: makerID,
		TakerOrderID: taker.OrderID,
		Timestamp:    ts,
	}
}

// handleCancel cancels an existing order by id within a symbol's book.
func (e *Engine) handleCancel(symbol, orderID string) *domain.ExecutionEvent {
	b := e.getOrCreateBook(symbol)
	instr := b.EvalCancel(orderID)
	b.Apply([]lob.Instruction[string, domain.Cents, *domain.Order]{instr})

	order, known := e.orders[orderID]
	if instr.IsNoOp() || !known {
		return &domain.ExecutionEvent{Rejected: instr.Reason().String()}
	}

	order.Status = domain.OrderStatusCanceled
	delete(e.orders, orderID)
	e.reportDepth(symbol, b)
	return &domain.ExecutionEvent{TakerOrder: order}
}

// GetL2Snapshot returns an L2 snapshot for a symbol.
func (e *Engine) GetL2Snapshot(symbol string, depth int) *domain.L2OrderBook {
	b, exists := e.books[symbol]
	if !exists {
		return &domain.L2OrderBook{Symbol: symbol, Bids: []domain.PriceLevel{}, Asks: []domain.PriceLevel{}}
	}

	return &domain.L2OrderBook{
		Symbol: symbol,
		Bids:   collectLevels(b.Bids(), depth),
		Asks:   collectLevels(b.Asks(), depth),
	}
}

func collectLevels(side *lob.Side[string, domain.Cents, *domain.Order], depth int) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0)
	for price, total := range side.Levels() {
		if depth > 0 && len(levels) >= depth {
			break
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: total})
	}
	return levels
}
