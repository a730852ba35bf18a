package lob

// Msg is a reportable rejection reason surfaced inside a NoOp instruction,
// never as an out-of-band error — spec.md §7.
type Msg uint8

const (
	MsgOrderNotFound Msg = iota
	MsgOrderAlreadyExists
)

func (m Msg) String() string {
	switch m {
	case MsgOrderNotFound:
		return "order not found"
	case MsgOrderAlreadyExists:
		return "order already exists"
	default:
		return "unknown"
	}
}

// opKind discriminates an Op.
type opKind uint8

const (
	opInsert opKind = iota
	opDelete
)

// Op is one operation fed to Eval: insert a new order, or cancel one by id.
type Op[ID comparable, N Num[N], O OrderInterface[ID, N]] struct {
	kind  opKind
	order O
	id    ID
}

// InsertOp builds an Op that inserts order when evaluated.
func InsertOp[ID comparable, N Num[N], O OrderInterface[ID, N]](order O) Op[ID, N, O] {
	return Op[ID, N, O]{kind: opInsert, order: order}
}

// CancelOp builds an Op that cancels the resting order with id when evaluated.
func CancelOp[ID comparable, N Num[N], O OrderInterface[ID, N]](id ID) Op[ID, N, O] {
	return Op[ID, N, O]{kind: opDelete, id: id}
}

// instrKind discriminates an Instruction.
type instrKind uint8

const (
	instrInsert instrKind = iota
	instrFill
	instrDelete
	instrNoOp
)

// Instruction is the eval/apply contract: a finite ordered sequence of these
// is what Eval stages and Apply executes, spec.md §4.4.2.
type Instruction[ID comparable, N Num[N], O OrderInterface[ID, N]] struct {
	kind      instrKind
	order     O // Insert
	remaining N // Insert
	id        ID // Fill, Delete
	quantity  N  // Fill
	reason    Msg // NoOp
}

// IsNoOp reports whether this instruction had no effect.
func (in Instruction[ID, N, O]) IsNoOp() bool { return in.kind == instrNoOp }

// Reason returns the rejection reason for a NoOp instruction.
func (in Instruction[ID, N, O]) Reason() Msg { return in.reason }

// MakerFill is one (maker id, filled quantity) allocation within a Match.
type MakerFill[ID comparable, N Num[N]] struct {
	ID       ID
	Quantity N
}

// Match summarizes, for a single incoming crossing order, the total filled
// taker quantity and the per-maker allocations in the order they were taken —
// best-priority maker first, spec.md §4.4.3.
type Match[ID comparable, N Num[N]] struct {
	TakerID       ID
	TakerQuantity N
	Makers        []MakerFill[ID, N]
}

// OrderBook is the matching core: two Sides, an id index for O(1) cancel,
// and the transient shadow map that lets a batch of evals compose without
// double-counting quantity already staged against a maker. See spec.md §4.4.
type OrderBook[ID comparable, N Num[N], O OrderInterface[ID, N]] struct {
	bids   *Side[ID, N, O]
	asks   *Side[ID, N, O]
	index  map[ID]Handle
	shadow map[ID]N
}

// New creates an empty order book.
func New[ID comparable, N Num[N], O OrderInterface[ID, N]]() *OrderBook[ID, N, O] {
	return &OrderBook[ID, N, O]{
		bids:   NewSide[ID, N, O](true),
		asks:   NewSide[ID, N, O](false),
		index:  make(map[ID]Handle),
		shadow: make(map[ID]N),
	}
}

// Bids returns the resting buy side, best (highest) price first.
func (ob *OrderBook[ID, N, O]) Bids() *Side[ID, N, O] { return ob.bids }

// Asks returns the resting sell side, best (lowest) price first.
func (ob *OrderBook[ID, N, O]) Asks() *Side[ID, N, O] { return ob.asks }

// Has reports whether id is currently resting in the book.
func (ob *OrderBook[ID, N, O]) Has(id ID) bool {
	_, ok := ob.index[id]
	return ok
}

// Eval folds a batch of operations through EvalInsert/EvalCancel, in list
// order, returning every Match produced and the full instruction stream.
func (ob *OrderBook[ID, N, O]) Eval(ops []Op[ID, N, O]) ([]Match[ID, N], []Instruction[ID, N, O]) {
	var matches []Match[ID, N]
	var instructions []Instruction[ID, N, O]

	for _, op := range ops {
		switch op.kind {
		case opInsert:
			m, instrs := ob.EvalInsert(op.order)
			if m != nil {
				matches = append(matches, *m)
			}
			instructions = append(instructions, instrs...)
		case opDelete:
			instructions = append(instructions, ob.EvalCancel(op.id))
		}
	}

	return matches, instructions
}

// EvalInsert is a dry run of inserting order: it walks the opposite Side in
// price-time order, reconciling against resting makers (honoring quantity
// already staged in shadow from earlier evals in this batch), and returns the
// resulting Match (if any) plus the instructions apply must execute. It
// mutates only shadow; the book's visible state is unchanged until Apply.
func (ob *OrderBook[ID, N, O]) EvalInsert(order O) (*Match[ID, N], []Instruction[ID, N, O]) {
	if _, exists := ob.index[order.ID()]; exists {
		return nil, []Instruction[ID, N, O]{{kind: instrNoOp, reason: MsgOrderAlreadyExists}}
	}

	var remaining = order.Remaining()
	var taker N
	var makers []MakerFill[ID, N]
	var fills []Instruction[ID, N, O]

	isBuy := order.IsBuy()
	price := order.Price()

	opposite := ob.asks
	if !isBuy {
		opposite = ob.bids
	}

	for resting := range opposite.All() {
		// Price guard: the first resting order at a worse price halts the
		// traversal — no order further out could match either.
		if isBuy {
			if price.Compare(resting.Price()) < 0 {
				break
			}
		} else {
			if price.Compare(resting.Price()) > 0 {
				break
			}
		}

		effective, staged := ob.shadow[resting.ID()]
		if !staged {
			effective = resting.Remaining()
		}
		if effective.IsZero() {
			continue // consumed or cancelled earlier in this batch; keep walking
		}

		take := minNum(remaining, effective)
		remaining = remaining.Sub(take)
		taker = taker.Add(take)

		fills = append(fills, Instruction[ID, N, O]{kind: instrFill, id: resting.ID(), quantity: take})
		makers = append(makers, MakerFill[ID, N]{ID: resting.ID(), Quantity: take})
		ob.shadow[resting.ID()] = effective.Sub(take)

		if remaining.IsZero() {
			break
		}
	}

	var match *Match[ID, N]
	if !taker.IsZero() {
		match = &Match[ID, N]{TakerID: order.ID(), TakerQuantity: taker, Makers: makers}
	}

	instructions := fills
	if !remaining.IsZero() {
		// The taker's residual Insert goes to the front: apply executes
		// left-to-right, so the remainder rests on the taker's own side
		// before the fills land on makers of the opposite side.
		instructions = append([]Instruction[ID, N, O]{{kind: instrInsert, order: order, remaining: remaining}}, fills...)
	}

	return match, instructions
}

// EvalCancel is a dry run of cancelling id: if resting, it stages
// shadow[id] = 0 so later evals in the same batch treat it as unavailable,
// and returns a Delete instruction. Unknown ids return NoOp(OrderNotFound).
func (ob *OrderBook[ID, N, O]) EvalCancel(id ID) Instruction[ID, N, O] {
	if _, exists := ob.index[id]; !exists {
		return Instruction[ID, N, O]{kind: instrNoOp, reason: MsgOrderNotFound}
	}

	var zero N
	ob.shadow[id] = zero
	return Instruction[ID, N, O]{kind: instrDelete, id: id}
}

// Apply executes instructions in order, mutating resting book state, then
// clears shadow exactly once — even if instructions is empty.
func (ob *OrderBook[ID, N, O]) Apply(instructions []Instruction[ID, N, O]) {
	for _, instr := range instructions {
		switch instr.kind {
		case instrInsert:
			ob.applyInsert(instr.order, instr.remaining)
		case instrDelete:
			ob.applyDelete(instr.id)
		case instrFill:
			ob.applyFill(instr.id, instr.quantity)
		case instrNoOp:
			// no effect
		}
	}
	clear(ob.shadow)
}

func (ob *OrderBook[ID, N, O]) applyInsert(order O, remaining N) {
	filled := order.Quantity().Sub(remaining)
	if filled.Compare(zeroOf[N]()) > 0 {
		order.Fill(filled)
	}

	var handle Handle
	if order.IsBuy() {
		handle = ob.bids.InsertOrder(order)
	} else {
		handle = ob.asks.InsertOrder(order)
	}
	ob.index[order.ID()] = handle
}

func (ob *OrderBook[ID, N, O]) applyDelete(id ID) {
	handle, ok := ob.index[id]
	if !ok {
		return
	}
	order := handle.Value.(O)
	if order.IsBuy() {
		ob.bids.RemoveOrder(handle, order)
	} else {
		ob.asks.RemoveOrder(handle, order)
	}
	delete(ob.index, id)
}

func (ob *OrderBook[ID, N, O]) applyFill(id ID, n N) {
	handle, ok := ob.index[id]
	if !ok {
		return
	}
	order := handle.Value.(O)

	var removed bool
	if order.IsBuy() {
		removed = ob.bids.FillOrder(handle, n, order)
	} else {
		removed = ob.asks.FillOrder(handle, n, order)
	}
	if removed {
		delete(ob.index, id)
	}
}

func zeroOf[N any]() N {
	var z N
	return z
}
