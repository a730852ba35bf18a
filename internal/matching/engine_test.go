package matching

import (
	"testing"

	"github.com/nathanyu/lob-exchange/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(id string, symbol string, side domain.Side, price, qty int64) *domain.Order {
	return domain.NewOrder(id, symbol, side, domain.Cents(price), domain.Cents(qty), "user1")
}

func TestEngine_NewOrder_NoMatch(t *testing.T) {
	engine := NewEngine()

	order := newOrder("o1", "AAPL", domain.SideSell, 10010, 1000)
	event := &domain.OrderEvent{Action: domain.OrderActionNew, Order: order}
	result := engine.HandleOrder(event)

	require.NotNil(t, result)
	assert.Empty(t, result.Executions)
	assert.Equal(t, order, result.TakerOrder)

	snap := engine.GetL2Snapshot("AAPL", 5)
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, domain.Cents(1000), snap.Asks[0].Quantity)
}

func TestEngine_NewOrder_Match(t *testing.T) {
	engine := NewEngine()

	sell := newOrder("s1", "AAPL", domain.SideSell, 10010, 1000)
	engine.HandleOrder(&domain.OrderEvent{Action: domain.OrderActionNew, Order: sell})

	buy := newOrder("b1", "AAPL", domain.SideBuy, 10010, 200)
	result := engine.HandleOrder(&domain.OrderEvent{Action: domain.OrderActionNew, Order: buy})

	require.Len(t, result.Executions, 1)
	assert.Equal(t, domain.Cents(200), result.Executions[0].Quantity)
	assert.Equal(t, domain.Cents(10010), result.Executions[0].Price)
	assert.Equal(t, domain.OrderStatusFilled, buy.Status)

	snap := engine.GetL2Snapshot("AAPL", 5)
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, domain.Cents(800), snap.Asks[0].Quantity)
}

func TestEngine_CancelOrder(t *testing.T) {
	engine := NewEngine()

	sell := newOrder("s1", "AAPL", domain.SideSell, 10010, 1000)
	engine.HandleOrder(&domain.OrderEvent{Action: domain.OrderActionNew, Order: sell})

	result := engine.HandleOrder(&domain.OrderEvent{
		Action:   domain.OrderActionCancel,
		Symbol:   "AAPL",
		CancelID: "s1",
	})

	require.NotNil(t, result)
	assert.Equal(t, domain.OrderStatusCanceled, result.TakerOrder.Status)

	snap := engine.GetL2Snapshot("AAPL", 5)
	assert.Empty(t, snap.Asks)
}

func TestEngine_CancelOrder_NotFound(t *testing.T) {
	engine := NewEngine()
	result := engine.HandleOrder(&domain.OrderEvent{
		Action:   domain.OrderActionCancel,
		Symbol:   "AAPL",
		CancelID: "ghost",
	})
	require.NotNil(t, result)
	assert.Nil(t, result.TakerOrder)
	assert.NotEmpty(t, result.Rejected)
}

func TestEngine_DuplicateOrder_Rejected(t *testing.T) {
	engine := NewEngine()
	order := newOrder("s1", "AAPL", domain.SideSell, 10010, 100)
	engine.HandleOrder(&domain.OrderEvent{Action: domain.OrderActionNew, Order: order})

	dup := newOrder("s1", "AAPL", domain.SideSell, 10010, 50)
	result := engine.HandleOrder(&domain.OrderEvent{Action: domain.OrderActionNew, Order: dup})
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Rejected)
	assert.Empty(t, result.Executions)
}

func TestEngine_MultipleSymbols(t *testing.T) {
	engine := NewEngine()

	engine.HandleOrder(&domain.OrderEvent{
		Action: domain.OrderActionNew,
		Order:  newOrder("a1", "AAPL", domain.SideSell, 10010, 100),
	})
	engine.HandleOrder(&domain.OrderEvent{
		Action: domain.OrderActionNew,
		Order:  newOrder("g1", "GOOG", domain.SideSell, 20000, 50),
	})

	aaplSnap := engine.GetL2Snapshot("AAPL", 5)
	googSnap := engine.GetL2Snapshot("GOOG", 5)

	require.Len(t, aaplSnap.Asks, 1)
	require.Len(t, googSnap.Asks, 1)
	assert.Equal(t, domain.Cents(10010), aaplSnap.Asks[0].Price)
	assert.Equal(t, domain.Cents(20000), googSnap.Asks[0].Price)
}

func TestEngine_Determinism(t *testing.T) {
	build := func() []*domain.OrderEvent {
		return []*domain.OrderEvent{
			{Action: domain.OrderActionNew, Order: newOrder("s1", "AAPL", domain.SideSell, 10010, 100)},
			{Action: domain.OrderActionNew, Order: newOrder("s2", "AAPL", domain.SideSell, 10010, 200)},
			{Action: domain.OrderActionNew, Order: newOrder("b1", "AAPL", domain.SideBuy, 10010, 150)},
		}
	}

	run := func() []*domain.Execution {
		e := NewEngine()
		var allExecs []*domain.Execution
		for _, evt := range build() {
			result := e.HandleOrder(evt)
			allExecs = append(allExecs, result.Executions...)
		}
		return allExecs
	}

	execs1 := run()
	execs2 := run()

	require.Equal(t, len(execs1), len(execs2))
	for i := range execs1 {
		assert.Equal(t, execs1[i].Quantity, execs2[i].Quantity)
		assert.Equal(t, execs1[i].Price, execs2[i].Price)
		assert.Equal(t, execs1[i].MakerOrderID, execs2[i].MakerOrderID)
	}
}

func TestEngine_GetL2Snapshot_NonexistentSymbol(t *testing.T) {
	engine := NewEngine()
	snap := engine.GetL2Snapshot("UNKNOWN", 5)
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
}

func TestEngine_MultiMakerMatch(t *testing.T) {
	engine := NewEngine()
	engine.HandleOrder(&domain.OrderEvent{Action: domain.OrderActionNew, Order: newOrder("s1", "AAPL", domain.SideSell, 10010, 30)})
	engine.HandleOrder(&domain.OrderEvent{Action: domain.OrderActionNew, Order: newOrder("s2", "AAPL", domain.SideSell, 10010, 40)})

	buy := newOrder("b1", "AAPL", domain.SideBuy, 10010, 100)
	result := engine.HandleOrder(&domain.OrderEvent{Action: domain.OrderActionNew, Order: buy})

	require.Len(t, result.Executions, 2)
	assert.Equal(t, domain.Cents(30), result.Executions[0].Quantity)
	assert.Equal(t, domain.Cents(40), result.Executions[1].Quantity)
	assert.Equal(t, domain.OrderStatusPartiallyFilled, buy.Status)
	assert.Equal(t, domain.Cents(30), buy.RemainingQty)
}
