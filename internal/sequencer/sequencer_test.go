package sequencer

import (
	"testing"
	"time"

	"github.com/nathanyu/lob-exchange/internal/domain"
	"github.com/nathanyu/lob-exchange/internal/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer_StampsSequenceIDs(t *testing.T) {
	engine := matching.NewEngine()
	seq := NewSequencer(engine, 100)
	seq.Start()
	defer seq.Stop()

	for i := range 3 {
		order := domain.NewOrder("o"+string(rune('1'+i)), "AAPL", domain.SideSell, 10010, 100, "user1")
		seq.OrderIn <- &domain.OrderEvent{Action: domain.OrderActionNew, Order: order}
	}

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, uint64(3), seq.CurrentInboundSeq())
}

func TestSequencer_MonotonicIDs(t *testing.T) {
	engine := matching.NewEngine()
	seq := NewSequencer(engine, 100)
	seq.Start()
	defer seq.Stop()

	sell := domain.NewOrder("s1", "AAPL", domain.SideSell, 10010, 100, "user1")
	seq.OrderIn <- &domain.OrderEvent{Action: domain.OrderActionNew, Order: sell}

	time.Sleep(20 * time.Millisecond)

	buy := domain.NewOrder("b1", "AAPL", domain.SideBuy, 10010, 100, "user2")
	seq.OrderIn <- &domain.OrderEvent{Action: domain.OrderActionNew, Order: buy}

	var events []*domain.ExecutionEvent
	timeout := time.After(200 * time.Millisecond)
loop:
	for {
		select {
		case evt := <-seq.ExecutionOut:
			events = append(events, evt)
		case <-timeout:
			break loop
		}
	}
	assert.Equal(t, uint64(2), seq.CurrentInboundSeq())

	var execEvent *domain.ExecutionEvent
	for _, e := range events {
		if len(e.Executions) > 0 {
			execEvent = e
			break
		}
	}
	require.NotNil(t, execEvent)
	assert.Equal(t, uint64(1), execEvent.Executions[0].SequenceID)
}
