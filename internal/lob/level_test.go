package lob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_AddOrder(t *testing.T) {
	lv := newLevel[string, testNum, *testOrder](100)
	lv.AddOrder(newTestOrder("1", true, 100, 50))
	assert.Equal(t, testNum(50), lv.TotalQuantity())
	assert.False(t, lv.IsEmpty())

	lv.AddOrder(newTestOrder("2", true, 100, 30))
	assert.Equal(t, testNum(80), lv.TotalQuantity())
}

func TestLevel_FillOrder(t *testing.T) {
	lv := newLevel[string, testNum, *testOrder](100)
	handle := lv.AddOrder(newTestOrder("1", true, 100, 50))

	removed := lv.FillOrder(handle, 20)
	assert.False(t, removed)
	assert.Equal(t, testNum(30), lv.TotalQuantity())

	removed = lv.FillOrder(handle, 30)
	assert.True(t, removed)
	assert.True(t, lv.IsEmpty())
}

func TestLevel_RemoveOrder(t *testing.T) {
	lv := newLevel[string, testNum, *testOrder](100)
	h1 := lv.AddOrder(newTestOrder("1", true, 100, 50))
	lv.AddOrder(newTestOrder("2", true, 100, 30))

	lv.RemoveOrder(h1)
	assert.Equal(t, testNum(30), lv.TotalQuantity())
	assert.False(t, lv.IsEmpty())
}

func TestLevel_FIFOOrdering(t *testing.T) {
	lv := newLevel[string, testNum, *testOrder](100)
	lv.AddOrder(newTestOrder("1", true, 100, 10))
	lv.AddOrder(newTestOrder("2", true, 100, 20))
	lv.AddOrder(newTestOrder("3", true, 100, 30))

	var ids []string
	for h := lv.Front(); h != nil; h = lv.Next(h) {
		ids = append(ids, lv.Value(h).ID())
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestLevel_Price(t *testing.T) {
	lv := newLevel[string, testNum, *testOrder](150)
	assert.Equal(t, testNum(150), lv.Price())
}

func TestLevel_EmptyAfterAllRemoved(t *testing.T) {
	lv := newLevel[string, testNum, *testOrder](100)
	h := lv.AddOrder(newTestOrder("1", true, 100, 50))
	require.False(t, lv.IsEmpty())
	lv.RemoveOrder(h)
	assert.True(t, lv.IsEmpty())
	assert.Equal(t, testNum(0), lv.TotalQuantity())
}
