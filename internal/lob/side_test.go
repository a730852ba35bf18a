package lob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSide_New(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	assert.True(t, side.IsEmpty())
	assert.Equal(t, 0, side.Len())
}

func TestSide_InsertOrder(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	side.InsertOrder(newTestOrder("1", true, 100, 50))
	assert.False(t, side.IsEmpty())
	assert.Equal(t, 1, side.Len())
}

func TestSide_InsertMultipleOrdersSamePrice(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	side.InsertOrder(newTestOrder("1", true, 100, 50))
	side.InsertOrder(newTestOrder("2", true, 100, 30))
	assert.Equal(t, 1, side.Len())
}

func TestSide_InsertOrdersDifferentPrices(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	side.InsertOrder(newTestOrder("1", true, 100, 50))
	side.InsertOrder(newTestOrder("2", true, 200, 30))
	side.InsertOrder(newTestOrder("3", true, 150, 20))
	assert.Equal(t, 3, side.Len())
}

func TestSide_RemoveOrder(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	o1 := newTestOrder("1", true, 100, 50)
	handle := side.InsertOrder(o1)
	side.InsertOrder(newTestOrder("2", true, 100, 30))
	side.RemoveOrder(handle, o1)
	assert.Equal(t, 1, side.Len())
}

func TestSide_RemoveOrder_SingleOrder(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	o1 := newTestOrder("1", true, 100, 50)
	handle := side.InsertOrder(o1)
	side.RemoveOrder(handle, o1)
	count := 0
	for range side.All() {
		count++
	}
	assert.Equal(t, 0, count)
	assert.True(t, side.IsEmpty())
}

func TestSide_IterBids(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	side.InsertOrder(newTestOrder("1", true, 100, 50))
	side.InsertOrder(newTestOrder("2", true, 300, 30))
	side.InsertOrder(newTestOrder("3", true, 200, 20))

	var prices []testNum
	for o := range side.All() {
		prices = append(prices, o.Price())
	}
	assert.Equal(t, []testNum{300, 200, 100}, prices)
}

func TestSide_IterAsks(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](false)
	side.InsertOrder(newTestOrder("1", false, 100, 50))
	side.InsertOrder(newTestOrder("2", false, 300, 30))
	side.InsertOrder(newTestOrder("3", false, 200, 20))

	var prices []testNum
	for o := range side.All() {
		prices = append(prices, o.Price())
	}
	assert.Equal(t, []testNum{100, 200, 300}, prices)
}

func TestSide_AllBreaksEarly(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	side.InsertOrder(newTestOrder("1", true, 100, 50))
	side.InsertOrder(newTestOrder("2", true, 200, 30))

	seen := 0
	for range side.All() {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestSide_Levels(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	side.InsertOrder(newTestOrder("1", true, 100, 50))
	side.InsertOrder(newTestOrder("2", true, 100, 30))
	side.InsertOrder(newTestOrder("3", true, 200, 20))

	var prices, totals []testNum
	for price, total := range side.Levels() {
		prices = append(prices, price)
		totals = append(totals, total)
	}
	assert.Equal(t, []testNum{200, 100}, prices)
	assert.Equal(t, []testNum{20, 80}, totals)
}

func TestSide_Len(t *testing.T) {
	side := NewSide[string, testNum, *testOrder](true)
	assert.Equal(t, 0, side.Len())
	side.InsertOrder(newTestOrder("1", true, 100, 50))
	assert.Equal(t, 1, side.Len())
	side.InsertOrder(newTestOrder("2", true, 200, 30))
	assert.Equal(t, 2, side.Len())
	side.InsertOrder(newTestOrder("3", true, 100, 20))
	assert.Equal(t, 2, side.Len())
}
