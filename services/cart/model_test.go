package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/services/catalogapi"
)

var assortment = []catalogapi.Product{
	{UID: "prod_beer", Name: "Beer", Price: decimal.NewFromInt(1500)},
	{UID: "prod_wine", Name: "Wine", Price: decimal.NewFromInt(2500)},
	{UID: "prod_soda", Name: "Soda", Price: decimal.NewFromInt(800)},
}

func TestCartModel(t *testing.T) {

	t.Run("New cart starts with zero quantities", func(t *testing.T) {
		cart := newCart("session_1", 1, assortment, mytime.ExampleTime)

		assert.Len(t, cart.Lines, 3)
		for _, line := range cart.Lines {
			assert.Equal(t, 0, line.Quantity)
		}
		assert.False(t, cart.hasSelection())
		assert.True(t, cart.totalAmount().IsZero())
	})

	t.Run("Increment raises quantity", func(t *testing.T) {
		cart := newCart("session_1", 1, assortment, mytime.ExampleTime)

		cart.increment("prod_beer")
		cart.increment("prod_beer")

		assert.Equal(t, 2, cart.Lines[0].Quantity)
		assert.True(t, cart.hasSelection())
	})

	t.Run("Decrement never goes below zero", func(t *testing.T) {
		cart := newCart("session_1", 1, assortment, mytime.ExampleTime)

		cart.increment("prod_beer")
		cart.decrement("prod_beer")
		cart.decrement("prod_beer")
		cart.decrement("prod_beer")

		assert.Equal(t, 0, cart.Lines[0].Quantity)
		assert.False(t, cart.hasSelection())
	})

	t.Run("Remove clears quantity entirely", func(t *testing.T) {
		cart := newCart("session_1", 1, assortment, mytime.ExampleTime)

		cart.increment("prod_wine")
		cart.increment("prod_wine")
		cart.increment("prod_wine")
		cart.remove("prod_wine")

		assert.Equal(t, 0, cart.Lines[1].Quantity)
	})

	t.Run("Unknown product is ignored", func(t *testing.T) {
		cart := newCart("session_1", 1, assortment, mytime.ExampleTime)

		cart.increment("prod_unknown")

		assert.False(t, cart.hasSelection())
	})

	t.Run("Only selected lines contribute to the total", func(t *testing.T) {
		cart := newCart("session_1", 1, assortment, mytime.ExampleTime)

		cart.increment("prod_beer")
		cart.increment("prod_beer")
		cart.increment("prod_soda")

		selected := cart.selectedLines()
		assert.Len(t, selected, 2)
		assert.True(t, decimal.NewFromInt(3800).Equal(cart.totalAmount()))
	})

	t.Run("Total quantity sums units across lines", func(t *testing.T) {
		cart := newCart("session_1", 1, assortment, mytime.ExampleTime)
		assert.Equal(t, 0, cart.totalQuantity())

		cart.increment("prod_beer")
		cart.increment("prod_beer")
		cart.increment("prod_wine")

		assert.Equal(t, 3, cart.totalQuantity())

		cart.decrement("prod_beer")
		assert.Equal(t, 2, cart.totalQuantity())
	})

	t.Run("Reinitialize drops the selection", func(t *testing.T) {
		cart := newCart("session_1", 1, assortment, mytime.ExampleTime)
		cart.increment("prod_beer")

		cart.reinitialize(2, assortment[:2])

		assert.Equal(t, int64(2), cart.CatalogRevision)
		assert.Len(t, cart.Lines, 2)
		assert.False(t, cart.hasSelection())
	})

	t.Run("Reset keeps lines but clears quantities", func(t *testing.T) {
		cart := newCart("session_1", 1, assortment, mytime.ExampleTime)
		cart.increment("prod_beer")
		cart.increment("prod_soda")

		cart.reset()

		assert.Len(t, cart.Lines, 3)
		assert.False(t, cart.hasSelection())
	})
}
