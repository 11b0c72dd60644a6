package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCartTotals(t *testing.T) {
	items := []CartItem{
		{Quantity: 2, Price: 50},  // 100
		{Quantity: 4, Price: 25},  // 100
	}

	t.Run("no discount no tax", func(t *testing.T) {
		totals := ComputeCartTotals(items, "", 0, 0)
		assert.Equal(t, 200.0, totals.Subtotal)
		assert.Equal(t, 0.0, totals.DiscountAmount)
		assert.Equal(t, 0.0, totals.TaxAmount)
		assert.Equal(t, 200.0, totals.Total)
	})

	t.Run("fixed discount with tax", func(t *testing.T) {
		totals := ComputeCartTotals(items, DiscountFixed, 20, 5)
		assert.Equal(t, 200.0, totals.Subtotal)
		assert.Equal(t, 20.0, totals.DiscountAmount)
		assert.Equal(t, 9.0, totals.TaxAmount)
		assert.Equal(t, 189.0, totals.Total)
	})

	t.Run("percentage discount", func(t *testing.T) {
		totals := ComputeCartTotals(items, DiscountPercentage, 10, 0)
		assert.Equal(t, 20.0, totals.DiscountAmount)
		assert.Equal(t, 180.0, totals.Total)
	})

	t.Run("discount clamped to subtotal", func(t *testing.T) {
		totals := ComputeCartTotals(items, DiscountFixed, 500, 5)
		assert.Equal(t, 200.0, totals.DiscountAmount)
		assert.Equal(t, 0.0, totals.TaxAmount)
		assert.Equal(t, 0.0, totals.Total)
	})

	t.Run("negative discount clamped to zero", func(t *testing.T) {
		totals := ComputeCartTotals(items, DiscountFixed, -50, 0)
		assert.Equal(t, 0.0, totals.DiscountAmount)
		assert.Equal(t, 200.0, totals.Total)
	})

	t.Run("empty cart", func(t *testing.T) {
		totals := ComputeCartTotals(nil, DiscountPercentage, 50, 10)
		assert.Equal(t, 0.0, totals.Subtotal)
		assert.Equal(t, 0.0, totals.Total)
	})

	t.Run("deterministic for same input", func(t *testing.T) {
		a := ComputeCartTotals(items, DiscountPercentage, 12.5, 7.5)
		b := ComputeCartTotals(items, DiscountPercentage, 12.5, 7.5)
		assert.Equal(t, a, b)
	})
}
