package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWeightedAverageCost(t *testing.T) {
	d := decimal.NewFromInt

	// (5*10 + 10*8) / 15
	got := WeightedAverageCost(5, d(10), 10, d(8))
	assert.True(t, got.Equal(d(130).Div(d(15))), "fue %s", got)

	// Sin stock previo el costo es el de la entrada
	got = WeightedAverageCost(0, decimal.Zero, 4, d(7))
	assert.True(t, got.Equal(d(7)), "fue %s", got)

	// Mismo costo en ambos lados: el promedio no se mueve
	got = WeightedAverageCost(3, d(9), 6, d(9))
	assert.True(t, got.Equal(d(9)), "fue %s", got)

	// Sin unidades no hay promedio posible
	got = WeightedAverageCost(0, d(10), 0, d(8))
	assert.True(t, got.IsZero(), "fue %s", got)
}
