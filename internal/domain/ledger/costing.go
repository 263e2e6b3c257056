package ledger

import "github.com/shopspring/decimal"

// WeightedAverageCost implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(currentStock int64, currentCost decimal.Decimal, qtyIn int64, unitCost decimal.Decimal) decimal.Decimal {
	stock := decimal.NewFromInt(currentStock)
	entry := decimal.NewFromInt(qtyIn)
	sum := stock.Add(entry)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stock.Mul(currentCost).Add(entry.Mul(unitCost))
	return num.Div(sum)
}
