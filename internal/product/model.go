package product

import "github.com/shopspring/decimal"

// DefaultWeightKg is used for products with no weight on record.
var DefaultWeightKg = decimal.RequireFromString("0.5")

type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	WeightKg decimal.Decimal `json:"weight_kg"`
}

// ShippingWeight falls back to DefaultWeightKg when no positive weight is stored.
func (p *Product) ShippingWeight() decimal.Decimal {
	if p.WeightKg.IsPositive() {
		return p.WeightKg
	}
	return DefaultWeightKg
}

// StockLine is one product quantity to check or decrement.
type StockLine struct {
	ProductID string
	Quantity  int
}
