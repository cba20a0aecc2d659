package payment

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type CheckoutSessionParams struct {
	OrderID       string
	CustomerEmail string
	Currency      string
	Items         []LineItem
	ShippingCost  decimal.Decimal
	ShippingLabel string
}

type WebhookRecord struct {
	Provider   string
	EventID    string
	EventType  string
	ExternalID string
	Payload    json.RawMessage
}

// ToMinorUnits converts an amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
