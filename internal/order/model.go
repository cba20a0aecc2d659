package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusDisputed   Status = "DISPUTED"
	StatusRefunded   Status = "REFUNDED"
)

var allStatuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
	StatusDelivered, StatusCancelled, StatusDisputed, StatusRefunded,
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusDisputed PaymentStatus = "DISPUTED"
)

const Currency = "EUR"

type Order struct {
	ID            string
	UserID        string
	Owner         string
	CustomerEmail string
	CustomerName  string

	Items []Item

	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       string

	Status           Status
	PaymentStatus    PaymentStatus
	PaymentReference *string

	ShippingMethod    string
	ShippingAddress   *ShippingAddress
	Carrier           string
	TrackingNumber    string
	TrackingURL       string
	EstimatedDelivery time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Item struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingAddress is stored as JSONB on the order row.
type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// CheckoutItem is a cart line as submitted by the storefront. Name and Price
// are informational only; the stored product is authoritative.
type CheckoutItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

type CheckoutRequest struct {
	Items           []CheckoutItem
	CustomerEmail   string
	CustomerName    string
	UserID          string
	ShippingAddress *ShippingAddress
	ShippingMethod  string
}

type CheckoutResult struct {
	SessionID string
	URL       string
	OrderID   string
}

// TransitionResult reports what a webhook or admin event did to an order.
type TransitionResult struct {
	OrderID       string
	From          Status
	To            Status
	PaymentStatus PaymentStatus
	// Applied is false when the order was already in the target state.
	Applied      bool
	StockUpdated int
}
