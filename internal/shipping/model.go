package shipping

import "github.com/shopspring/decimal"

type Destination struct {
	Country    string `json:"country"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Dimensions are in centimetres.
type Dimensions struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
}

type Package struct {
	Weight     decimal.NullDecimal `json:"weight"`
	Dimensions *Dimensions         `json:"dimensions,omitempty"`
	Value      decimal.NullDecimal `json:"value"`
}

// Request is the wire shape of a quote request. Required numeric fields are
// nullable so a missing value can be told apart from zero.
type Request struct {
	Destination    Destination         `json:"destination"`
	Package        Package             `json:"package"`
	OrderValue     decimal.NullDecimal `json:"orderValue"`
	ShippingMethod string              `json:"shippingMethod,omitempty"`
	CustomerType   string              `json:"customerType,omitempty"`
}

type Option struct {
	Method            Method
	Carrier           string
	Cost              decimal.Decimal
	Currency          string
	EstimatedDays     int
	Description       string
	TrackingIncluded  bool
	InsuranceIncluded bool
}

type Breakdown struct {
	DestinationCountry       string
	DestinationZone          Zone
	LocationMultiplier       decimal.Decimal
	ActualWeight             decimal.Decimal
	VolumetricWeight         decimal.Decimal
	DimensionSurcharge       decimal.Decimal
	WeightSurcharge          decimal.Decimal
	CustomerType             CustomerType
	CustomerDiscount         decimal.Decimal
	VATRate                  decimal.Decimal
	FreeShippingThreshold    decimal.Decimal
	QualifiesForFreeShipping bool
	Currency                 string
}

type Quote struct {
	Options   []Option
	Breakdown Breakdown
}

func (q *Quote) Find(method Method) (Option, bool) {
	if q == nil {
		return Option{}, false
	}
	for _, o := range q.Options {
		if o.Method == method {
			return o, true
		}
	}
	return Option{}, false
}
