package api

import (
	"time"

	"protexwear-api/internal/order"
	"protexwear-api/internal/shipping"
)

type ShippingOptionDTO struct {
	Method            string  `json:"method"`
	Carrier           string  `json:"carrier"`
	Cost              float64 `json:"cost"`
	Currency          string  `json:"currency"`
	EstimatedDays     int     `json:"estimatedDays"`
	Description       string  `json:"description"`
	TrackingIncluded  bool    `json:"trackingIncluded"`
	InsuranceIncluded bool    `json:"insuranceIncluded"`
}

type CalculationDetailsDTO struct {
	DestinationCountry       string  `json:"destinationCountry"`
	DestinationZone          string  `json:"destinationZone"`
	LocationMultiplier       float64 `json:"locationMultiplier"`
	ActualWeight             float64 `json:"actualWeight"`
	VolumetricWeight         float64 `json:"volumetricWeight"`
	DimensionSurcharge       float64 `json:"dimensionSurcharge"`
	WeightSurcharge          float64 `json:"weightSurcharge"`
	CustomerType             string  `json:"customerType"`
	CustomerDiscount         float64 `json:"customerDiscount"`
	VATRate                  float64 `json:"vatRate"`
	FreeShippingThreshold    float64 `json:"freeShippingThreshold"`
	QualifiesForFreeShipping bool    `json:"qualifiesForFreeShipping"`
	Currency                 string  `json:"currency"`
}

type OrderItemDTO struct {
	ProductID string  `json:"productId"`
	SKU       string  `json:"sku,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

type OrderDTO struct {
	ID                string                 `json:"id"`
	UserID            string                 `json:"userId"`
	CustomerEmail     string                 `json:"customerEmail"`
	CustomerName      string                 `json:"customerName,omitempty"`
	Items             []OrderItemDTO         `json:"items"`
	Subtotal          float64                `json:"subtotal"`
	ShippingCost      float64                `json:"shippingCost"`
	TaxAmount         float64                `json:"taxAmount"`
	DiscountAmount    float64                `json:"discountAmount"`
	TotalAmount       float64                `json:"totalAmount"`
	Currency          string                 `json:"currency"`
	Status            string                 `json:"status"`
	PaymentStatus     string                 `json:"paymentStatus"`
	PaymentReference  *string                `json:"paymentReference,omitempty"`
	ShippingMethod    string                 `json:"shippingMethod"`
	ShippingAddress   *order.ShippingAddress `json:"shippingAddress,omitempty"`
	Carrier           string                 `json:"carrier,omitempty"`
	TrackingNumber    string                 `json:"trackingNumber,omitempty"`
	TrackingURL       string                 `json:"trackingUrl,omitempty"`
	EstimatedDelivery *time.Time             `json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

type TransitionDTO struct {
	OrderID       string `json:"orderId"`
	From          string `json:"from"`
	To            string `json:"to"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
	Applied       bool   `json:"applied"`
}

func MapOptionToDTO(o shipping.Option) ShippingOptionDTO {
	return ShippingOptionDTO{
		Method:            string(o.Method),
		Carrier:           o.Carrier,
		Cost:              o.Cost.InexactFloat64(),
		Currency:          o.Currency,
		EstimatedDays:     o.EstimatedDays,
		Description:       o.Description,
		TrackingIncluded:  o.TrackingIncluded,
		InsuranceIncluded: o.InsuranceIncluded,
	}
}

func MapOptionsToDTO(opts []shipping.Option) []ShippingOptionDTO {
	res := make([]ShippingOptionDTO, 0, len(opts))
	for _, o := range opts {
		res = append(res, MapOptionToDTO(o))
	}
	return res
}

func MapBreakdownToDTO(b shipping.Breakdown) CalculationDetailsDTO {
	return CalculationDetailsDTO{
		DestinationCountry:       b.DestinationCountry,
		DestinationZone:          string(b.DestinationZone),
		LocationMultiplier:       b.LocationMultiplier.InexactFloat64(),
		ActualWeight:             b.ActualWeight.InexactFloat64(),
		VolumetricWeight:         b.VolumetricWeight.InexactFloat64(),
		DimensionSurcharge:       b.DimensionSurcharge.InexactFloat64(),
		WeightSurcharge:          b.WeightSurcharge.InexactFloat64(),
		CustomerType:             string(b.CustomerType),
		CustomerDiscount:         b.CustomerDiscount.InexactFloat64(),
		VATRate:                  b.VATRate.InexactFloat64(),
		FreeShippingThreshold:    b.FreeShippingThreshold.InexactFloat64(),
		QualifiesForFreeShipping: b.QualifiesForFreeShipping,
		Currency:                 b.Currency,
	}
}

func MapOrderToDTO(o *order.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.InexactFloat64(),
			LineTotal: it.LineTotal().InexactFloat64(),
		})
	}

	dto := OrderDTO{
		ID:               o.ID,
		UserID:           o.UserID,
		CustomerEmail:    o.CustomerEmail,
		CustomerName:     o.CustomerName,
		Items:            items,
		Subtotal:         o.Subtotal.InexactFloat64(),
		ShippingCost:     o.ShippingCost.InexactFloat64(),
		TaxAmount:        o.TaxAmount.InexactFloat64(),
		DiscountAmount:   o.DiscountAmount.InexactFloat64(),
		TotalAmount:      o.TotalAmount.InexactFloat64(),
		Currency:         o.Currency,
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
		PaymentReference: o.PaymentReference,
		ShippingMethod:   o.ShippingMethod,
		ShippingAddress:  o.ShippingAddress,
		Carrier:          o.Carrier,
		TrackingNumber:   o.TrackingNumber,
		TrackingURL:      o.TrackingURL,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if !o.EstimatedDelivery.IsZero() {
		eta := o.EstimatedDelivery
		dto.EstimatedDelivery = &eta
	}
	return dto
}

func MapOrdersToDTO(orders []*order.Order) []OrderDTO {
	res := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		res = append(res, MapOrderToDTO(o))
	}
	return res
}

func MapTransitionToDTO(tr *order.TransitionResult) TransitionDTO {
	return TransitionDTO{
		OrderID:       tr.OrderID,
		From:          string(tr.From),
		To:            string(tr.To),
		PaymentStatus: string(tr.PaymentStatus),
		Applied:       tr.Applied,
	}
}
