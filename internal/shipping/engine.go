package shipping

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"protexwear-api/internal/apperror"
	"protexwear-api/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidDestination  = apperror.Validation("Invalid destination: country is required")
	ErrInvalidWeight       = apperror.Validation("Invalid package weight")
	ErrInvalidDimensions   = apperror.Validation("Invalid package dimensions")
	ErrInvalidPackageValue = apperror.Validation("Invalid package value")
	ErrInvalidOrderValue   = apperror.Validation("Invalid order value")
)

type Engine interface {
	Calculate(ctx context.Context, req Request) (*Quote, error)
}

type engine struct{}

func NewEngine() Engine {
	return &engine{}
}

// input is a Request after validation and normalisation.
type input struct {
	country      string
	zone         Zone
	multiplier   decimal.Decimal
	weight       decimal.Decimal
	volumetric   decimal.Decimal
	dimSurcharge decimal.Decimal
	declared     decimal.Decimal
	orderValue   decimal.Decimal
	methods      []Method
	customer     CustomerType
}

func (e *engine) Calculate(ctx context.Context, req Request) (*Quote, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "shipping"),
		zap.String("method", "Calculate"),
	)

	in, err := validate(req)
	if err != nil {
		log.Warn("invalid shipping request", zap.Error(err))
		return nil, err
	}

	options := make([]Option, 0, len(in.methods))
	for _, m := range in.methods {
		opt, err := computeOption(in, m)
		if err != nil {
			// One broken method must not block the others.
			log.Error("shipping method skipped", zap.String("shipping_method", string(m)), zap.Error(err))
			continue
		}
		options = append(options, opt)
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Cost.LessThan(options[j].Cost)
	})

	log.Debug("shipping quote calculated",
		zap.String("country", in.country),
		zap.String("zone", string(in.zone)),
		zap.Int("options", len(options)),
	)

	return &Quote{Options: options, Breakdown: breakdown(in)}, nil
}

func validate(req Request) (*input, error) {
	country := strings.ToUpper(strings.TrimSpace(req.Destination.Country))
	if country == "" {
		return nil, ErrInvalidDestination
	}

	if !req.Package.Weight.Valid || !req.Package.Weight.Decimal.IsPositive() {
		return nil, ErrInvalidWeight
	}

	if !req.OrderValue.Valid || req.OrderValue.Decimal.IsNegative() {
		return nil, ErrInvalidOrderValue
	}

	declared := decimal.Zero
	if req.Package.Value.Valid {
		if req.Package.Value.Decimal.IsNegative() {
			return nil, ErrInvalidPackageValue
		}
		declared = req.Package.Value.Decimal
	}

	volumetric := decimal.Zero
	if d := req.Package.Dimensions; d != nil {
		if !d.Length.IsPositive() || !d.Width.IsPositive() || !d.Height.IsPositive() {
			return nil, ErrInvalidDimensions
		}
		volumetric = d.Length.Mul(d.Width).Mul(d.Height).Div(volumetricDivisor)
	}

	methods, err := parseMethods(req.ShippingMethod)
	if err != nil {
		return nil, err
	}

	customer, err := ParseCustomerType(req.CustomerType)
	if err != nil {
		return nil, err
	}

	zone := ResolveZone(country)

	return &input{
		country:      country,
		zone:         zone,
		multiplier:   zoneMultipliers[zone],
		weight:       req.Package.Weight.Decimal,
		volumetric:   volumetric,
		dimSurcharge: dimensionSurcharge(volumetric),
		declared:     declared,
		orderValue:   req.OrderValue.Decimal,
		methods:      methods,
		customer:     customer,
	}, nil
}

func parseMethods(raw string) ([]Method, error) {
	m := strings.ToLower(strings.TrimSpace(raw))
	if m == "" || m == "all" {
		return AllMethods, nil
	}
	method, err := ParseMethod(m)
	if err != nil {
		return nil, err
	}
	return []Method{method}, nil
}

func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := methodRates[m]; !ok {
		return "", apperror.Validation(fmt.Sprintf("Invalid shipping method: %s", raw))
	}
	return m, nil
}

// ParseCustomerType defaults an empty value to retail.
func ParseCustomerType(raw string) (CustomerType, error) {
	c := CustomerType(strings.ToLower(strings.TrimSpace(raw)))
	if c == "" {
		return CustomerRetail, nil
	}
	if _, ok := customerDiscounts[c]; !ok {
		return "", apperror.Validation(fmt.Sprintf("Invalid customer type: %s", raw))
	}
	return c, nil
}

func dimensionSurcharge(volumetric decimal.Decimal) decimal.Decimal {
	if volumetric.GreaterThan(volumetricThresholdKg) {
		return volumetric.Sub(volumetricThresholdKg).Mul(volumetricPerKg)
	}
	return decimal.Zero
}

func weightSurcharge(rate methodRate, weight decimal.Decimal) decimal.Decimal {
	if weight.GreaterThan(rate.WeightThreshold) {
		return weight.Sub(rate.WeightThreshold).Mul(rate.PerKgSurcharge)
	}
	return decimal.Zero
}

func qualifiesForFreeShipping(customer CustomerType, orderValue decimal.Decimal) bool {
	return orderValue.GreaterThanOrEqual(freeShippingThresholds[customer])
}

func computeOption(in *input, method Method) (Option, error) {
	rate, ok := methodRates[method]
	if !ok {
		return Option{}, fmt.Errorf("no rate configured for %q", method)
	}

	cost := rate.Base.Mul(in.multiplier)
	cost = cost.Add(weightSurcharge(rate, in.weight))
	cost = cost.Add(in.dimSurcharge)
	cost = cost.Mul(decimal.NewFromInt(1).Sub(customerDiscounts[in.customer]))

	description := rate.Description
	if method == MethodStandard && qualifiesForFreeShipping(in.customer, in.orderValue) {
		cost = decimal.Zero
		description = "Envío estándar gratuito"
	}

	cost = cost.Mul(decimal.NewFromInt(1).Add(vatRate))

	days := rate.EstimatedDays
	switch in.zone {
	case ZoneInternational:
		days += internationalExtraDays
	case ZoneEU:
		days += euExtraDays
	}

	return Option{
		Method:            method,
		Carrier:           rate.Carrier,
		Cost:              roundCents(cost),
		Currency:          Currency,
		EstimatedDays:     days,
		Description:       description,
		TrackingIncluded:  true,
		InsuranceIncluded: method != MethodStandard || in.declared.GreaterThan(insuranceValueThreshold),
	}, nil
}

// roundCents rounds half away from zero, i.e. half-up for non-negative costs.
func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// breakdown always reports the standard method's weight surcharge, whichever
// method was requested.
func breakdown(in *input) Breakdown {
	return Breakdown{
		DestinationCountry:       in.country,
		DestinationZone:          in.zone,
		LocationMultiplier:       in.multiplier,
		ActualWeight:             in.weight,
		VolumetricWeight:         roundCents(in.volumetric),
		DimensionSurcharge:       roundCents(in.dimSurcharge),
		WeightSurcharge:          roundCents(weightSurcharge(methodRates[MethodStandard], in.weight)),
		CustomerType:             in.customer,
		CustomerDiscount:         customerDiscounts[in.customer],
		VATRate:                  vatRate,
		FreeShippingThreshold:    freeShippingThresholds[in.customer],
		QualifiesForFreeShipping: qualifiesForFreeShipping(in.customer, in.orderValue),
		Currency:                 Currency,
	}
}
