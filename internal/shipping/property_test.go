package shipping

import (
	"context"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var (
	propCountries = []string{"ES", "FR", "DE", "PT", "US", "JP", "ZZ"}
	propCustomers = []string{"retail", "wholesale", "vip"}
)

func cents(n int) decimal.Decimal {
	return decimal.New(int64(n), -2)
}

func propRequest(country, customer, weightCents, orderCents int) Request {
	return Request{
		Destination:  Destination{Country: propCountries[country]},
		Package:      Package{Weight: decimal.NewNullDecimal(cents(weightCents))},
		OrderValue:   decimal.NewNullDecimal(cents(orderCents)),
		CustomerType: propCustomers[customer],
	}
}

func TestQuoteProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	engine := NewEngine()
	ctx := context.Background()

	countryGen := gen.IntRange(0, len(propCountries)-1)
	customerGen := gen.IntRange(0, len(propCustomers)-1)

	properties.Property("options are sorted by cost and rounded to cents", prop.ForAll(
		func(country, customer, weight, order int) bool {
			quote, err := engine.Calculate(ctx, propRequest(country, customer, weight, order))
			if err != nil || len(quote.Options) != len(AllMethods) {
				return false
			}
			for i, opt := range quote.Options {
				if opt.Cost.IsNegative() || !opt.Cost.Equal(opt.Cost.Round(2)) {
					return false
				}
				if i > 0 && quote.Options[i-1].Cost.GreaterThan(opt.Cost) {
					return false
				}
			}
			return true
		},
		countryGen, customerGen, gen.IntRange(1, 5000), gen.IntRange(0, 50000),
	))

	properties.Property("qualifying orders ship standard for free", prop.ForAll(
		func(country, customer, weight int) bool {
			c := CustomerType(propCustomers[customer])
			threshold := int(freeShippingThresholds[c].IntPart()) * 100
			quote, err := engine.Calculate(ctx, propRequest(country, customer, weight, threshold))
			if err != nil {
				return false
			}
			standard, ok := quote.Find(MethodStandard)
			return ok && standard.Cost.IsZero() && quote.Breakdown.QualifiesForFreeShipping
		},
		countryGen, customerGen, gen.IntRange(1, 5000),
	))

	properties.Property("light parcels pay no weight surcharge", prop.ForAll(
		func(weight int) bool {
			w := cents(weight)
			for _, rate := range methodRates {
				if !weightSurcharge(rate, w).IsZero() {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 100),
	))

	properties.Property("faster methods cost more when nothing is free", prop.ForAll(
		func(country, customer, weight int) bool {
			quote, err := engine.Calculate(ctx, propRequest(country, customer, weight, 0))
			if err != nil {
				return false
			}
			s, _ := quote.Find(MethodStandard)
			e, _ := quote.Find(MethodExpress)
			o, _ := quote.Find(MethodOvernight)
			return s.Cost.LessThan(e.Cost) && e.Cost.LessThan(o.Cost)
		},
		countryGen, customerGen, gen.IntRange(1, 100),
	))

	properties.Property("calculation is deterministic", prop.ForAll(
		func(country, customer, weight, order int) bool {
			req := propRequest(country, customer, weight, order)
			first, err1 := engine.Calculate(ctx, req)
			second, err2 := engine.Calculate(ctx, req)
			if err1 != nil || err2 != nil {
				return false
			}
			return reflect.DeepEqual(first, second)
		},
		countryGen, customerGen, gen.IntRange(1, 5000), gen.IntRange(0, 50000),
	))

	properties.TestingRun(t)
}
