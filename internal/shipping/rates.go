package shipping

import "github.com/shopspring/decimal"

type Method string

const (
	MethodStandard  Method = "standard"
	MethodExpress   Method = "express"
	MethodOvernight Method = "overnight"
)

// AllMethods is also the tie-break order when two options cost the same.
var AllMethods = []Method{MethodStandard, MethodExpress, MethodOvernight}

type CustomerType string

const (
	CustomerRetail    CustomerType = "retail"
	CustomerWholesale CustomerType = "wholesale"
	CustomerVIP       CustomerType = "vip"
)

type Zone string

const (
	ZoneDomestic      Zone = "domestic"
	ZoneEU            Zone = "eu"
	ZoneInternational Zone = "international"
)

const Currency = "EUR"

type methodRate struct {
	Base            decimal.Decimal
	WeightThreshold decimal.Decimal
	PerKgSurcharge  decimal.Decimal
	Carrier         string
	Description     string
	EstimatedDays   int
}

var methodRates = map[Method]methodRate{
	MethodStandard: {
		Base:            decimal.RequireFromString("9.99"),
		WeightThreshold: decimal.NewFromInt(2),
		PerKgSurcharge:  decimal.RequireFromString("2.50"),
		Carrier:         "Correos Express",
		Description:     "Envío estándar",
		EstimatedDays:   3,
	},
	MethodExpress: {
		Base:            decimal.RequireFromString("19.99"),
		WeightThreshold: decimal.NewFromInt(2),
		PerKgSurcharge:  decimal.RequireFromString("3.50"),
		Carrier:         "SEUR",
		Description:     "Envío urgente",
		EstimatedDays:   2,
	},
	MethodOvernight: {
		Base:            decimal.RequireFromString("39.99"),
		WeightThreshold: decimal.NewFromInt(1),
		PerKgSurcharge:  decimal.RequireFromString("5.00"),
		Carrier:         "DHL Express",
		Description:     "Entrega al día siguiente",
		EstimatedDays:   1,
	},
}

var zoneMultipliers = map[Zone]decimal.Decimal{
	ZoneDomestic:      decimal.NewFromInt(1),
	ZoneEU:            decimal.RequireFromString("1.5"),
	ZoneInternational: decimal.RequireFromString("2.5"),
}

var customerDiscounts = map[CustomerType]decimal.Decimal{
	CustomerRetail:    decimal.Zero,
	CustomerWholesale: decimal.RequireFromString("0.15"),
	CustomerVIP:       decimal.RequireFromString("0.20"),
}

var freeShippingThresholds = map[CustomerType]decimal.Decimal{
	CustomerRetail:    decimal.NewFromInt(100),
	CustomerWholesale: decimal.NewFromInt(250),
	CustomerVIP:       decimal.NewFromInt(50),
}

var (
	vatRate = decimal.RequireFromString("0.21")

	volumetricDivisor     = decimal.NewFromInt(5000)
	volumetricThresholdKg = decimal.NewFromInt(5)
	volumetricPerKg       = decimal.RequireFromString("1.50")

	insuranceValueThreshold = decimal.NewFromInt(100)
)

const (
	euExtraDays            = 2
	internationalExtraDays = 5
)

var domesticCountries = map[string]bool{
	"ES":     true,
	"SPAIN":  true,
	"ESPAÑA": true,
	"ESPANA": true,
}

var euCountries = map[string]bool{
	"AT": true, "AUSTRIA": true,
	"BE": true, "BELGIUM": true,
	"BG": true, "BULGARIA": true,
	"HR": true, "CROATIA": true,
	"CY": true, "CYPRUS": true,
	"CZ": true, "CZECHIA": true, "CZECH REPUBLIC": true,
	"DK": true, "DENMARK": true,
	"EE": true, "ESTONIA": true,
	"FI": true, "FINLAND": true,
	"FR": true, "FRANCE": true,
	"DE": true, "GERMANY": true,
	"GR": true, "GREECE": true,
	"HU": true, "HUNGARY": true,
	"IE": true, "IRELAND": true,
	"IT": true, "ITALY": true,
	"LV": true, "LATVIA": true,
	"LT": true, "LITHUANIA": true,
	"LU": true, "LUXEMBOURG": true,
	"MT": true, "MALTA": true,
	"NL": true, "NETHERLANDS": true,
	"PL": true, "POLAND": true,
	"PT": true, "PORTUGAL": true,
	"RO": true, "ROMANIA": true,
	"SK": true, "SLOVAKIA": true,
	"SI": true, "SLOVENIA": true,
	"SE": true, "SWEDEN": true,
}

// ResolveZone expects an already upper-cased country code or name. Anything
// unknown is treated as international.
func ResolveZone(country string) Zone {
	switch {
	case domesticCountries[country]:
		return ZoneDomestic
	case euCountries[country]:
		return ZoneEU
	default:
		return ZoneInternational
	}
}

func trackingURL(carrier, trackingNumber string) string {
	switch carrier {
	case "SEUR":
		return "https://www.seur.com/livetracking/?segOnlineIdentificador=" + trackingNumber
	case "DHL Express":
		return "https://www.dhl.com/es-es/home/tracking.html?tracking-id=" + trackingNumber
	default:
		return "https://s.correosexpress.com/search?shippingNumber=" + trackingNumber
	}
}

// TrackingURL builds the public tracking link for a method's carrier.
func TrackingURL(method Method, trackingNumber string) string {
	return trackingURL(methodRates[method].Carrier, trackingNumber)
}
