package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"protexwear-api/internal/logger"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

const DefaultStripeAPIBase = stripe.APIURL

type stripeGateway struct {
	sc         *client.API
	successURL string
	cancelURL  string
}

// NewStripeGateway builds its own API client rather than using the SDK's
// package-level key and backends, so the base URL can point at a test server.
func NewStripeGateway(secretKey, apiBase, successURL, cancelURL string) Gateway {
	if secretKey == "" {
		logger.L().Warn("Stripe secret key is empty")
	}
	if apiBase == "" {
		apiBase = DefaultStripeAPIBase
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(strings.TrimRight(apiBase, "/")),
		HTTPClient:        &http.Client{Timeout: 15 * time.Second},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.L().Sugar(),
	})

	return &stripeGateway{
		sc:         client.New(secretKey, &stripe.Backends{API: backend}),
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (g *stripeGateway) CreateCheckoutSession(
	ctx context.Context,
	params CheckoutSessionParams,
) (*stripe.CheckoutSession, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "CreateCheckoutSession"),
		zap.String("order_id", params.OrderID),
	)

	currency := strings.ToLower(params.Currency)
	if currency == "" {
		currency = "eur"
	}

	sp := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(params.OrderID),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"orderId": params.OrderID},
		},
	}
	sp.Context = ctx
	sp.AddMetadata("orderId", params.OrderID)
	// One session per order, even if the request is retried.
	sp.SetIdempotencyKey("checkout-" + params.OrderID)

	if params.CustomerEmail != "" {
		sp.CustomerEmail = stripe.String(params.CustomerEmail)
	}

	for _, item := range params.Items {
		sp.LineItems = append(sp.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(ToMinorUnits(item.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	if params.ShippingLabel != "" {
		sp.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				DisplayName: stripe.String(params.ShippingLabel),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(ToMinorUnits(params.ShippingCost)),
					Currency: stripe.String(currency),
				},
			},
		}}
	}

	log.Info("Sending checkout session request to Stripe", zap.Int("line_items", len(sp.LineItems)))

	session, err := g.sc.CheckoutSessions.New(sp)
	if err != nil {
		log.Error("Stripe checkout session failed", stripeErrorFields(err)...)
		return nil, err
	}

	log.Info("Stripe checkout session created", zap.String("session_id", session.ID))
	return session, nil
}

func (g *stripeGateway) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.Get(id, params)
	if err != nil {
		logger.FromCtx(ctx).Error("Failed to retrieve payment intent",
			append(stripeErrorFields(err), zap.String("payment_intent", id))...)
		return nil, err
	}
	return pi, nil
}

func (g *stripeGateway) GetCharge(ctx context.Context, id string) (*stripe.Charge, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx

	ch, err := g.sc.Charges.Get(id, params)
	if err != nil {
		logger.FromCtx(ctx).Error("Failed to retrieve charge",
			append(stripeErrorFields(err), zap.String("charge", id))...)
		return nil, err
	}
	return ch, nil
}

func stripeErrorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}

	var se *stripe.Error
	if errors.As(err, &se) {
		fields = append(fields,
			zap.Int("status", se.HTTPStatusCode),
			zap.String("stripe_type", string(se.Type)),
			zap.String("stripe_code", string(se.Code)),
			zap.String("request_id", se.RequestID),
		)
	}
	return fields
}
