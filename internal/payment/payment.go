package payment

import (
	"context"

	"github.com/stripe/stripe-go/v76"
)

const ProviderStripe = "stripe"

// Gateway is the subset of the payment provider API the order core calls.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	GetCharge(ctx context.Context, id string) (*stripe.Charge, error)
}

// IdempotencyStore records provider events so a redelivered event is
// acknowledged without being applied twice.
type IdempotencyStore interface {
	// Claim atomically records the event. duplicate is true when the event
	// was already recorded and must not be processed again.
	Claim(ctx context.Context, rec WebhookRecord) (duplicate bool, err error)
	MarkProcessed(ctx context.Context, provider, eventID string) error
	MarkFailed(ctx context.Context, provider, eventID, reason string) error
	// Release drops an unprocessed claim so a redelivery of the event is
	// applied instead of being reported as a duplicate.
	Release(ctx context.Context, provider, eventID string) error
}
