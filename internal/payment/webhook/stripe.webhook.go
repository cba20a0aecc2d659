package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"protexwear-api/internal/apperror"
	"protexwear-api/internal/logger"
	"protexwear-api/internal/metrics"
	"protexwear-api/internal/order"
	"protexwear-api/internal/payment"
	"protexwear-api/internal/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const (
	maxBodyBytes    = 64 << 10
	SignatureHeader = "Stripe-Signature"
	orderIDKey      = "orderId"

	msgNoOrderID = "No orderId in metadata"
)

var errSignature = apperror.Authentication("Webhook signature verification failed")

// Result is the per-event outcome echoed back to the provider.
type Result struct {
	Message       string `json:"message,omitempty"`
	OrderID       string `json:"orderId,omitempty"`
	Status        string `json:"status,omitempty"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
	StockUpdated  *int   `json:"stockUpdated,omitempty"`
	Duplicate     bool   `json:"duplicate,omitempty"`
	Error         string `json:"error,omitempty"`
}

type Response struct {
	Received  bool    `json:"received"`
	EventID   string  `json:"eventId"`
	EventType string  `json:"eventType"`
	Result    *Result `json:"result"`
}

type Handler struct {
	OrderSvc order.Service
	Gateway  payment.Gateway
	Store    payment.IdempotencyStore
	Metrics  *metrics.Webhook
	secret   string
}

func NewWebhookHandler(
	orderSvc order.Service,
	gateway payment.Gateway,
	store payment.IdempotencyStore,
	secret string,
	m *metrics.Webhook,
) *Handler {
	if m == nil {
		m = &metrics.Webhook{}
	}
	return &Handler{
		OrderSvc: orderSvc,
		Gateway:  gateway,
		Store:    store,
		Metrics:  m,
		secret:   secret,
	}
}

func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "webhook"),
		zap.String("method", "PaymentWebhookHandler"),
	)

	h.Metrics.Received.Inc()
	timer := metrics.StartTimer()
	defer func() { h.Metrics.Latency.Observe(timer.Duration()) }()

	// 1. Read and verify
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		h.Metrics.Rejected.Inc()
		log.Warn("missing signature header")
		utils.WriteJSONError(w, "Missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.Metrics.Rejected.Inc()
		log.Warn("failed to read body", zap.Error(err))
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		h.Metrics.Rejected.Inc()
		utils.WriteJSONError(w, "Missing request body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEventWithOptions(body, signature, h.secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		h.Metrics.Rejected.Inc()
		log.Warn("signature verification failed", zap.Error(err))
		utils.WriteJSONError(w, errSignature.Message, apperror.HTTPStatus(errSignature))
		return
	}

	eventType := string(event.Type)
	ctx = logger.WithFields(ctx, zap.String("event_id", event.ID), zap.String("event_type", eventType))
	log = logger.FromCtx(ctx).With(
		zap.String("layer", "webhook"),
		zap.String("method", "PaymentWebhookHandler"),
	)
	resp := Response{Received: true, EventID: event.ID, EventType: eventType}

	// 2. Idempotency
	duplicate, err := h.Store.Claim(ctx, payment.WebhookRecord{
		Provider:   payment.ProviderStripe,
		EventID:    event.ID,
		EventType:  eventType,
		ExternalID: objectID(event),
		Payload:    body,
	})
	if err != nil {
		log.Error("idempotency store unavailable, processing without dedupe", zap.Error(err))
	} else if duplicate {
		h.Metrics.Duplicates.Inc()
		log.Info("duplicate webhook ignored")
		resp.Result = &Result{Message: "Event already processed", Duplicate: true}
		utils.WriteJSON(w, http.StatusOK, resp)
		return
	}

	// 3. Dispatch
	result, err := h.dispatch(ctx, event)
	if err != nil {
		h.Metrics.Failed.Inc()
		log.Error("webhook handling failed", zap.Error(err))
		h.settleFailure(ctx, log, event.ID, err)
		resp.Result = &Result{Error: apperror.PublicMessage(err)}
		utils.WriteJSON(w, http.StatusOK, resp)
		return
	}

	h.Metrics.Processed.Inc()
	if markErr := h.Store.MarkProcessed(ctx, payment.ProviderStripe, event.ID); markErr != nil {
		log.Error("failed to mark webhook processed", zap.Error(markErr))
	}

	resp.Result = result
	utils.WriteJSON(w, http.StatusOK, resp)
}

// settleFailure releases the claim when the failure may be transient, so a
// resend of the event is applied. Rejections by the order lifecycle are final
// and stay recorded against the event.
func (h *Handler) settleFailure(ctx context.Context, log *zap.Logger, eventID string, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		if relErr := h.Store.Release(ctx, payment.ProviderStripe, eventID); relErr != nil {
			log.Error("failed to release webhook claim", zap.Error(relErr))
		}
		return
	}
	if markErr := h.Store.MarkFailed(ctx, payment.ProviderStripe, eventID, err.Error()); markErr != nil {
		log.Error("failed to mark webhook failed", zap.Error(markErr))
	}
}

func (h *Handler) dispatch(ctx context.Context, event stripe.Event) (*Result, error) {
	var raw json.RawMessage
	if event.Data != nil {
		raw = event.Data.Raw
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return h.handlePaymentIntent(ctx, raw, h.OrderSvc.MarkAsPaid, "Order confirmed")
	case "payment_intent.payment_failed":
		return h.handlePaymentIntent(ctx, raw, h.OrderSvc.MarkAsFailed, "Order cancelled")
	case "charge.dispute.created":
		return h.handleDispute(ctx, raw)
	case "invoice.payment_succeeded",
		"customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		h.Metrics.Ignored.Inc()
		logger.FromCtx(ctx).Info("subscription event acknowledged")
		return &Result{Message: "Acknowledged " + string(event.Type)}, nil
	default:
		h.Metrics.Ignored.Inc()
		return &Result{Message: "Unhandled event type: " + string(event.Type)}, nil
	}
}

// objectID is the id of the provider object the event is about.
func objectID(event stripe.Event) string {
	if event.Data == nil {
		return ""
	}
	id, _ := event.Data.Object["id"].(string)
	return id
}

type transitionFunc func(ctx context.Context, orderID, paymentRef string) (*order.TransitionResult, error)

func (h *Handler) handlePaymentIntent(
	ctx context.Context,
	raw json.RawMessage,
	apply transitionFunc,
	message string,
) (*Result, error) {

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, apperror.Validation("Invalid payment intent payload")
	}

	orderID := pi.Metadata[orderIDKey]
	if orderID == "" {
		logger.FromCtx(ctx).Warn("payment intent without orderId", zap.String("payment_intent", pi.ID))
		return &Result{Message: msgNoOrderID}, nil
	}

	tr, err := apply(ctx, orderID, pi.ID)
	if err != nil {
		return nil, err
	}

	return toResult(tr, message), nil
}

func (h *Handler) handleDispute(ctx context.Context, raw json.RawMessage) (*Result, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "handleDispute"))

	var dispute stripe.Dispute
	if err := json.Unmarshal(raw, &dispute); err != nil {
		return nil, apperror.Validation("Invalid dispute payload")
	}

	paymentIntentID := ""
	if dispute.PaymentIntent != nil {
		paymentIntentID = dispute.PaymentIntent.ID
	}

	if paymentIntentID == "" {
		if dispute.Charge == nil || dispute.Charge.ID == "" {
			return nil, apperror.Validation("Dispute has no charge")
		}
		ch, err := h.Gateway.GetCharge(ctx, dispute.Charge.ID)
		if err != nil {
			log.Error("failed to fetch disputed charge", zap.Error(err))
			return nil, apperror.Internal(err)
		}
		if ch.PaymentIntent != nil {
			paymentIntentID = ch.PaymentIntent.ID
		}
	}

	if paymentIntentID == "" {
		return &Result{Message: msgNoOrderID}, nil
	}

	pi, err := h.Gateway.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		log.Error("failed to fetch disputed payment intent", zap.Error(err))
		return nil, apperror.Internal(err)
	}

	orderID := pi.Metadata[orderIDKey]
	if orderID == "" {
		return &Result{Message: msgNoOrderID}, nil
	}

	tr, err := h.OrderSvc.MarkAsDisputed(ctx, orderID, paymentIntentID)
	if err != nil {
		return nil, err
	}

	return toResult(tr, "Order disputed"), nil
}

func toResult(tr *order.TransitionResult, message string) *Result {
	res := &Result{
		Message:       message,
		OrderID:       tr.OrderID,
		Status:        string(tr.To),
		PaymentStatus: string(tr.PaymentStatus),
	}
	if !tr.Applied {
		res.Message = "Order already " + strings.ToLower(string(tr.To))
	}
	if tr.StockUpdated > 0 {
		n := tr.StockUpdated
		res.StockUpdated = &n
	}
	return res
}
