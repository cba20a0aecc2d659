package order

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"protexwear-api/internal/apperror"
	"protexwear-api/internal/logger"
	"protexwear-api/internal/metrics"
	"protexwear-api/internal/payment"
	"protexwear-api/internal/product"
	"protexwear-api/internal/shipping"
	"protexwear-api/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultCountry   = "ES"
	defaultListLimit = 20
	maxListLimit     = 100
)

// vatDivisor extracts the VAT already included in catalogue prices.
var vatDivisor = decimal.RequireFromString("1.21")

type Service interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	// GetOrderDetail returns the order only to its owner or an admin.
	GetOrderDetail(ctx context.Context, orderID string) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error)

	MarkAsPaid(ctx context.Context, orderID, paymentRef string) (*TransitionResult, error)
	MarkAsFailed(ctx context.Context, orderID, paymentRef string) (*TransitionResult, error)
	MarkAsDisputed(ctx context.Context, orderID, paymentRef string) (*TransitionResult, error)
	ApplyAdminEvent(ctx context.Context, orderID string, event Event) (*TransitionResult, error)
}

type service struct {
	repo     Repository
	products product.Service
	engine   shipping.Engine
	gateway  payment.Gateway
}

func NewService(
	repo Repository,
	products product.Service,
	engine shipping.Engine,
	gateway payment.Gateway,
) Service {
	return &service{
		repo:     repo,
		products: products,
		engine:   engine,
		gateway:  gateway,
	}
}

func (s *service) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCheckout"),
		zap.Int("item_count", len(req.Items)),
	)

	log.Info("create checkout started")

	method, err := validateCheckout(req)
	if err != nil {
		log.Warn("invalid checkout request", zap.Error(err))
		return nil, err
	}

	// 1. Load products and check stock
	lines := make([]product.StockLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, product.StockLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	products, err := s.products.LoadForCheckout(ctx, lines)
	if err != nil {
		return nil, err
	}

	// 2. Price items from the catalogue
	items := make([]Item, 0, len(req.Items))
	subtotal := decimal.Zero
	weight := decimal.Zero
	for _, it := range req.Items {
		p := products[it.ProductID]
		if !it.Price.IsZero() && !it.Price.Equal(p.Price) {
			log.Warn("client price differs from catalogue",
				zap.String("product_id", p.ID),
				zap.String("client_price", it.Price.String()),
				zap.String("price", p.Price.String()),
			)
		}

		item := Item{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.LineTotal())
		weight = weight.Add(p.ShippingWeight().Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	// 3. Shipping quote for the chosen method
	option, err := s.quote(ctx, req, method, weight, subtotal)
	if err != nil {
		log.Warn("shipping quote failed", zap.Error(err))
		return nil, err
	}

	// 4. Build and persist the PENDING order
	o := s.newOrder(ctx, req, items, subtotal, option)

	log = log.With(zap.String("order_id", o.ID))
	log.Info("price calculated",
		zap.String("subtotal", o.Subtotal.String()),
		zap.String("shipping_cost", o.ShippingCost.String()),
		zap.String("tax_amount", o.TaxAmount.String()),
		zap.String("total_amount", o.TotalAmount.String()),
	)

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, apperror.Internal(err)
	}

	// 5. Provider checkout session. The order is not rolled back on failure.
	lineItems := make([]payment.LineItem, 0, len(items))
	for _, it := range items {
		lineItems = append(lineItems, payment.LineItem{Name: it.Name, UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutSessionParams{
		OrderID:       o.ID,
		CustomerEmail: o.CustomerEmail,
		Currency:      o.Currency,
		Items:         lineItems,
		ShippingCost:  o.ShippingCost,
		ShippingLabel: option.Description,
	})
	if err != nil {
		log.Error("checkout session failed, order left PENDING", zap.Error(err))
		return nil, apperror.Internal(err)
	}

	log.Info("checkout created successfully", zap.String("session_id", session.ID))

	return &CheckoutResult{
		SessionID: session.ID,
		URL:       session.URL,
		OrderID:   o.ID,
	}, nil
}

func validateCheckout(req CheckoutRequest) (shipping.Method, error) {
	if len(req.Items) == 0 {
		return "", ErrEmptyCart
	}

	for _, it := range req.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return "", apperror.Validation("Product id is required")
		}
		if it.Quantity <= 0 {
			return "", ErrInvalidQuantity
		}
		if it.Price.IsNegative() {
			return "", apperror.Validation("Price must not be negative")
		}
	}

	if req.CustomerEmail != "" {
		if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
			return "", ErrInvalidEmail
		}
	}

	if strings.TrimSpace(req.ShippingMethod) == "" {
		return shipping.MethodStandard, nil
	}
	return shipping.ParseMethod(req.ShippingMethod)
}

func (s *service) quote(
	ctx context.Context,
	req CheckoutRequest,
	method shipping.Method,
	weight, subtotal decimal.Decimal,
) (shipping.Option, error) {

	dest := shipping.Destination{Country: defaultCountry}
	if a := req.ShippingAddress; a != nil {
		if strings.TrimSpace(a.Country) != "" {
			dest.Country = a.Country
		}
		dest.City = a.City
		dest.PostalCode = a.PostalCode
	}

	q, err := s.engine.Calculate(ctx, shipping.Request{
		Destination:    dest,
		Package:        shipping.Package{Weight: decimal.NewNullDecimal(weight)},
		OrderValue:     decimal.NewNullDecimal(subtotal),
		ShippingMethod: string(method),
		CustomerType:   customerTier(ctx),
	})
	if err != nil {
		return shipping.Option{}, err
	}

	option, ok := q.Find(method)
	if !ok {
		return shipping.Option{}, apperror.Validation(fmt.Sprintf("Shipping method unavailable: %s", method))
	}
	return option, nil
}

// customerTier prices checkout by the tier on the caller's token. Anonymous
// callers and unknown tiers pay retail.
func customerTier(ctx context.Context) string {
	tier := utils.GetCustomerTierFromContext(ctx)
	if _, err := shipping.ParseCustomerType(tier); err != nil {
		logger.FromCtx(ctx).Warn("unknown customer tier on token, pricing as retail",
			zap.String("tier", tier),
		)
		return string(shipping.CustomerRetail)
	}
	return tier
}

func (s *service) newOrder(
	ctx context.Context,
	req CheckoutRequest,
	items []Item,
	subtotal decimal.Decimal,
	option shipping.Option,
) *Order {

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		userID = strings.TrimSpace(req.UserID)
	}
	if userID == "" {
		userID = utils.GuestUserID
	}

	email := req.CustomerEmail
	if email == "" {
		email = utils.GetUserEmailFromContext(ctx)
	}

	now := time.Now().UTC()
	status, paymentStatus := NewOrderStatus()
	tracking := utils.GenerateTrackingNumber()

	return &Order{
		ID:                uuid.NewString(),
		UserID:            userID,
		Owner:             userID,
		CustomerEmail:     email,
		CustomerName:      req.CustomerName,
		Items:             items,
		Subtotal:          subtotal,
		ShippingCost:      option.Cost,
		TaxAmount:         subtotal.Sub(subtotal.Div(vatDivisor)).Round(2),
		DiscountAmount:    decimal.Zero,
		TotalAmount:       subtotal.Add(option.Cost),
		Currency:          Currency,
		Status:            status,
		PaymentStatus:     paymentStatus,
		ShippingMethod:    string(option.Method),
		ShippingAddress:   req.ShippingAddress,
		Carrier:           option.Carrier,
		TrackingNumber:    tracking,
		TrackingURL:       shipping.TrackingURL(option.Method, tracking),
		EstimatedDelivery: now.Add(time.Duration(option.EstimatedDays) * 24 * time.Hour),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *service) GetOrderDetail(ctx context.Context, orderID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetOrderDetail"),
		zap.String("order_id", orderID),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, apperror.Unauthorized("Unauthorized")
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if apperror.KindOf(err) != apperror.KindNotFound {
			log.Error("failed to get order", zap.Error(err))
			return nil, apperror.Internal(err)
		}
		return nil, err
	}

	if o.Owner != userID && !utils.IsAdmin(ctx) {
		log.Warn("order access denied", zap.String("user_id", userID))
		return nil, ErrAccessDenied
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListOrders"),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrAccessDenied
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	} else if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	timer := metrics.StartTimer()
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list orders", zap.Error(err))
		return nil, apperror.Internal(err)
	}

	log.Info("list orders success",
		zap.Int("count", len(orders)),
		zap.Int("limit", filter.Limit),
		zap.Int("offset", filter.Offset),
		zap.Duration("duration", timer.Duration()),
	)

	return orders, nil
}

func (s *service) MarkAsPaid(ctx context.Context, orderID, paymentRef string) (*TransitionResult, error) {
	return s.apply(ctx, orderID, EventPaymentSucceeded, utils.StrPtr(paymentRef))
}

func (s *service) MarkAsFailed(ctx context.Context, orderID, paymentRef string) (*TransitionResult, error) {
	return s.apply(ctx, orderID, EventPaymentFailed, utils.StrPtr(paymentRef))
}

func (s *service) MarkAsDisputed(ctx context.Context, orderID, paymentRef string) (*TransitionResult, error) {
	return s.apply(ctx, orderID, EventDisputeCreated, utils.StrPtr(paymentRef))
}

func (s *service) ApplyAdminEvent(ctx context.Context, orderID string, event Event) (*TransitionResult, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrAccessDenied
	}
	if _, ok := ParseAdminEvent(string(event)); !ok {
		return nil, ErrUnknownEvent
	}
	return s.apply(ctx, orderID, event, nil)
}

func (s *service) apply(ctx context.Context, orderID string, event Event, paymentRef *string) (*TransitionResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "apply"),
		zap.String("order_id", orderID),
		zap.String("event", string(event)),
	)

	if paymentRef != nil && *paymentRef == "" {
		paymentRef = nil
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			log.Warn("order not found")
			return nil, err
		}
		log.Error("failed to load order", zap.Error(err))
		return nil, apperror.Internal(err)
	}

	step, err := Transition(o.Status, event)
	if err != nil {
		log.Warn("transition rejected", zap.String("status", string(o.Status)), zap.Error(err))
		return nil, err
	}

	result := &TransitionResult{
		OrderID:       o.ID,
		From:          step.From,
		To:            step.To,
		PaymentStatus: o.PaymentStatus,
	}

	if step.Noop {
		log.Info("order already in target status")
		return result, nil
	}

	if err := s.repo.UpdateStatus(ctx, o.ID, step, paymentRef); err != nil {
		if apperror.KindOf(err) == apperror.KindConflict {
			log.Warn("order changed during transition", zap.Error(err))
			return nil, err
		}
		log.Error("failed to update order status", zap.Error(err))
		return nil, apperror.Internal(err)
	}

	result.Applied = true
	if step.Payment != "" {
		result.PaymentStatus = step.Payment
	}

	if event == EventPaymentSucceeded {
		lines := make([]product.StockLine, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, product.StockLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		result.StockUpdated = s.products.DecrementStock(ctx, lines)
	}

	log.Info("order status updated",
		zap.String("from", string(step.From)),
		zap.String("to", string(step.To)),
		zap.String("payment_status", string(result.PaymentStatus)),
	)

	return result, nil
}
