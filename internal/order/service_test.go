package order

import (
	"context"
	"errors"
	"strings"
	"testing"

	"protexwear-api/internal/apperror"
	"protexwear-api/internal/payment"
	"protexwear-api/internal/product"
	"protexwear-api/internal/shipping"
	"protexwear-api/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id string, step Step, paymentRef *string) error {
	args := m.Called(ctx, id, step, paymentRef)
	return args.Error(0)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) LoadForCheckout(ctx context.Context, lines []product.StockLine) (map[string]*product.Product, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*product.Product), args.Error(1)
}

func (m *MockProductService) DecrementStock(ctx context.Context, lines []product.StockLine) int {
	args := m.Called(ctx, lines)
	return args.Int(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, params payment.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

func (m *MockGateway) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func (m *MockGateway) GetCharge(ctx context.Context, id string) (*stripe.Charge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.Charge), args.Error(1)
}

type fixture struct {
	repo     *MockRepository
	products *MockProductService
	gateway  *MockGateway
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockRepository),
		products: new(MockProductService),
		gateway:  new(MockGateway),
	}
	f.svc = NewService(f.repo, f.products, shipping.NewEngine(), f.gateway)
	return f
}

func casco() *product.Product {
	return &product.Product{
		ID:       "p1",
		Name:     "Casco",
		SKU:      "CAS-01",
		Price:    decimal.RequireFromString("24.90"),
		Stock:    10,
		WeightKg: decimal.RequireFromString("0.8"),
	}
}

func checkoutRequest() CheckoutRequest {
	return CheckoutRequest{
		Items: []CheckoutItem{
			{ProductID: "p1", Name: "Casco", Price: decimal.RequireFromString("1.00"), Quantity: 2},
		},
		CustomerEmail: "buyer@example.com",
	}
}

func TestService_CreateCheckout(t *testing.T) {
	lines := []product.StockLine{{ProductID: "p1", Quantity: 2}}

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		ctx := utils.SetUserContext(context.Background(), "user-1", "user@example.com", utils.RoleCustomer)

		var created *Order
		f.products.On("LoadForCheckout", ctx, lines).Return(map[string]*product.Product{"p1": casco()}, nil)
		f.repo.On("Create", ctx, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*Order) }).
			Return(nil)
		f.gateway.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(p payment.CheckoutSessionParams) bool {
			return p.OrderID != "" &&
				p.CustomerEmail == "buyer@example.com" &&
				len(p.Items) == 1 &&
				p.Items[0].UnitPrice.Equal(decimal.RequireFromString("24.90")) &&
				p.ShippingCost.Equal(decimal.RequireFromString("12.09"))
		})).Return(&stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil)

		res, err := f.svc.CreateCheckout(ctx, checkoutRequest())
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Equal(t, "cs_1", res.SessionID)
		assert.Equal(t, "https://checkout.stripe.com/cs_1", res.URL)
		assert.Equal(t, created.ID, res.OrderID)

		// catalogue price wins over the submitted one
		assert.Equal(t, "49.80", created.Subtotal.StringFixed(2))
		assert.Equal(t, "12.09", created.ShippingCost.StringFixed(2))
		assert.Equal(t, "61.89", created.TotalAmount.StringFixed(2))
		assert.Equal(t, "8.64", created.TaxAmount.StringFixed(2))
		assert.True(t, created.DiscountAmount.IsZero())

		assert.Equal(t, StatusPending, created.Status)
		assert.Equal(t, PaymentStatusPending, created.PaymentStatus)
		assert.Equal(t, "user-1", created.UserID)
		assert.Equal(t, "user-1", created.Owner)
		assert.Equal(t, "standard", created.ShippingMethod)
		assert.Equal(t, "Correos Express", created.Carrier)
		assert.True(t, strings.HasPrefix(created.TrackingNumber, "PW-"))
		assert.Contains(t, created.TrackingURL, created.TrackingNumber)
		assert.True(t, created.EstimatedDelivery.After(created.CreatedAt))

		f.products.AssertExpectations(t)
		f.repo.AssertExpectations(t)
		f.gateway.AssertExpectations(t)
	})

	t.Run("GuestAndEUAddress", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()

		req := checkoutRequest()
		req.ShippingMethod = "express"
		req.ShippingAddress = &ShippingAddress{Name: "Jean", Line1: "1 rue", City: "Paris", PostalCode: "75001", Country: "FR"}

		var created *Order
		f.products.On("LoadForCheckout", ctx, lines).Return(map[string]*product.Product{"p1": casco()}, nil)
		f.repo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) { created = args.Get(1).(*Order) }).
			Return(nil)
		f.gateway.On("CreateCheckoutSession", ctx, mock.Anything).
			Return(&stripe.CheckoutSession{ID: "cs_2", URL: "u"}, nil)

		_, err := f.svc.CreateCheckout(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, utils.GuestUserID, created.UserID)
		assert.Equal(t, "express", created.ShippingMethod)
		assert.Equal(t, "SEUR", created.Carrier)
		// 19.99 * 1.5 * 1.21 = 36.28185
		assert.Equal(t, "36.28", created.ShippingCost.StringFixed(2))
		assert.Equal(t, "Paris", created.ShippingAddress.City)
	})

	t.Run("FreeShippingOverThreshold", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()

		req := checkoutRequest()
		req.Items[0].Quantity = 5
		req.UserID = "user-9"
		fiveLines := []product.StockLine{{ProductID: "p1", Quantity: 5}}

		var created *Order
		f.products.On("LoadForCheckout", ctx, fiveLines).Return(map[string]*product.Product{"p1": casco()}, nil)
		f.repo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) { created = args.Get(1).(*Order) }).
			Return(nil)
		f.gateway.On("CreateCheckoutSession", ctx, mock.Anything).
			Return(&stripe.CheckoutSession{ID: "cs_3", URL: "u"}, nil)

		_, err := f.svc.CreateCheckout(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, "user-9", created.UserID)
		assert.True(t, created.ShippingCost.IsZero())
		assert.Equal(t, "124.50", created.TotalAmount.StringFixed(2))
	})

	t.Run("TierFromTokenPricesShipping", func(t *testing.T) {
		tests := []struct {
			name string
			tier string
			cost string
		}{
			// 9.99 * 0.80 * 1.21 = 9.67032
			{"VIP", "vip", "9.67"},
			{"NoTier", "", "12.09"},
			{"UnknownTier", "reseller", "12.09"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				ctx := utils.SetUserContext(context.Background(), "user-1", "user@example.com", utils.RoleCustomer)
				ctx = utils.SetCustomerTier(ctx, tt.tier)

				var created *Order
				f.products.On("LoadForCheckout", ctx, lines).Return(map[string]*product.Product{"p1": casco()}, nil)
				f.repo.On("Create", ctx, mock.Anything).
					Run(func(args mock.Arguments) { created = args.Get(1).(*Order) }).
					Return(nil)
				f.gateway.On("CreateCheckoutSession", ctx, mock.Anything).
					Return(&stripe.CheckoutSession{ID: "cs_t", URL: "u"}, nil)

				_, err := f.svc.CreateCheckout(ctx, checkoutRequest())
				require.NoError(t, err)
				assert.Equal(t, tt.cost, created.ShippingCost.StringFixed(2))
			})
		}
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()

		f.products.On("LoadForCheckout", ctx, lines).
			Return(nil, apperror.Validation("Insufficient stock for Casco"))

		res, err := f.svc.CreateCheckout(ctx, checkoutRequest())
		assert.Nil(t, res)
		assert.EqualError(t, err, "Insufficient stock for Casco")
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("GatewayFailureLeavesPendingOrder", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()

		f.products.On("LoadForCheckout", ctx, lines).Return(map[string]*product.Product{"p1": casco()}, nil)
		f.repo.On("Create", ctx, mock.Anything).Return(nil)
		f.gateway.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, errors.New("stripe down"))

		res, err := f.svc.CreateCheckout(ctx, checkoutRequest())
		assert.Nil(t, res)
		assert.True(t, apperror.Is(err, apperror.KindInternal))
		f.repo.AssertNumberOfCalls(t, "Create", 1)
		f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RepositoryFailure", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()

		f.products.On("LoadForCheckout", ctx, lines).Return(map[string]*product.Product{"p1": casco()}, nil)
		f.repo.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

		_, err := f.svc.CreateCheckout(ctx, checkoutRequest())
		assert.True(t, apperror.Is(err, apperror.KindInternal))
		f.gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("Validation", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(r *CheckoutRequest)
			err    string
		}{
			{"EmptyCart", func(r *CheckoutRequest) { r.Items = nil }, "Cart is empty"},
			{"ZeroQuantity", func(r *CheckoutRequest) { r.Items[0].Quantity = 0 }, "Quantity must be greater than zero"},
			{"MissingProduct", func(r *CheckoutRequest) { r.Items[0].ProductID = " " }, "Product id is required"},
			{"BadEmail", func(r *CheckoutRequest) { r.CustomerEmail = "not-an-email" }, "Invalid customer email"},
			{"BadMethod", func(r *CheckoutRequest) { r.ShippingMethod = "drone" }, "Invalid shipping method: drone"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				req := checkoutRequest()
				tt.mutate(&req)

				_, err := f.svc.CreateCheckout(context.Background(), req)
				assert.EqualError(t, err, tt.err)
				assert.True(t, apperror.Is(err, apperror.KindValidation))
				f.products.AssertNotCalled(t, "LoadForCheckout", mock.Anything, mock.Anything)
			})
		}
	})
}

func pendingOrder() *Order {
	return &Order{
		ID:            "ord-1",
		Owner:         "user-1",
		Status:        StatusPending,
		PaymentStatus: PaymentStatusPending,
		Items: []Item{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
	}
}

func TestService_MarkAsPaid(t *testing.T) {
	ctx := context.Background()
	ref := "pi_1"

	t.Run("ConfirmsAndDecrementsStock", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, "ord-1").Return(pendingOrder(), nil)
		f.repo.On("UpdateStatus", ctx, "ord-1",
			Step{From: StatusPending, To: StatusConfirmed, Payment: PaymentStatusPaid}, &ref).Return(nil)
		f.products.On("DecrementStock", ctx, []product.StockLine{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		}).Return(2)

		res, err := f.svc.MarkAsPaid(ctx, "ord-1", "pi_1")
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, StatusConfirmed, res.To)
		assert.Equal(t, PaymentStatusPaid, res.PaymentStatus)
		assert.Equal(t, 2, res.StockUpdated)
		f.repo.AssertExpectations(t)
		f.products.AssertExpectations(t)
	})

	t.Run("AlreadyConfirmedIsNoop", func(t *testing.T) {
		f := newFixture()
		o := pendingOrder()
		o.Status = StatusConfirmed
		o.PaymentStatus = PaymentStatusPaid
		f.repo.On("GetByID", ctx, "ord-1").Return(o, nil)

		res, err := f.svc.MarkAsPaid(ctx, "ord-1", "pi_1")
		require.NoError(t, err)
		assert.False(t, res.Applied)
		f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything)
	})

	t.Run("LostRaceSkipsStock", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, "ord-1").Return(pendingOrder(), nil)
		f.repo.On("UpdateStatus", ctx, "ord-1", mock.Anything, mock.Anything).Return(ErrConcurrentUpdate)

		_, err := f.svc.MarkAsPaid(ctx, "ord-1", "pi_1")
		assert.ErrorIs(t, err, ErrConcurrentUpdate)
		f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, "nope").Return(nil, ErrOrderNotFound)

		_, err := f.svc.MarkAsPaid(ctx, "nope", "pi_1")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("StoreError", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", ctx, "ord-1").Return(nil, errors.New("db down"))

		_, err := f.svc.MarkAsPaid(ctx, "ord-1", "pi_1")
		assert.True(t, apperror.Is(err, apperror.KindInternal))
	})
}

func TestService_MarkAsFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("CancelsPending", func(t *testing.T) {
		f := newFixture()
		ref := "pi_2"
		f.repo.On("GetByID", ctx, "ord-1").Return(pendingOrder(), nil)
		f.repo.On("UpdateStatus", ctx, "ord-1",
			Step{From: StatusPending, To: StatusCancelled, Payment: PaymentStatusFailed}, &ref).Return(nil)

		res, err := f.svc.MarkAsFailed(ctx, "ord-1", "pi_2")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, res.To)
		assert.Equal(t, PaymentStatusFailed, res.PaymentStatus)
		f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything)
	})

	t.Run("RejectedAfterShipping", func(t *testing.T) {
		f := newFixture()
		o := pendingOrder()
		o.Status = StatusShipped
		f.repo.On("GetByID", ctx, "ord-1").Return(o, nil)

		_, err := f.svc.MarkAsFailed(ctx, "ord-1", "pi_2")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, 409, apperror.HTTPStatus(err))
	})
}

func TestService_MarkAsDisputed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	o := pendingOrder()
	o.Status = StatusDelivered
	f.repo.On("GetByID", ctx, "ord-1").Return(o, nil)
	f.repo.On("UpdateStatus", ctx, "ord-1",
		Step{From: StatusDelivered, To: StatusDisputed, Payment: PaymentStatusDisputed}, (*string)(nil)).Return(nil)

	res, err := f.svc.MarkAsDisputed(ctx, "ord-1", "")
	require.NoError(t, err)
	assert.Equal(t, StatusDisputed, res.To)
	assert.Equal(t, PaymentStatusDisputed, res.PaymentStatus)
}

func TestService_ApplyAdminEvent(t *testing.T) {
	admin := utils.SetUserContext(context.Background(), "admin-1", "ops@example.com", utils.RoleAdmin)
	customer := utils.SetUserContext(context.Background(), "user-1", "user@example.com", utils.RoleCustomer)

	t.Run("Ship", func(t *testing.T) {
		f := newFixture()
		o := pendingOrder()
		o.Status = StatusProcessing
		o.PaymentStatus = PaymentStatusPaid
		f.repo.On("GetByID", admin, "ord-1").Return(o, nil)
		f.repo.On("UpdateStatus", admin, "ord-1", Step{From: StatusProcessing, To: StatusShipped}, (*string)(nil)).Return(nil)

		res, err := f.svc.ApplyAdminEvent(admin, "ord-1", EventShip)
		require.NoError(t, err)
		assert.Equal(t, StatusShipped, res.To)
		assert.Equal(t, PaymentStatusPaid, res.PaymentStatus)
	})

	t.Run("CustomerDenied", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ApplyAdminEvent(customer, "ord-1", EventShip)
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.Equal(t, "Acceso Denegado", apperror.PublicMessage(err))
		f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("ProviderEventNotAllowed", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ApplyAdminEvent(admin, "ord-1", EventPaymentSucceeded)
		assert.ErrorIs(t, err, ErrUnknownEvent)
	})
}

func TestService_GetOrderDetail(t *testing.T) {
	owner := utils.SetUserContext(context.Background(), "user-1", "", utils.RoleCustomer)
	stranger := utils.SetUserContext(context.Background(), "user-2", "", utils.RoleCustomer)
	admin := utils.SetUserContext(context.Background(), "admin-1", "", utils.RoleAdmin)

	for _, tc := range []struct {
		name string
		ctx  context.Context
		err  error
	}{
		{"Owner", owner, nil},
		{"Admin", admin, nil},
		{"Stranger", stranger, ErrAccessDenied},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.repo.On("GetByID", tc.ctx, "ord-1").Return(pendingOrder(), nil)

			o, err := f.svc.GetOrderDetail(tc.ctx, "ord-1")
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ord-1", o.ID)
		})
	}

	t.Run("Anonymous", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.GetOrderDetail(context.Background(), "ord-1")
		assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", owner, "nope").Return(nil, ErrOrderNotFound)

		_, err := f.svc.GetOrderDetail(owner, "nope")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_ListOrders(t *testing.T) {
	admin := utils.SetUserContext(context.Background(), "admin-1", "", utils.RoleAdmin)

	t.Run("ClampsLimit", func(t *testing.T) {
		f := newFixture()
		f.repo.On("List", admin, ListFilter{Limit: 100, Offset: 0}).Return([]*Order{pendingOrder()}, nil)

		orders, err := f.svc.ListOrders(admin, ListFilter{Limit: 500, Offset: -3})
		require.NoError(t, err)
		assert.Len(t, orders, 1)
		f.repo.AssertExpectations(t)
	})

	t.Run("DefaultLimit", func(t *testing.T) {
		f := newFixture()
		f.repo.On("List", admin, ListFilter{Limit: 20}).Return([]*Order{}, nil)

		_, err := f.svc.ListOrders(admin, ListFilter{})
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("NonAdmin", func(t *testing.T) {
		f := newFixture()
		ctx := utils.SetUserContext(context.Background(), "user-1", "", utils.RoleCustomer)

		_, err := f.svc.ListOrders(ctx, ListFilter{})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}
