package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks
// =====================

type OrderUserRepoMock struct{ mock.Mock }

func (m *OrderUserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrderUserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *OrderUserRepoMock) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrderUserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrderUserRepoMock) Update(ctx context.Context, user *model.User) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrderUserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	panic("not used in OrderUsecase tests")
}

type OrderProfileRepoMock struct{ mock.Mock }

func (m *OrderProfileRepoMock) Create(ctx context.Context, p *model.UserProfile) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProfileRepoMock) FindByUserID(ctx context.Context, userID int64) (*model.UserProfile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*model.UserProfile)
	return p, args.Error(1)
}

func (m *OrderProfileRepoMock) Update(ctx context.Context, p *model.UserProfile) error {
	panic("not used in OrderUsecase tests")
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByPaymentIntentForUpdate(ctx context.Context, userID int64, paymentIntentID string) (model.Order, error) {
	args := m.Called(ctx, userID, paymentIntentID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type OrderProductRepoMock struct{ mock.Mock }

func (m *OrderProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) ListWithEmbedding(ctx context.Context) ([]model.Product, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *OrderProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in OrderUsecase tests")
}

type OrderInventoryRepoMock struct{ mock.Mock }

func (m *OrderInventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrderInventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *OrderInventoryRepoMock) DecreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *OrderInventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateIntent(ctx context.Context, in usecase.CreateIntentInput) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, in)
	pi, _ := args.Get(0).(usecase.PaymentIntent)
	return pi, args.Error(1)
}

func (m *GatewayMock) RetrieveIntent(ctx context.Context, paymentIntentID string) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, paymentIntentID)
	pi, _ := args.Get(0).(usecase.PaymentIntent)
	return pi, args.Error(1)
}

// TxManager: commit/rollbackをしない素通し実装
type txReposStub struct {
	orders     *OrderRepoMock
	orderItems *OrderItemRepoMock
	products   *OrderProductRepoMock
	inventory  *OrderInventoryRepoMock
}

func (s *txReposStub) Orders() repo.OrderRepository         { return s.orders }
func (s *txReposStub) OrderItems() repo.OrderItemRepository { return s.orderItems }
func (s *txReposStub) Products() repo.ProductRepository     { return s.products }
func (s *txReposStub) Inventory() repo.InventoryRepository  { return s.inventory }

type txManagerStub struct {
	repos *txReposStub
}

func (s *txManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(s.repos)
}

// =====================
// Fixtures
// =====================

type orderFixture struct {
	users     *OrderUserRepoMock
	profiles  *OrderProfileRepoMock
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	products  *OrderProductRepoMock
	inventory *OrderInventoryRepoMock
	gateway   *GatewayMock
	uc        *usecase.OrderUsecase
}

func newOrderFixture(reserveStock bool) *orderFixture {
	f := &orderFixture{
		users:     new(OrderUserRepoMock),
		profiles:  new(OrderProfileRepoMock),
		orders:    new(OrderRepoMock),
		items:     new(OrderItemRepoMock),
		products:  new(OrderProductRepoMock),
		inventory: new(OrderInventoryRepoMock),
		gateway:   new(GatewayMock),
	}
	tx := &txManagerStub{repos: &txReposStub{
		orders:     f.orders,
		orderItems: f.items,
		products:   f.products,
		inventory:  f.inventory,
	}}
	cfg := config.Config{StripeCurrency: "usd", CheckoutReserveStock: reserveStock}
	f.uc = usecase.NewOrderUsecase(tx, f.users, f.profiles, f.gateway, cfg, nil)
	return f
}

func activeUser() *model.User {
	return &model.User{
		ID:       7,
		Username: "maria",
		Email:    "maria@example.com",
		IsActive: true,
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func assertHTTPError(t *testing.T, err error, status int, contains string) {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, status, he.Status)
	assert.Contains(t, he.Message, contains)
}

// =====================
// CreateOrder
// =====================

func TestOrderUsecase_CreateOrder_ComputesTotalFromLockedPrices(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.users.On("FindByID", ctx, int64(7)).Return(activeUser(), nil)
	f.profiles.On("FindByUserID", ctx, int64(7)).Return(nil, nil)

	f.products.On("FindByIDForUpdate", ctx, int64(1)).Return(model.Product{
		ID: 1, Name: "Camiseta", Price: mustDecimal(t, "10.00"), Stock: 5,
	}, nil)
	f.products.On("FindByIDForUpdate", ctx, int64(2)).Return(model.Product{
		ID: 2, Name: "Gorra", Price: mustDecimal(t, "5.00"), Stock: 3,
	}, nil)

	// 2×10.00 + 1×5.00 = 25.00 → 2500セント
	f.gateway.On("CreateIntent", ctx, mock.MatchedBy(func(in usecase.CreateIntentInput) bool {
		return in.AmountMinor == 2500 && in.Currency == "usd"
	})).Return(usecase.PaymentIntent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret_abc",
		Status:       "requires_payment_method",
	}, nil)

	f.orders.On("Create", ctx, mock.MatchedBy(func(o model.Order) bool {
		return o.UserID == 7 &&
			o.Status == model.OrderStatusPending &&
			o.TotalAmount.Equal(mustDecimal(t, "25.00")) &&
			o.PaymentIntentID != nil && *o.PaymentIntentID == "pi_123"
	})).Return(int64(42), nil)

	f.items.On("CreateBulk", ctx, int64(42), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 2 &&
			items[0].Subtotal.Equal(mustDecimal(t, "20.00")) &&
			items[1].Subtotal.Equal(mustDecimal(t, "5.00"))
	})).Return(nil)

	out, err := f.uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items: []usecase.CreateOrderItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, "pending", out.Status)
	assert.True(t, out.TotalAmount.Equal(mustDecimal(t, "25.00")))
	assert.Equal(t, "pi_123_secret_abc", out.ClientSecret)
	assert.Equal(t, "pi_123", out.PaymentIntentID)
	// 請求先はプロフィール無しなのでアカウント情報と既定値で補完される
	assert.Equal(t, "maria", out.BillingName)
	assert.Equal(t, "maria@example.com", out.BillingEmail)
	assert.Equal(t, "US", out.BillingCountry)

	// 予約モードでない限り作成時に在庫は減らない
	f.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
	f.items.AssertExpectations(t)
}

func TestOrderUsecase_CreateOrder_EmptyItems(t *testing.T) {
	f := newOrderFixture(false)

	_, err := f.uc.CreateOrder(context.Background(), 7, usecase.CreateOrderInput{})
	assertHTTPError(t, err, http.StatusBadRequest, "items required")
}

func TestOrderUsecase_CreateOrder_InvalidQuantity(t *testing.T) {
	f := newOrderFixture(false)

	_, err := f.uc.CreateOrder(context.Background(), 7, usecase.CreateOrderInput{
		Items: []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 0}},
	})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid quantity")
}

func TestOrderUsecase_CreateOrder_UnknownProduct(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.users.On("FindByID", ctx, int64(7)).Return(activeUser(), nil)
	f.profiles.On("FindByUserID", ctx, int64(7)).Return(nil, nil)
	f.products.On("FindByIDForUpdate", ctx, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	_, err := f.uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items: []usecase.CreateOrderItemInput{{ProductID: 99, Quantity: 1}},
	})
	assertHTTPError(t, err, http.StatusNotFound, "Producto 99 no existe")

	// intentは作らず注文も残さない
	f.gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_InsufficientStock(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.users.On("FindByID", ctx, int64(7)).Return(activeUser(), nil)
	f.profiles.On("FindByUserID", ctx, int64(7)).Return(nil, nil)
	f.products.On("FindByIDForUpdate", ctx, int64(1)).Return(model.Product{
		ID: 1, Name: "Camiseta", Price: mustDecimal(t, "10.00"), Stock: 5,
	}, nil)

	_, err := f.uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items: []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 6}},
	})
	assertHTTPError(t, err, http.StatusBadRequest, "Stock insuficiente para Camiseta. Disponible: 5")

	f.gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_GatewayRejection(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.users.On("FindByID", ctx, int64(7)).Return(activeUser(), nil)
	f.profiles.On("FindByUserID", ctx, int64(7)).Return(nil, nil)
	f.products.On("FindByIDForUpdate", ctx, int64(1)).Return(model.Product{
		ID: 1, Name: "Camiseta", Price: mustDecimal(t, "10.00"), Stock: 5,
	}, nil)
	f.gateway.On("CreateIntent", ctx, mock.Anything).Return(usecase.PaymentIntent{},
		&usecase.GatewayError{Message: "Your card was declined."})

	_, err := f.uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items: []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	assertHTTPError(t, err, http.StatusBadRequest, "Error al procesar con Stripe: Your card was declined.")

	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_BillingFromProfile(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	user := activeUser()
	user.FirstName = "María"
	user.LastName = "García"

	f.users.On("FindByID", ctx, int64(7)).Return(user, nil)
	f.profiles.On("FindByUserID", ctx, int64(7)).Return(&model.UserProfile{
		UserID:         7,
		Phone:          "+34911222333",
		DefaultAddress: "Calle Mayor 1",
		DefaultCity:    "Madrid",
		DefaultCountry: "ES",
	}, nil)
	f.products.On("FindByIDForUpdate", ctx, int64(1)).Return(model.Product{
		ID: 1, Name: "Camiseta", Price: mustDecimal(t, "10.00"), Stock: 5,
	}, nil)
	f.gateway.On("CreateIntent", ctx, mock.Anything).Return(usecase.PaymentIntent{
		ID: "pi_9", ClientSecret: "sec", Status: "requires_payment_method",
	}, nil)
	f.orders.On("Create", ctx, mock.MatchedBy(func(o model.Order) bool {
		return o.BillingName == "María García" &&
			o.BillingCity == "Madrid" &&
			o.BillingCountry == "ES"
	})).Return(int64(1), nil)
	f.items.On("CreateBulk", ctx, int64(1), mock.Anything).Return(nil)

	out, err := f.uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items: []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "María García", out.BillingName)
	assert.Equal(t, "ES", out.BillingCountry)
}

func TestOrderUsecase_CreateOrder_ReserveModeDecrementsOnCreate(t *testing.T) {
	f := newOrderFixture(true)
	ctx := context.Background()

	f.users.On("FindByID", ctx, int64(7)).Return(activeUser(), nil)
	f.profiles.On("FindByUserID", ctx, int64(7)).Return(nil, nil)
	f.products.On("FindByIDForUpdate", ctx, int64(1)).Return(model.Product{
		ID: 1, Name: "Camiseta", Price: mustDecimal(t, "10.00"), Stock: 5,
	}, nil)
	f.gateway.On("CreateIntent", ctx, mock.Anything).Return(usecase.PaymentIntent{
		ID: "pi_r", ClientSecret: "sec", Status: "requires_payment_method",
	}, nil)
	f.orders.On("Create", ctx, mock.Anything).Return(int64(5), nil)
	f.items.On("CreateBulk", ctx, int64(5), mock.Anything).Return(nil)
	f.inventory.On("DecreaseStockIfEnough", ctx, int64(1), int64(2)).Return(true, nil)

	_, err := f.uc.CreateOrder(ctx, 7, usecase.CreateOrderInput{
		Items: []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	f.inventory.AssertExpectations(t)
}

// =====================
// ConfirmPayment
// =====================

func pendingOrder(intentID string) model.Order {
	return model.Order{
		ID:              42,
		UserID:          7,
		Status:          model.OrderStatusPending,
		TotalAmount:     decimal.NewFromInt(25),
		PaymentIntentID: &intentID,
	}
}

func TestOrderUsecase_ConfirmPayment_SucceededDecrementsStockOnce(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.orders.On("FindByPaymentIntentForUpdate", ctx, int64(7), "pi_123").
		Return(pendingOrder("pi_123"), nil)
	f.items.On("ListByOrderID", ctx, int64(42)).Return([]model.OrderItem{
		{OrderID: 42, ProductID: 1, Quantity: 2},
		{OrderID: 42, ProductID: 2, Quantity: 1},
	}, nil)
	f.gateway.On("RetrieveIntent", ctx, "pi_123").Return(usecase.PaymentIntent{
		ID: "pi_123", Status: model.IntentStatusSucceeded,
	}, nil)
	f.products.On("FindByIDForUpdate", ctx, int64(1)).Return(model.Product{ID: 1}, nil)
	f.products.On("FindByIDForUpdate", ctx, int64(2)).Return(model.Product{ID: 2}, nil)
	f.inventory.On("DecreaseStock", ctx, int64(1), int64(2)).Return(nil).Once()
	f.inventory.On("DecreaseStock", ctx, int64(2), int64(1)).Return(nil).Once()
	f.orders.On("UpdateStatus", ctx, int64(42), model.OrderStatusPaid).Return(nil)

	out, err := f.uc.ConfirmPayment(ctx, 7, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "paid", out.Status)

	f.inventory.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestOrderUsecase_ConfirmPayment_TerminalIsAbsorbing(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	o := pendingOrder("pi_123")
	o.Status = model.OrderStatusPaid

	f.orders.On("FindByPaymentIntentForUpdate", ctx, int64(7), "pi_123").Return(o, nil)
	f.items.On("ListByOrderID", ctx, int64(42)).Return([]model.OrderItem{
		{OrderID: 42, ProductID: 1, Quantity: 2},
	}, nil)

	out, err := f.uc.ConfirmPayment(ctx, 7, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "paid", out.Status)

	// 終端状態：ゲートウェイ照会なし、在庫操作なし、二重減算なし
	f.gateway.AssertNotCalled(t, "RetrieveIntent", mock.Anything, mock.Anything)
	f.inventory.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_ConfirmPayment_RequiresPaymentMethodFails(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.orders.On("FindByPaymentIntentForUpdate", ctx, int64(7), "pi_123").
		Return(pendingOrder("pi_123"), nil)
	f.items.On("ListByOrderID", ctx, int64(42)).Return([]model.OrderItem{
		{OrderID: 42, ProductID: 1, Quantity: 2},
	}, nil)
	f.gateway.On("RetrieveIntent", ctx, "pi_123").Return(usecase.PaymentIntent{
		ID: "pi_123", Status: model.IntentStatusRequiresPaymentMethod,
	}, nil)
	f.orders.On("UpdateStatus", ctx, int64(42), model.OrderStatusFailed).Return(nil)

	out, err := f.uc.ConfirmPayment(ctx, 7, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "failed", out.Status)

	f.inventory.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_ConfirmPayment_ProcessingStaysOpen(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.orders.On("FindByPaymentIntentForUpdate", ctx, int64(7), "pi_123").
		Return(pendingOrder("pi_123"), nil)
	f.items.On("ListByOrderID", ctx, int64(42)).Return(nil, nil)
	f.gateway.On("RetrieveIntent", ctx, "pi_123").Return(usecase.PaymentIntent{
		ID: "pi_123", Status: model.IntentStatusProcessing,
	}, nil)
	f.orders.On("UpdateStatus", ctx, int64(42), model.OrderStatusProcessing).Return(nil)

	out, err := f.uc.ConfirmPayment(ctx, 7, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "processing", out.Status)
}

func TestOrderUsecase_ConfirmPayment_NotFoundForOtherUser(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.orders.On("FindByPaymentIntentForUpdate", ctx, int64(8), "pi_123").
		Return(model.Order{}, repo.ErrNotFound)

	_, err := f.uc.ConfirmPayment(ctx, 8, "pi_123")
	assertHTTPError(t, err, http.StatusNotFound, "Orden no encontrada o no pertenece al usuario")

	f.gateway.AssertNotCalled(t, "RetrieveIntent", mock.Anything, mock.Anything)
}

func TestOrderUsecase_ConfirmPayment_GatewayErrorLeavesOrderUntouched(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.orders.On("FindByPaymentIntentForUpdate", ctx, int64(7), "pi_123").
		Return(pendingOrder("pi_123"), nil)
	f.items.On("ListByOrderID", ctx, int64(42)).Return(nil, nil)
	f.gateway.On("RetrieveIntent", ctx, "pi_123").Return(usecase.PaymentIntent{},
		&usecase.GatewayError{Message: "No such payment_intent"})

	_, err := f.uc.ConfirmPayment(ctx, 7, "pi_123")
	assertHTTPError(t, err, http.StatusBadRequest, "Error al verificar el pago con Stripe: No such payment_intent")

	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.inventory.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_ConfirmPayment_ReserveModeReleasesOnCancel(t *testing.T) {
	f := newOrderFixture(true)
	ctx := context.Background()

	f.orders.On("FindByPaymentIntentForUpdate", ctx, int64(7), "pi_123").
		Return(pendingOrder("pi_123"), nil)
	f.items.On("ListByOrderID", ctx, int64(42)).Return([]model.OrderItem{
		{OrderID: 42, ProductID: 1, Quantity: 2},
	}, nil)
	f.gateway.On("RetrieveIntent", ctx, "pi_123").Return(usecase.PaymentIntent{
		ID: "pi_123", Status: model.IntentStatusCanceled,
	}, nil)
	f.inventory.On("IncreaseStock", ctx, int64(1), int64(2)).Return(nil).Once()
	f.orders.On("UpdateStatus", ctx, int64(42), model.OrderStatusCancelled).Return(nil)

	out, err := f.uc.ConfirmPayment(ctx, 7, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
	f.inventory.AssertExpectations(t)
}

// =====================
// ListMyOrders / GetMyOrderDetail
// =====================

func TestOrderUsecase_GetMyOrderDetail_OtherUsersOrderIsNotFound(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	o := pendingOrder("pi_123")
	o.UserID = 99

	f.orders.On("FindByID", ctx, int64(42)).Return(o, nil)

	_, err := f.uc.GetMyOrderDetail(ctx, 7, 42)
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestOrderUsecase_ListMyOrders_Empty(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	f.orders.On("ListByUserID", ctx, int64(7), 1, 50).Return([]model.Order{}, int64(0), nil)

	out, err := f.uc.ListMyOrders(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, out)
}
