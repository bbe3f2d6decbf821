package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"storefront/internal/client"
	"storefront/internal/model"
	"storefront/internal/repository"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testSecret    = "whsec_test"
	testSignature = "t=1,v1=abc"
	testSession   = "cs_test_reconcile"
)

var testPayload = []byte(`{"id":"evt_1"}`)

func int64Ptr(v int64) *int64 { return &v }
func strPtr(s string) *string { return &s }

func completedEvent() *model.ProviderEvent {
	return &model.ProviderEvent{
		ID:   "evt_1",
		Kind: model.EventCheckoutSessionCompleted,
		CheckoutSession: &model.CheckoutSession{
			ID:             testSession,
			Currency:       "usd",
			AmountSubtotal: 10997,
			AmountTotal:    10997,
			Customer: model.CustomerDetails{
				Email:        "buyer@example.com",
				Name:         strPtr("Jane Doe"),
				AddressLine1: strPtr("1 Main St"),
				City:         strPtr("Springfield"),
				Country:      strPtr("US"),
			},
		},
	}
}

func providerItems() []*model.ProviderLineItem {
	return []*model.ProviderLineItem{
		{AppProductID: productA, Quantity: int64Ptr(2), UnitAmount: int64Ptr(2999), AmountSubtotal: 5998},
		{AppProductID: productB, Quantity: int64Ptr(1), UnitAmount: int64Ptr(4999), AmountSubtotal: 4999},
		// shipping or another non-catalog line
		{Quantity: int64Ptr(1), UnitAmount: int64Ptr(500), AmountSubtotal: 500},
	}
}

type fulfillmentMocks struct {
	stripe *MockStripeClient
	orders *MockOrderRepository
	events *MockWebhookEventRepository
}

func newFulfillmentWithMocks(secret string) (FulfillmentService, *fulfillmentMocks) {
	m := &fulfillmentMocks{
		stripe: new(MockStripeClient),
		orders: new(MockOrderRepository),
		events: new(MockWebhookEventRepository),
	}
	return NewFulfillmentService(m.stripe, m.orders, m.events, secret, zap.NewNop()), m
}

func (m *fulfillmentMocks) assertNoStoreCalls(t *testing.T) {
	t.Helper()
	m.orders.AssertNotCalled(t, "UpsertPaid", mock.Anything, mock.Anything)
	m.orders.AssertNotCalled(t, "ReplaceItems", mock.Anything, mock.Anything, mock.Anything)
	m.events.AssertNotCalled(t, "MarkReceived", mock.Anything, mock.Anything, mock.Anything)
	m.events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}

func TestHandleWebhook_MissingSignature(t *testing.T) {
	svc, m := newFulfillmentWithMocks(testSecret)

	err := svc.HandleWebhook(context.Background(), testPayload, "")

	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindMissingSignature, appErr.Kind)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
	m.stripe.AssertNotCalled(t, "ConstructEvent", mock.Anything, mock.Anything, mock.Anything)
	m.assertNoStoreCalls(t)
}

func TestHandleWebhook_MissingSecret(t *testing.T) {
	svc, m := newFulfillmentWithMocks("")

	err := svc.HandleWebhook(context.Background(), testPayload, testSignature)

	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindServerMisconfigured, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
	m.stripe.AssertNotCalled(t, "ConstructEvent", mock.Anything, mock.Anything, mock.Anything)
	m.assertNoStoreCalls(t)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	svc, m := newFulfillmentWithMocks(testSecret)
	m.stripe.On("ConstructEvent", testPayload, testSignature, testSecret).
		Return(nil, fmt.Errorf("%w: no valid signature", client.ErrInvalidSignature)).Once()

	err := svc.HandleWebhook(context.Background(), testPayload, testSignature)

	assert.Equal(t, KindInvalidSignature, KindOf(err))
	m.assertNoStoreCalls(t)
}

func TestHandleWebhook_UndecodablePayload(t *testing.T) {
	svc, m := newFulfillmentWithMocks(testSecret)
	m.stripe.On("ConstructEvent", testPayload, testSignature, testSecret).
		Return(nil, errors.New("decode webhook event: unexpected EOF")).Once()

	err := svc.HandleWebhook(context.Background(), testPayload, testSignature)

	assert.Equal(t, KindInvalidPayload, KindOf(err))
	m.assertNoStoreCalls(t)
}

func TestHandleWebhook_OtherKindAcknowledged(t *testing.T) {
	svc, m := newFulfillmentWithMocks(testSecret)
	m.stripe.On("ConstructEvent", testPayload, testSignature, testSecret).
		Return(&model.ProviderEvent{ID: "evt_9", Kind: "payment_intent.created"}, nil).Once()

	require.NoError(t, svc.HandleWebhook(context.Background(), testPayload, testSignature))

	m.assertNoStoreCalls(t)
	m.stripe.AssertNotCalled(t, "ListLineItems", mock.Anything, mock.Anything)
}

func TestHandleWebhook_CompletedSession(t *testing.T) {
	svc, m := newFulfillmentWithMocks(testSecret)
	m.stripe.On("ConstructEvent", testPayload, testSignature, testSecret).Return(completedEvent(), nil).Once()
	m.events.On("MarkReceived", mock.Anything, "evt_1", string(model.EventCheckoutSessionCompleted)).Return(nil).Once()
	m.orders.On("UpsertPaid", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.StripePaymentID == testSession && o.Email == "buyer@example.com" &&
			o.Total == 10997 && *o.Country == "US"
	})).Return("order-1", nil).Once()
	m.stripe.On("ListLineItems", mock.Anything, testSession).Return(providerItems(), nil).Once()
	m.orders.On("ReplaceItems", mock.Anything, "order-1", mock.MatchedBy(func(items []*model.OrderItem) bool {
		return len(items) == 2 &&
			items[0].ProductID == productA && items[0].Quantity == 2 && items[0].UnitAmount == 2999 &&
			items[1].ProductID == productB && items[1].Quantity == 1 && items[1].UnitAmount == 4999
	})).Return(nil).Once()
	m.events.On("MarkProcessed", mock.Anything, "evt_1").Return(nil).Once()

	require.NoError(t, svc.HandleWebhook(context.Background(), testPayload, testSignature))

	m.stripe.AssertExpectations(t)
	m.orders.AssertExpectations(t)
	m.events.AssertExpectations(t)
}

func TestHandleWebhook_AuditFailureDoesNotChangeOutcome(t *testing.T) {
	svc, m := newFulfillmentWithMocks(testSecret)
	m.stripe.On("ConstructEvent", testPayload, testSignature, testSecret).Return(completedEvent(), nil)
	m.events.On("MarkReceived", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
	m.events.On("MarkProcessed", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	m.orders.On("UpsertPaid", mock.Anything, mock.Anything).Return("order-1", nil).Once()
	m.stripe.On("ListLineItems", mock.Anything, testSession).Return(providerItems(), nil).Once()
	m.orders.On("ReplaceItems", mock.Anything, "order-1", mock.Anything).Return(nil).Once()

	assert.NoError(t, svc.HandleWebhook(context.Background(), testPayload, testSignature))
	m.orders.AssertExpectations(t)
}

func TestHandleWebhook_FailuresAreRetryable(t *testing.T) {
	t.Run("header upsert", func(t *testing.T) {
		svc, m := newFulfillmentWithMocks(testSecret)
		m.stripe.On("ConstructEvent", testPayload, testSignature, testSecret).Return(completedEvent(), nil)
		m.events.On("MarkReceived", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.orders.On("UpsertPaid", mock.Anything, mock.Anything).Return("", errors.New("deadlock")).Once()

		err := svc.HandleWebhook(context.Background(), testPayload, testSignature)

		var appErr *Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, KindPersistenceFailure, appErr.Kind)
		assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
		m.stripe.AssertNotCalled(t, "ListLineItems", mock.Anything, mock.Anything)
		m.events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
	})

	t.Run("line item fetch", func(t *testing.T) {
		svc, m := newFulfillmentWithMocks(testSecret)
		m.stripe.On("ConstructEvent", testPayload, testSignature, testSecret).Return(completedEvent(), nil)
		m.events.On("MarkReceived", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.orders.On("UpsertPaid", mock.Anything, mock.Anything).Return("order-1", nil).Once()
		m.stripe.On("ListLineItems", mock.Anything, testSession).Return(nil, errors.New("503")).Once()

		err := svc.HandleWebhook(context.Background(), testPayload, testSignature)

		var appErr *Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, KindPaymentProviderError, appErr.Kind)
		assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
		m.orders.AssertNotCalled(t, "ReplaceItems", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("item replace", func(t *testing.T) {
		svc, m := newFulfillmentWithMocks(testSecret)
		m.stripe.On("ConstructEvent", testPayload, testSignature, testSecret).Return(completedEvent(), nil)
		m.events.On("MarkReceived", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.orders.On("UpsertPaid", mock.Anything, mock.Anything).Return("order-1", nil).Once()
		m.stripe.On("ListLineItems", mock.Anything, testSession).Return(providerItems(), nil).Once()
		m.orders.On("ReplaceItems", mock.Anything, "order-1", mock.Anything).Return(errors.New("constraint")).Once()

		err := svc.HandleWebhook(context.Background(), testPayload, testSignature)
		assert.Equal(t, KindPersistenceFailure, KindOf(err))
	})
}

func TestResolveOrderItems(t *testing.T) {
	items, skipped := resolveOrderItems([]*model.ProviderLineItem{
		{AppProductID: productA, Quantity: int64Ptr(3), AmountSubtotal: 6000},
		{AppProductID: productB, AmountSubtotal: 1500},
		{AppProductID: productC, Quantity: int64Ptr(3), AmountSubtotal: 2000},
		{Quantity: int64Ptr(1), UnitAmount: int64Ptr(700)},
	})

	assert.Equal(t, 1, skipped)
	require.Len(t, items, 3)

	// fallback: round(subtotal / quantity)
	assert.Equal(t, int64(3), items[0].Quantity)
	assert.Equal(t, int64(2000), items[0].UnitAmount)

	// missing quantity defaults to 1
	assert.Equal(t, int64(1), items[1].Quantity)
	assert.Equal(t, int64(1500), items[1].UnitAmount)

	assert.Equal(t, int64(667), items[2].UnitAmount)
}

func TestResolveOrderItems_NoneResolvable(t *testing.T) {
	items, skipped := resolveOrderItems([]*model.ProviderLineItem{
		{Quantity: int64Ptr(1), UnitAmount: int64Ptr(500)},
	})
	assert.Empty(t, items)
	assert.Equal(t, 1, skipped)
}

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.InitDatabase("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func TestHandleWebhook_RedeliveryConverges(t *testing.T) {
	ctx := context.Background()
	db := newServiceTestDB(t)

	// a product deactivated after checkout is still recorded
	require.NoError(t, db.Create(&model.Product{ID: productB, Slug: "b", Name: "B", Currency: "usd", UnitAmount: 4999, Active: false}).Error)

	sc := new(MockStripeClient)
	sc.On("ConstructEvent", testPayload, testSignature, testSecret).Return(completedEvent(), nil)
	sc.On("ListLineItems", mock.Anything, testSession).Return(providerItems(), nil)

	orderRepo := repository.NewOrderRepository(db)
	svc := NewFulfillmentService(sc, orderRepo, repository.NewWebhookEventRepository(db), testSecret, zap.NewNop())

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.HandleWebhook(ctx, testPayload, testSignature))
	}

	var orderCount, itemCount, eventCount int64
	require.NoError(t, db.Model(&model.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&model.OrderItem{}).Count(&itemCount).Error)
	require.NoError(t, db.Model(&model.WebhookEvent{}).Count(&eventCount).Error)
	assert.Equal(t, int64(1), orderCount)
	assert.Equal(t, int64(2), itemCount)
	assert.Equal(t, int64(1), eventCount)

	order, err := orderRepo.FindByStripePaymentID(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, "buyer@example.com", order.Email)

	byProduct := map[string]*model.OrderItem{}
	for _, item := range order.Items {
		byProduct[item.ProductID] = item
	}
	require.Contains(t, byProduct, productA)
	require.Contains(t, byProduct, productB)
	assert.Equal(t, int64(2), byProduct[productA].Quantity)
	assert.Equal(t, int64(4999), byProduct[productB].UnitAmount)
}

func TestHandleWebhook_ZeroResolvableItems(t *testing.T) {
	ctx := context.Background()
	db := newServiceTestDB(t)

	sc := new(MockStripeClient)
	sc.On("ConstructEvent", testPayload, testSignature, testSecret).Return(completedEvent(), nil)
	sc.On("ListLineItems", mock.Anything, testSession).Return([]*model.ProviderLineItem{
		{Quantity: int64Ptr(1), UnitAmount: int64Ptr(500), AmountSubtotal: 500},
	}, nil)

	orderRepo := repository.NewOrderRepository(db)
	svc := NewFulfillmentService(sc, orderRepo, repository.NewWebhookEventRepository(db), testSecret, zap.NewNop())

	require.NoError(t, svc.HandleWebhook(ctx, testPayload, testSignature))

	order, err := orderRepo.FindByStripePaymentID(ctx, testSession)
	require.NoError(t, err)
	assert.Empty(t, order.Items)
}

func TestHandleWebhook_OtherKindLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	db := newServiceTestDB(t)

	sc := new(MockStripeClient)
	sc.On("ConstructEvent", testPayload, testSignature, testSecret).
		Return(&model.ProviderEvent{ID: "evt_customer", Kind: "customer.created"}, nil).Once()

	svc := NewFulfillmentService(sc, repository.NewOrderRepository(db), repository.NewWebhookEventRepository(db), testSecret, zap.NewNop())

	require.NoError(t, svc.HandleWebhook(ctx, testPayload, testSignature))

	var orderCount, eventCount int64
	require.NoError(t, db.Model(&model.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&model.WebhookEvent{}).Count(&eventCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, eventCount)
}
