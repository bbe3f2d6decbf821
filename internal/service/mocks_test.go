package service

import (
	"context"
	"storefront/internal/model"

	"github.com/stretchr/testify/mock"
)

// --- Mock Stripe client ---
type MockStripeClient struct {
	mock.Mock
}

func (m *MockStripeClient) CreateCheckoutSession(ctx context.Context, req *model.PaymentSessionRequest) (*model.PaymentSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentSession), args.Error(1)
}

func (m *MockStripeClient) FindPromotionCoupon(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockStripeClient) ConstructEvent(payload []byte, signature, secret string) (*model.ProviderEvent, error) {
	args := m.Called(payload, signature, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderEvent), args.Error(1)
}

func (m *MockStripeClient) ListLineItems(ctx context.Context, sessionID string) ([]*model.ProviderLineItem, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ProviderLineItem), args.Error(1)
}

// --- Mock repositories ---
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Seed(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockProductRepository) FindActiveByIDs(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) UpsertPaid(ctx context.Context, order *model.Order) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepository) ReplaceItems(ctx context.Context, orderID string, items []*model.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *MockOrderRepository) FindByStripePaymentID(ctx context.Context, stripePaymentID string) (*model.Order, error) {
	args := m.Called(ctx, stripePaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListRecent(ctx context.Context, limit int) ([]*model.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) MarkReceived(ctx context.Context, eventID, eventType string) error {
	return m.Called(ctx, eventID, eventType).Error(0)
}

func (m *MockWebhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}
