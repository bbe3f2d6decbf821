package service

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/dto"
	"storefront/internal/model"
	"storefront/internal/repository"
	"strings"

	"gorm.io/gorm"
)

type OrderService interface {
	// GetBySession returns the masked order view for a provider session id.
	GetBySession(ctx context.Context, sessionID string) (*dto.OrderResponse, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Order, error)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
	}
}

func (s *orderServiceImpl) GetBySession(ctx context.Context, sessionID string) (*dto.OrderResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, NewError(KindInvalidPayload, "Missing session id", nil)
	}

	order, err := s.orderRepo.FindByStripePaymentID(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// the webhook may not have landed yet
		return nil, NewError(KindNotFound, "Order not found", nil)
	}
	if err != nil {
		return nil, NewError(KindPersistenceFailure, "Failed to load order", fmt.Errorf("find order by session: %w", err))
	}

	return dto.NewOrderResponse(order), nil
}

func (s *orderServiceImpl) ListRecent(ctx context.Context, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	orders, err := s.orderRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent orders: %w", err)
	}
	return orders, nil
}
