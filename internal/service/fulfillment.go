package service

import (
	"context"
	"errors"
	"math"
	"storefront/internal/client"
	"storefront/internal/model"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

const msgProcessOrderFailed = "Failed to process order"

type FulfillmentService interface {
	// HandleWebhook verifies and applies one provider notification. A nil
	// error means the sender may consider the event delivered.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type fulfillmentServiceImpl struct {
	stripeClient     client.StripeClient
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	webhookSecret    string
	log              *zap.Logger
}

func NewFulfillmentService(
	stripeClient client.StripeClient,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	webhookSecret string,
	log *zap.Logger,
) FulfillmentService {
	return &fulfillmentServiceImpl{
		stripeClient:     stripeClient,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		webhookSecret:    webhookSecret,
		log:              log,
	}
}

func (s *fulfillmentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return NewError(KindMissingSignature, "Missing stripe-signature", nil)
	}
	if s.webhookSecret == "" {
		s.log.Error("STRIPE_WEBHOOK_SECRET is not set; webhook deliveries are rejected until it is configured")
		return NewError(KindServerMisconfigured, "Server configuration missing", nil)
	}

	event, err := s.stripeClient.ConstructEvent(payload, signature, s.webhookSecret)
	if errors.Is(err, client.ErrInvalidSignature) {
		s.log.Warn("invalid webhook signature", zap.Error(err))
		return NewError(KindInvalidSignature, "Invalid signature", err)
	}
	if err != nil {
		s.log.Warn("undecodable webhook payload", zap.Error(err))
		return NewError(KindInvalidPayload, "Invalid payload", err)
	}

	log := s.log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Kind)),
	)
	log.Info("webhook received")

	// other kinds are acknowledged without touching the store
	if event.Kind != model.EventCheckoutSessionCompleted {
		log.Debug("event kind not handled, acknowledging")
		return nil
	}

	// audit only; duplicates are still reconciled
	if err := s.webhookEventRepo.MarkReceived(ctx, event.ID, string(event.Kind)); err != nil {
		log.Warn("record webhook event", zap.Error(err))
	}

	if err := s.reconcile(ctx, event.CheckoutSession, log); err != nil {
		log.Error("failed to process order", zap.Error(err))
		return err
	}

	if err := s.webhookEventRepo.MarkProcessed(ctx, event.ID); err != nil {
		log.Warn("stamp webhook event processed", zap.Error(err))
	}

	return nil
}

func (s *fulfillmentServiceImpl) reconcile(ctx context.Context, sess *model.CheckoutSession, log *zap.Logger) error {
	if sess == nil {
		return NewError(KindInvalidPayload, "Invalid payload", nil)
	}

	orderID, err := s.orderRepo.UpsertPaid(ctx, &model.Order{
		StripePaymentID: sess.ID,
		Email:           sess.Customer.Email,
		Name:            sess.Customer.Name,
		AddressLine1:    sess.Customer.AddressLine1,
		AddressLine2:    sess.Customer.AddressLine2,
		City:            sess.Customer.City,
		State:           sess.Customer.State,
		PostalCode:      sess.Customer.PostalCode,
		Country:         sess.Customer.Country,
		Currency:        sess.Currency,
		Subtotal:        sess.AmountSubtotal,
		Total:           sess.AmountTotal,
	})
	if err != nil {
		return NewError(KindPersistenceFailure, msgProcessOrderFailed, err)
	}

	// the event payload does not carry product metadata; ask the provider
	lineItems, err := s.stripeClient.ListLineItems(ctx, sess.ID)
	if err != nil {
		return NewError(KindPaymentProviderError, msgProcessOrderFailed, err)
	}

	items, skipped := resolveOrderItems(lineItems)
	if err := s.orderRepo.ReplaceItems(ctx, orderID, items); err != nil {
		return NewError(KindPersistenceFailure, msgProcessOrderFailed, err)
	}

	log.Info("order reconciled",
		zap.String("order_id", orderID),
		zap.String("session_id", sess.ID),
		zap.Int("items", len(items)),
		zap.Int("skipped_items", skipped),
	)
	return nil
}

// resolveOrderItems maps provider line items back to catalog products. Items
// without our product id are not catalog items and are skipped.
func resolveOrderItems(lineItems []*model.ProviderLineItem) ([]*model.OrderItem, int) {
	items := make([]*model.OrderItem, 0, len(lineItems))
	skipped := 0
	for _, li := range lineItems {
		if li.AppProductID == "" {
			skipped++
			continue
		}

		qty := int64(1)
		if li.Quantity != nil {
			qty = *li.Quantity
		}

		var unitAmount int64
		if li.UnitAmount != nil {
			unitAmount = *li.UnitAmount
		} else {
			unitAmount = int64(math.Round(float64(li.AmountSubtotal) / float64(max(qty, 1))))
		}

		items = append(items, &model.OrderItem{
			ProductID:  li.AppProductID,
			Quantity:   qty,
			UnitAmount: unitAmount,
		})
	}
	return items, skipped
}
