package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"storefront/internal/client"
	"storefront/internal/dto"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validator"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minLineQuantity = 1
	maxLineQuantity = 10

	// provider metadata limits: 500 chars per value, 50 keys per object
	metadataValueLimit = 500
	maxCartChunks      = 40
)

type CheckoutService interface {
	CreateSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type CheckoutOptions struct {
	BaseURL          string
	EnablePromoCodes bool
	AllowedCountries []string
}

type checkoutServiceImpl struct {
	stripeClient client.StripeClient
	productRepo  repository.ProductRepository
	validator    *validator.RequestValidator
	log          *zap.Logger
	opts         CheckoutOptions
}

func NewCheckoutService(
	stripeClient client.StripeClient,
	productRepo repository.ProductRepository,
	requestValidator *validator.RequestValidator,
	log *zap.Logger,
	opts CheckoutOptions,
) CheckoutService {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &checkoutServiceImpl{
		stripeClient: stripeClient,
		productRepo:  productRepo,
		validator:    requestValidator,
		log:          log,
		opts:         opts,
	}
}

func (s *checkoutServiceImpl) CreateSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if req == nil {
		return nil, NewError(KindInvalidPayload, "Invalid payload", nil)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, NewError(KindInvalidPayload, "Invalid payload", err).
			WithDetails(validator.FieldErrors(err))
	}

	productIDs := distinctProductIDs(req.Items)
	products, err := s.productRepo.FindActiveByIDs(ctx, productIDs)
	if err != nil {
		return nil, NewError(KindPersistenceFailure, "Failed to create checkout session", fmt.Errorf("find products: %w", err))
	}

	productMap := make(map[string]*model.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	var missing []string
	for _, id := range productIDs {
		if _, ok := productMap[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, NewError(KindProductsUnavailable, "Some products not found or inactive", nil).
			WithDetails(map[string][]string{"missingProductIds": missing})
	}

	// price, name and currency come from the catalog only
	lineItems := make([]*model.SessionLineItem, len(req.Items))
	var subtotal int64
	for i, line := range req.Items {
		p := productMap[line.ProductID]
		lineItems[i] = &model.SessionLineItem{
			AppProductID: p.ID,
			ProductName:  p.Name,
			ImageURL:     p.ImageURL,
			Currency:     p.Currency,
			UnitAmount:   p.UnitAmount,
			Quantity:     line.Quantity,
			MinQuantity:  minLineQuantity,
			MaxQuantity:  maxLineQuantity,
		}
		subtotal += p.UnitAmount * line.Quantity
	}

	couponID, err := s.resolvePromoCode(ctx, req.PromoCode)
	if err != nil {
		return nil, err
	}

	metadata, err := cartMetadata(req.Items)
	if err != nil {
		return nil, NewError(KindInvalidPayload, "Invalid payload", err)
	}
	if req.PromoCode != "" {
		metadata["promoCode"] = req.PromoCode
	}

	sess, err := s.stripeClient.CreateCheckoutSession(ctx, &model.PaymentSessionRequest{
		LineItems:        lineItems,
		CustomerEmail:    req.Address.Email,
		SuccessURL:       s.opts.BaseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        s.opts.BaseURL + "/cancel",
		IdempotencyKey:   uuid.NewString(),
		CouponID:         couponID,
		AllowedCountries: s.opts.AllowedCountries,
		Metadata:         metadata,
	})
	if err != nil {
		s.log.Error("create checkout session", zap.Error(err))
		return nil, NewError(KindPaymentProviderError, "Failed to create checkout session", err)
	}

	s.log.Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.Int("line_items", len(lineItems)),
		zap.Int64("amount_subtotal", subtotal),
		zap.Bool("discounted", couponID != ""),
	)

	return &dto.CheckoutResponse{
		ID:  sess.ID,
		URL: sess.URL,
	}, nil
}

// resolvePromoCode returns "" when no discount applies.
func (s *checkoutServiceImpl) resolvePromoCode(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if !s.opts.EnablePromoCodes || code == "" {
		return "", nil
	}

	couponID, err := s.stripeClient.FindPromotionCoupon(ctx, code)
	if errors.Is(err, client.ErrCouponNotFound) {
		return "", NewError(KindInvalidPromoCode, "Invalid or expired promo code", nil)
	}
	if err != nil {
		s.log.Error("validate promo code", zap.Error(err))
		return "", NewError(KindPaymentProviderError, "Failed to validate promo code", err)
	}

	return couponID, nil
}

func distinctProductIDs(items []*dto.CartLine) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// cartMetadata stores the submitted cart as JSON under "cart", spilling into
// "cart_2", "cart_3", ... when it exceeds a single metadata value.
func cartMetadata(items []*dto.CartLine) (map[string]string, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}

	metadata := make(map[string]string)
	cart := string(raw)
	for n := 1; cart != ""; n++ {
		if n > maxCartChunks {
			metadata["cartTruncated"] = "true"
			break
		}
		end := metadataValueLimit
		if end > len(cart) {
			end = len(cart)
		}

		key := "cart"
		if n > 1 {
			key = "cart_" + strconv.Itoa(n)
		}
		metadata[key] = cart[:end]
		cart = cart[end:]
	}

	return metadata, nil
}
