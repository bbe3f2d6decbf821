package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"storefront/internal/config"
	"storefront/internal/model"
	"strings"

	"github.com/stripe/stripe-go/v80"
	stripeclient "github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrCouponNotFound   = errors.New("promotion code not found or not valid")
)

type StripeClient interface {
	// CreateCheckoutSession creates a hosted checkout session from trusted line items.
	CreateCheckoutSession(ctx context.Context, req *model.PaymentSessionRequest) (*model.PaymentSession, error)

	// FindPromotionCoupon returns the id of the valid coupon behind an active
	// promotion code, or ErrCouponNotFound.
	FindPromotionCoupon(ctx context.Context, code string) (string, error)

	// ConstructEvent verifies the signature over the raw payload and decodes it.
	ConstructEvent(payload []byte, signature, secret string) (*model.ProviderEvent, error)

	// ListLineItems returns every line item of a session with product metadata expanded.
	ListLineItems(ctx context.Context, sessionID string) ([]*model.ProviderLineItem, error)
}

type stripeClientImpl struct {
	api *stripeclient.API
}

func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	return newStripeClient(stripeCfg.SecretKey, nil)
}

// newStripeClient accepts custom backends so tests can point the SDK at a local server.
func newStripeClient(secretKey string, backends *stripe.Backends) *stripeClientImpl {
	return &stripeClientImpl{
		api: stripeclient.New(secretKey, backends),
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, req *model.PaymentSessionRequest) (*model.PaymentSession, error) {
	params := buildCheckoutSessionParams(req)
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return &model.PaymentSession{
		ID:  sess.ID,
		URL: sess.URL,
	}, nil
}

func (c *stripeClientImpl) FindPromotionCoupon(ctx context.Context, code string) (string, error) {
	params := &stripe.PromotionCodeListParams{
		Code:   stripe.String(strings.ToUpper(code)),
		Active: stripe.Bool(true),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(10)

	iter := c.api.PromotionCodes.List(params)
	for iter.Next() {
		coupon := iter.PromotionCode().Coupon
		if coupon != nil && coupon.Valid && !coupon.Deleted {
			return coupon.ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("stripe list promotion codes: %w", err)
	}

	return "", ErrCouponNotFound
}

func (c *stripeClientImpl) ConstructEvent(payload []byte, signature, secret string) (*model.ProviderEvent, error) {
	// verify over the untouched bytes; API version of the payload is not checked
	if err := webhook.ValidatePayload(payload, signature, secret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return decodeEvent(payload)
}

func (c *stripeClientImpl) ListLineItems(ctx context.Context, sessionID string) ([]*model.ProviderLineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)
	params.AddExpand("data.price.product")

	var items []*model.ProviderLineItem
	iter := c.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		items = append(items, toProviderLineItem(iter.LineItem()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list line items for %s: %w", sessionID, err)
	}

	return items, nil
}

func buildCheckoutSessionParams(req *model.PaymentSessionRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(req.LineItems))
	for i, item := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.ProductName),
			Metadata: map[string]string{
				model.MetadataAppProductID: item.AppProductID,
			},
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		lineItems[i] = &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(item.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(item.Quantity),
			AdjustableQuantity: &stripe.CheckoutSessionLineItemAdjustableQuantityParams{
				Enabled: stripe.Bool(true),
				Minimum: stripe.Int64(item.MinQuantity),
				Maximum: stripe.Int64(item.MaxQuantity),
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
		CustomerEmail: stripe.String(req.CustomerEmail),
	}
	if req.CouponID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(req.CouponID)},
		}
	}
	if len(req.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	return params
}

func decodeEvent(payload []byte) (*model.ProviderEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}

	result := &model.ProviderEvent{
		ID:   event.ID,
		Kind: model.EventKind(event.Type),
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return result, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("decode webhook event %s: missing data object", event.ID)
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	if sess.ID == "" {
		return nil, fmt.Errorf("decode webhook event %s: checkout session without id", event.ID)
	}

	result.CheckoutSession = toCheckoutSession(&sess)
	return result, nil
}

func toCheckoutSession(sess *stripe.CheckoutSession) *model.CheckoutSession {
	currency := string(sess.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	result := &model.CheckoutSession{
		ID:             sess.ID,
		Currency:       currency,
		AmountSubtotal: sess.AmountSubtotal,
		AmountTotal:    sess.AmountTotal,
	}

	details := sess.CustomerDetails
	if details == nil {
		return result
	}
	result.Customer.Email = details.Email
	result.Customer.Name = optional(details.Name)
	if addr := details.Address; addr != nil {
		result.Customer.AddressLine1 = optional(addr.Line1)
		result.Customer.AddressLine2 = optional(addr.Line2)
		result.Customer.City = optional(addr.City)
		result.Customer.State = optional(addr.State)
		result.Customer.PostalCode = optional(addr.PostalCode)
		result.Customer.Country = optional(addr.Country)
	}

	return result
}

func toProviderLineItem(li *stripe.LineItem) *model.ProviderLineItem {
	item := &model.ProviderLineItem{
		AmountSubtotal: li.AmountSubtotal,
	}
	// the SDK decodes JSON null as zero
	if li.Quantity > 0 {
		qty := li.Quantity
		item.Quantity = &qty
	}
	if li.Price == nil {
		return item
	}
	if li.Price.UnitAmount > 0 {
		unitAmount := li.Price.UnitAmount
		item.UnitAmount = &unitAmount
	}
	if li.Price.Product != nil {
		item.AppProductID = li.Price.Product.Metadata[model.MetadataAppProductID]
	}

	return item
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
