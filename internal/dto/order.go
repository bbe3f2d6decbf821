package dto

import (
	"storefront/internal/model"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProductSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"imageUrl"`
}

type OrderItemResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"productId"`
	Quantity            int64           `json:"quantity"`
	UnitAmount          int64           `json:"unitAmount"`
	UnitAmountFormatted string          `json:"unitAmountFormatted"`
	Product             *ProductSummary `json:"product,omitempty"`
}

type ShippingSummary struct {
	AddressLine1 string  `json:"addressLine1"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	PostalCode   *string `json:"postalCode,omitempty"`
	Country      *string `json:"country,omitempty"`
}

type OrderResponse struct {
	ID                string               `json:"id"`
	StripePaymentID   string               `json:"stripePaymentId"`
	Status            model.OrderStatus    `json:"status"`
	Email             string               `json:"email"`
	Name              *string              `json:"name,omitempty"`
	Shipping          ShippingSummary      `json:"shipping"`
	Currency          string               `json:"currency"`
	Subtotal          int64                `json:"subtotal"`
	SubtotalFormatted string               `json:"subtotalFormatted"`
	Total             int64                `json:"total"`
	TotalFormatted    string               `json:"totalFormatted"`
	Items             []*OrderItemResponse `json:"items"`
	CreatedAt         time.Time            `json:"createdAt"`
}

type ProductsResponse struct {
	Products []*model.Product `json:"products"`
}

// NewOrderResponse builds the customer-facing view of an order with PII masked.
func NewOrderResponse(order *model.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:              order.ID,
		StripePaymentID: order.StripePaymentID,
		Status:          order.Status,
		Email:           MaskEmail(order.Email),
		Name:            order.Name,
		Shipping: ShippingSummary{
			AddressLine1: MaskAddress(order.AddressLine1),
			City:         order.City,
			State:        order.State,
			PostalCode:   order.PostalCode,
			Country:      order.Country,
		},
		Currency:          order.Currency,
		Subtotal:          order.Subtotal,
		SubtotalFormatted: FormatAmount(order.Subtotal, order.Currency),
		Total:             order.Total,
		TotalFormatted:    FormatAmount(order.Total, order.Currency),
		Items:             make([]*OrderItemResponse, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
	}

	for _, item := range order.Items {
		ir := &OrderItemResponse{
			ID:                  item.ID,
			ProductID:           item.ProductID,
			Quantity:            item.Quantity,
			UnitAmount:          item.UnitAmount,
			UnitAmountFormatted: FormatAmount(item.UnitAmount, order.Currency),
		}
		if item.Product != nil {
			ir.Product = &ProductSummary{
				ID:       item.Product.ID,
				Name:     item.Product.Name,
				Slug:     item.Product.Slug,
				ImageURL: item.Product.ImageURL,
			}
		}
		resp.Items = append(resp.Items, ir)
	}

	return resp
}

// MaskEmail keeps the first two characters of the local part.
func MaskEmail(email string) string {
	if email == "" {
		return "N/A"
	}
	local, domain, ok := strings.Cut(email, "@")
	runes := []rune(local)
	if !ok || domain == "" || len(runes) <= 2 {
		return email
	}
	return string(runes[:2]) + "***@" + domain
}

// MaskAddress keeps the last four characters of an address line.
func MaskAddress(line *string) string {
	if line == nil || *line == "" {
		return "N/A"
	}
	runes := []rune(*line)
	if len(runes) <= 4 {
		return *line
	}
	return "****" + string(runes[len(runes)-4:])
}

// zero-decimal currencies have no minor unit
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true,
	"xpf": true,
}

// FormatAmount renders a minor-unit amount as "12.34 USD".
func FormatAmount(amount int64, currency string) string {
	cur := strings.ToLower(currency)
	exp := int32(-2)
	if zeroDecimalCurrencies[cur] {
		exp = 0
	}
	return decimal.New(amount, exp).StringFixed(-exp) + " " + strings.ToUpper(cur)
}
