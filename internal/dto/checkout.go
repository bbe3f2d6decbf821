package dto

type CartLine struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"min=1,max=10"`
}

type Address struct {
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"min=1,max=80"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode" validate:"min=2,max=20"`
	Country      string `json:"country" validate:"len=2,alpha"`
}

type CheckoutRequest struct {
	Items     []*CartLine `json:"items" validate:"required,min=1,dive,required"`
	Address   *Address    `json:"address" validate:"required"`
	PromoCode string      `json:"promoCode,omitempty" validate:"omitempty,max=64"`
}

type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

type RateLimitResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int64  `json:"retryAfter"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}

type StatusResponse struct {
	Database          string `json:"database"`
	StripeSecretKey   bool   `json:"stripeSecretKey"`
	WebhookSecret     bool   `json:"webhookSecret"`
	BaseURL           string `json:"baseUrl"`
	PromoCodesEnabled bool   `json:"promoCodesEnabled"`
}
