package model

// Provider-agnostic shapes exchanged with the payment provider client.
// Provider payloads are decoded into these once, at the client boundary.

// MetadataAppProductID is the provider metadata key that carries our product id
// through the hosted checkout and back on the session's line items.
const MetadataAppProductID = "app_product_id"

type SessionLineItem struct {
	AppProductID string
	ProductName  string
	ImageURL     string
	Currency     string
	UnitAmount   int64
	Quantity     int64
	// quantity range the hosted checkout lets the buyer adjust within
	MinQuantity int64
	MaxQuantity int64
}

type PaymentSessionRequest struct {
	LineItems        []*SessionLineItem
	CustomerEmail    string
	SuccessURL       string
	CancelURL        string
	IdempotencyKey   string
	CouponID         string
	AllowedCountries []string
	Metadata         map[string]string
}

type PaymentSession struct {
	ID  string
	URL string
}

type EventKind string

const (
	EventCheckoutSessionCompleted EventKind = "checkout.session.completed"
)

// ProviderEvent is a verified inbound notification. CheckoutSession is set only
// for EventCheckoutSessionCompleted.
type ProviderEvent struct {
	ID              string
	Kind            EventKind
	CheckoutSession *CheckoutSession
}

type CheckoutSession struct {
	ID             string
	Currency       string
	AmountSubtotal int64
	AmountTotal    int64
	Customer       CustomerDetails
}

type CustomerDetails struct {
	Email        string
	Name         *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	PostalCode   *string
	Country      *string
}

// ProviderLineItem is a line item as reported by the provider for a completed
// session. Nil pointers mean the provider omitted the field.
type ProviderLineItem struct {
	AppProductID   string
	Quantity       *int64
	UnitAmount     *int64
	AmountSubtotal int64
}
