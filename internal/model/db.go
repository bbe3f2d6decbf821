package model

import "time"

type Product struct {
	ID          string  `gorm:"primaryKey;size:36;not null" json:"id"`
	Slug        string  `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string  `gorm:"size:1024;not null" json:"imageUrl"`
	// ISO 4217, lowercase
	Currency string `gorm:"size:8;not null" json:"currency"`
	// minor units, never negative
	UnitAmount int64     `gorm:"not null" json:"unitAmount"`
	Active     bool      `gorm:"index;not null" json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
)

type Order struct {
	ID string `gorm:"primaryKey;size:36;not null"`
	// provider checkout session id
	StripePaymentID string      `gorm:"size:255;uniqueIndex;not null"`
	Email           string      `gorm:"size:320;not null"`
	Name            *string     `gorm:"size:255"`
	AddressLine1    *string     `gorm:"size:255"`
	AddressLine2    *string     `gorm:"size:255"`
	City            *string     `gorm:"size:128"`
	State           *string     `gorm:"size:128"`
	PostalCode      *string     `gorm:"size:32"`
	Country         *string     `gorm:"size:2"`
	Currency        string      `gorm:"size:8;not null"`
	Subtotal        int64       `gorm:"not null"`
	Total           int64       `gorm:"not null"`
	Status          OrderStatus `gorm:"size:16;index;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []*OrderItem `gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	ID string `gorm:"primaryKey;size:36;not null"`
	// FK → orders.id
	OrderID string `gorm:"size:36;index;not null"`
	// FK → products.id, carried through provider metadata and not enforced
	ProductID  string `gorm:"size:36;index;not null"`
	Quantity   int64  `gorm:"not null"`
	UnitAmount int64  `gorm:"not null"`
	CreatedAt  time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ReceivedAt  time.Time
	ProcessedAt *time.Time
	CreatedAt   time.Time
}
