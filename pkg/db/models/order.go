package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/permanentprinting/storefront-backend/pkg/enums"
)

// Order is the persisted outcome of a successful checkout. Money columns hold
// amounts already rounded to two places.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Number           string              `gorm:"column:number;not null;uniqueIndex"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus   `gorm:"column:status;not null;default:'placed'"`
	Currency         string              `gorm:"column:currency;not null"`
	Subtotal         decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount   decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	PromotionCode    *string             `gorm:"column:promotion_code"`
	ShippingFee      decimal.Decimal     `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	TaxAmount        decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	Total            decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Shipping         OrderAddress        `gorm:"embedded;embeddedPrefix:shipping_"`
	Billing          OrderAddress        `gorm:"embedded;embeddedPrefix:billing_"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentProvider  *string             `gorm:"column:payment_provider"`
	PaymentReference string              `gorm:"column:payment_reference;not null"`
	LineItems        []OrderLineItem     `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderAddress is a flattened contact + address block stored on the order row.
type OrderAddress struct {
	FirstName  string  `gorm:"column:first_name"`
	LastName   string  `gorm:"column:last_name"`
	Email      string  `gorm:"column:email"`
	Phone      string  `gorm:"column:phone"`
	Address    string  `gorm:"column:address"`
	City       string  `gorm:"column:city"`
	Region     string  `gorm:"column:region"`
	PostalCode *string `gorm:"column:postal_code"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
