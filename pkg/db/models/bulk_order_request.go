package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/permanentprinting/storefront-backend/pkg/enums"
)

// BulkOrderRequest is a quote request submitted through the bulk-order form.
type BulkOrderRequest struct {
	ID                  uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Reference           string                 `gorm:"column:reference;not null;uniqueIndex"`
	UserID              *uuid.UUID             `gorm:"column:user_id;type:uuid"`
	CompanyName         string                 `gorm:"column:company_name;not null"`
	ContactPerson       string                 `gorm:"column:contact_person;not null"`
	Email               string                 `gorm:"column:email;not null"`
	Phone               string                 `gorm:"column:phone;not null"`
	Address             *string                `gorm:"column:address"`
	City                *string                `gorm:"column:city"`
	Region              *string                `gorm:"column:region"`
	BusinessType        *string                `gorm:"column:business_type"`
	OrderType           string                 `gorm:"column:order_type;not null"`
	Quantity            int                    `gorm:"column:quantity;not null"`
	DeliveryDate        time.Time              `gorm:"column:delivery_date;not null"`
	SpecialRequirements *string                `gorm:"column:special_requirements"`
	Budget              *string                `gorm:"column:budget"`
	Urgency             enums.BulkOrderUrgency `gorm:"column:urgency;not null;default:'standard'"`
	UrgencyFee          decimal.Decimal        `gorm:"column:urgency_fee;type:numeric(12,2);not null"`
	TermsAccepted       bool                   `gorm:"column:terms_accepted;not null"`
	Status              enums.BulkOrderStatus  `gorm:"column:status;not null;default:'received'"`
	CreatedAt           time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *BulkOrderRequest) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
