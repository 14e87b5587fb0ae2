package bulkorders

import (
	"time"

	"github.com/google/uuid"

	"github.com/permanentprinting/storefront-backend/pkg/db/models"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
)

// DateLayout is the wire format of delivery dates.
const DateLayout = "2006-01-02"

// SubmitRequest is the three-step bulk order form in one payload.
type SubmitRequest struct {
	// company details
	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	Region        string `json:"region,omitempty"`
	BusinessType  string `json:"business_type,omitempty"`

	// order details
	OrderType           string `json:"order_type"`
	Quantity            int    `json:"quantity"`
	DeliveryDate        string `json:"delivery_date"`
	SpecialRequirements string `json:"special_requirements,omitempty"`
	Budget              string `json:"budget,omitempty"`
	Urgency             string `json:"urgency,omitempty"`

	TermsAccepted bool `json:"terms_accepted"`
}

// Violation names a rejected form field and the step it belongs to.
type Violation struct {
	Step   int    `json:"step"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// RequestDTO is a stored bulk request as returned to clients.
type RequestDTO struct {
	ID                  uuid.UUID              `json:"id"`
	Reference           string                 `json:"reference"`
	Status              enums.BulkOrderStatus  `json:"status"`
	CompanyName         string                 `json:"company_name"`
	ContactPerson       string                 `json:"contact_person"`
	Email               string                 `json:"email"`
	Phone               string                 `json:"phone"`
	Address             *string                `json:"address,omitempty"`
	City                *string                `json:"city,omitempty"`
	Region              *string                `json:"region,omitempty"`
	BusinessType        *string                `json:"business_type,omitempty"`
	OrderType           string                 `json:"order_type"`
	Quantity            int                    `json:"quantity"`
	DeliveryDate        string                 `json:"delivery_date"`
	SpecialRequirements *string                `json:"special_requirements,omitempty"`
	Budget              *string                `json:"budget,omitempty"`
	Urgency             enums.BulkOrderUrgency `json:"urgency"`
	UrgencyLabel        string                 `json:"urgency_label"`
	UrgencyFee          string                 `json:"urgency_fee"`
	CreatedAt           time.Time              `json:"created_at"`
}

func FromModel(m *models.BulkOrderRequest) *RequestDTO {
	if m == nil {
		return nil
	}
	return &RequestDTO{
		ID:                  m.ID,
		Reference:           m.Reference,
		Status:              m.Status,
		CompanyName:         m.CompanyName,
		ContactPerson:       m.ContactPerson,
		Email:               m.Email,
		Phone:               m.Phone,
		Address:             m.Address,
		City:                m.City,
		Region:              m.Region,
		BusinessType:        m.BusinessType,
		OrderType:           m.OrderType,
		Quantity:            m.Quantity,
		DeliveryDate:        m.DeliveryDate.UTC().Format(DateLayout),
		SpecialRequirements: m.SpecialRequirements,
		Budget:              m.Budget,
		Urgency:             m.Urgency,
		UrgencyLabel:        m.Urgency.Label(),
		UrgencyFee:          m.UrgencyFee.StringFixed(2),
		CreatedAt:           m.CreatedAt,
	}
}
