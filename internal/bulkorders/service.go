package bulkorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/permanentprinting/storefront-backend/pkg/db/models"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
	"github.com/permanentprinting/storefront-backend/pkg/pagination"
	"github.com/permanentprinting/storefront-backend/pkg/refcode"
)

const referencePrefix = "BO"

// Service accepts bulk order requests and lists them for staff.
type Service interface {
	Submit(ctx context.Context, userID *uuid.UUID, req SubmitRequest) (*RequestDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*RequestDTO, error)
	List(ctx context.Context, status string, params pagination.Params) (pagination.Page[RequestDTO], error)
}

type repository interface {
	Create(ctx context.Context, req *models.BulkOrderRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BulkOrderRequest, error)
	List(ctx context.Context, status string, params pagination.Params) ([]models.BulkOrderRequest, error)
}

type service struct {
	repo repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bulk order repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Submit(ctx context.Context, userID *uuid.UUID, req SubmitRequest) (*RequestDTO, error) {
	model, violations := s.validate(req)
	if len(violations) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d bulk order field(s) invalid", len(violations))).
			WithDetails(map[string]any{"violations": violations})
	}
	model.UserID = userID

	reference, err := refcode.New(referencePrefix, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reference")
	}
	model.Reference = reference

	if err := s.repo.Create(ctx, model); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store bulk order request")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"reference":  model.Reference,
		"order_type": model.OrderType,
		"quantity":   model.Quantity,
		"urgency":    model.Urgency,
	}), "bulk order request received")
	return FromModel(model), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*RequestDTO, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bulk order request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bulk order request")
	}
	return FromModel(m), nil
}

func (s *service) List(ctx context.Context, status string, params pagination.Params) (pagination.Page[RequestDTO], error) {
	if status = strings.ToLower(strings.TrimSpace(status)); status != "" {
		parsed, err := enums.ParseBulkOrderStatus(status)
		if err != nil {
			return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
				WithDetails(map[string]any{"field": "status"})
		}
		status = string(parsed)
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, status, params)
	if err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bulk order requests")
	}
	dtos := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return pagination.Build(dtos, params, func(r RequestDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	}), nil
}

func (s *service) validate(req SubmitRequest) (*models.BulkOrderRequest, []Violation) {
	var violations []Violation
	required := func(step int, field, value string) string {
		value = strings.TrimSpace(value)
		if value == "" {
			violations = append(violations, Violation{Step: step, Field: field, Reason: "required"})
		}
		return value
	}

	m := &models.BulkOrderRequest{
		CompanyName:         required(1, "company_name", req.CompanyName),
		ContactPerson:       required(1, "contact_person", req.ContactPerson),
		Email:               strings.ToLower(required(1, "email", req.Email)),
		Phone:               required(1, "phone", req.Phone),
		Address:             models.OptionalString(req.Address),
		City:                models.OptionalString(req.City),
		Region:              models.OptionalString(req.Region),
		SpecialRequirements: models.OptionalString(req.SpecialRequirements),
		Budget:              models.OptionalString(req.Budget),
		Quantity:            req.Quantity,
		TermsAccepted:       req.TermsAccepted,
		Status:              enums.BulkOrderStatusReceived,
	}

	if bt := strings.TrimSpace(req.BusinessType); bt != "" {
		if v, ok := canonical(BusinessTypes, bt); ok {
			m.BusinessType = &v
		} else {
			violations = append(violations, Violation{Step: 1, Field: "business_type", Reason: "unknown business type"})
		}
	}

	if ot := required(2, "order_type", req.OrderType); ot != "" {
		if v, ok := canonical(OrderTypes, ot); ok {
			m.OrderType = v
		} else {
			violations = append(violations, Violation{Step: 2, Field: "order_type", Reason: "unknown order type"})
		}
	}
	if req.Quantity < 1 {
		violations = append(violations, Violation{Step: 2, Field: "quantity", Reason: "must be at least 1"})
	}
	if ds := required(2, "delivery_date", req.DeliveryDate); ds != "" {
		date, err := time.Parse(DateLayout, ds)
		switch {
		case err != nil:
			violations = append(violations, Violation{Step: 2, Field: "delivery_date", Reason: "expected YYYY-MM-DD"})
		case !date.After(today(s.now())):
			violations = append(violations, Violation{Step: 2, Field: "delivery_date", Reason: "must be in the future"})
		default:
			m.DeliveryDate = date
		}
	}
	urgency, err := enums.ParseBulkOrderUrgency(strings.ToLower(strings.TrimSpace(req.Urgency)))
	if err != nil {
		violations = append(violations, Violation{Step: 2, Field: "urgency", Reason: "must be standard, rush or express"})
	}
	m.Urgency = urgency
	m.UrgencyFee = urgency.Fee()

	if !req.TermsAccepted {
		violations = append(violations, Violation{Step: 3, Field: "terms_accepted", Reason: "must be accepted"})
	}
	return m, violations
}

func today(now time.Time) time.Time {
	y, mo, d := now.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
