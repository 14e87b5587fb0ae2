package bulkorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/permanentprinting/storefront-backend/pkg/db/models"
	"github.com/permanentprinting/storefront-backend/pkg/pagination"
)

// Repository persists bulk order requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, req *models.BulkOrderRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BulkOrderRequest, error) {
	var req models.BulkOrderRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns up to limit+1 requests, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string, params pagination.Params) ([]models.BulkOrderRequest, error) {
	scope, err := pagination.Newest(params)
	if err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&models.BulkOrderRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []models.BulkOrderRequest
	if err := q.Scopes(scope).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
