package anamnesis

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
)

// Repository manages persistence for consent records.
type Repository interface {
	Create(ctx context.Context, record *models.AnamnesisRecord) error
	GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.AnamnesisRecord, error)
	ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.AnamnesisRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a consent record repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, record *models.AnamnesisRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.AnamnesisRecord, error) {
	var record models.AnamnesisRecord
	err := r.db.WithContext(ctx).
		Where("studio_id = ? AND id = ?", studioID, id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.AnamnesisRecord, error) {
	var records []models.AnamnesisRecord
	if err := r.db.WithContext(ctx).
		Where("studio_id = ? AND client_id = ?", studioID, clientID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
