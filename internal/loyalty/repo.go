package loyalty

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
)

// Repository manages persistence for loyalty transactions and settings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tx *models.LoyaltyTransaction) error
	ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.LoyaltyTransaction, error)
	ListByStudio(ctx context.Context, studioID uuid.UUID) ([]models.LoyaltyTransaction, error)
	GetSettings(ctx context.Context, studioID uuid.UUID) (*models.LoyaltySettings, error)
	UpsertSettings(ctx context.Context, settings *models.LoyaltySettings) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a loyalty repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, tx *models.LoyaltyTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *repository) ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.LoyaltyTransaction, error) {
	var txs []models.LoyaltyTransaction
	if err := r.db.WithContext(ctx).
		Where("studio_id = ? AND client_id = ?", studioID, clientID).
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *repository) ListByStudio(ctx context.Context, studioID uuid.UUID) ([]models.LoyaltyTransaction, error) {
	var txs []models.LoyaltyTransaction
	if err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *repository) GetSettings(ctx context.Context, studioID uuid.UUID) (*models.LoyaltySettings, error) {
	var settings models.LoyaltySettings
	err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) UpsertSettings(ctx context.Context, settings *models.LoyaltySettings) error {
	existing, err := r.GetSettings(ctx, settings.StudioID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(settings).Error
	}
	settings.ID = existing.ID
	settings.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(settings).Error
}
