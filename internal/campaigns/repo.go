package campaigns

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
)

// Repository manages persistence for campaigns and their send logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, campaign *models.MarketingCampaign) error
	Update(ctx context.Context, campaign *models.MarketingCampaign) error
	GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.MarketingCampaign, error)
	ListByStudio(ctx context.Context, studioID uuid.UUID) ([]models.MarketingCampaign, error)
	CreateMessage(ctx context.Context, message *models.CampaignMessage) error
	ListMessages(ctx context.Context, campaignID uuid.UUID) ([]models.CampaignMessage, error)
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a campaign repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, campaign *models.MarketingCampaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

func (r *repository) Update(ctx context.Context, campaign *models.MarketingCampaign) error {
	return r.db.WithContext(ctx).Save(campaign).Error
}

func (r *repository) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.MarketingCampaign, error) {
	var campaign models.MarketingCampaign
	err := r.db.WithContext(ctx).
		Where("studio_id = ? AND id = ?", studioID, id).
		First(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repository) ListByStudio(ctx context.Context, studioID uuid.UUID) ([]models.MarketingCampaign, error) {
	var campaigns []models.MarketingCampaign
	if err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *repository) CreateMessage(ctx context.Context, message *models.CampaignMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repository) ListMessages(ctx context.Context, campaignID uuid.UUID) ([]models.CampaignMessage, error) {
	var messages []models.CampaignMessage
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *repository) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.CampaignMessage{})
	return result.RowsAffected, result.Error
}
