package studios

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// Repository handles studio persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to studio operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new studio row.
func (r *Repository) Create(ctx context.Context, dto CreateStudioDTO) (*models.Studio, error) {
	studio := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(studio).Error; err != nil {
		return nil, err
	}
	return studio, nil
}

// FindByID loads a studio by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Studio, error) {
	var studio models.Studio
	if err := r.db.WithContext(ctx).First(&studio, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &studio, nil
}

// Update saves the provided studio.
func (r *Repository) Update(ctx context.Context, studio *models.Studio) error {
	if studio == nil {
		return fmt.Errorf("studio is required")
	}
	return r.db.WithContext(ctx).Save(studio).Error
}

// ListWithWhatsAppInstance returns studios that have a provisioned messaging
// instance, for the health poller.
func (r *Repository) ListWithWhatsAppInstance(ctx context.Context) ([]models.Studio, error) {
	var studios []models.Studio
	if err := r.db.WithContext(ctx).
		Where("whatsapp_instance IS NOT NULL AND whatsapp_instance <> ''").
		Find(&studios).Error; err != nil {
		return nil, err
	}
	return studios, nil
}

// UpdateWhatsAppStatus persists the last observed gateway connection state.
func (r *Repository) UpdateWhatsAppStatus(ctx context.Context, id uuid.UUID, status enums.WhatsAppConnectionState) error {
	return r.db.WithContext(ctx).
		Model(&models.Studio{}).
		Where("id = ?", id).
		UpdateColumn("whatsapp_status", status).Error
}

// UpdateWhatsAppInstance stores the provisioned instance identity and token.
func (r *Repository) UpdateWhatsAppInstance(ctx context.Context, id uuid.UUID, instance, token string) error {
	return r.db.WithContext(ctx).
		Model(&models.Studio{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"whatsapp_instance": instance,
			"whatsapp_token":    token,
		}).Error
}
