package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
)

// Repository manages persistence for performed-service sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Session, error)
	ListByStudio(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Session, error)
	ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.Session, error)
	NextSessionNumber(ctx context.Context, studioID, clientID uuid.UUID) (int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a session repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) Update(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *repository) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("studio_id = ? AND id = ?", studioID, id).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) ListByStudio(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Session, error) {
	query := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ProfessionalID != nil {
		query = query.Where("professional_id = ?", *filter.ProfessionalID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", filter.To.Add(24*time.Hour))
	}

	var sessions []models.Session
	if err := query.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	if err := r.db.WithContext(ctx).
		Where("studio_id = ? AND client_id = ?", studioID, clientID).
		Order("session_number ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) NextSessionNumber(ctx context.Context, studioID, clientID uuid.UUID) (int, error) {
	var current int
	err := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Select("COALESCE(MAX(session_number), 0)").
		Where("studio_id = ? AND client_id = ?", studioID, clientID).
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}
