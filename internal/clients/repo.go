package clients

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/pagination"
)

// Repository manages persistence for studio clients.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Client, error)
	FindByPhone(ctx context.Context, studioID uuid.UUID, phone string) (*models.Client, error)
	List(ctx context.Context, studioID uuid.UUID, params ListParams) (ClientPage, error)
	ListAll(ctx context.Context, studioID uuid.UUID) ([]models.Client, error)
	ListByIDs(ctx context.Context, studioID uuid.UUID, ids []uuid.UUID) ([]models.Client, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a client repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *repository) Update(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *repository) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).
		Where("studio_id = ? AND id = ?", studioID, id).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repository) FindByPhone(ctx context.Context, studioID uuid.UUID, phone string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).
		Where("studio_id = ? AND phone = ?", studioID, phone).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repository) List(ctx context.Context, studioID uuid.UUID, params ListParams) (ClientPage, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Pagination.Limit)
	cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
	if err != nil {
		return ClientPage{}, err
	}

	query := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if search := strings.TrimSpace(params.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ?", like, "%"+search+"%")
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var records []models.Client
	if err := query.
		Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Pagination.Limit)).
		Find(&records).Error; err != nil {
		return ClientPage{}, err
	}

	page := ClientPage{Clients: records}
	if len(records) > normalizedLimit {
		page.Clients = records[:normalizedLimit]
		last := page.Clients[len(page.Clients)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (r *repository) ListAll(ctx context.Context, studioID uuid.UUID) ([]models.Client, error) {
	var records []models.Client
	if err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListByIDs(ctx context.Context, studioID uuid.UUID, ids []uuid.UUID) ([]models.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var records []models.Client
	if err := r.db.WithContext(ctx).
		Where("studio_id = ? AND id IN ?", studioID, ids).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
