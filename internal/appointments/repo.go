package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// Repository manages persistence for appointments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockSlot(ctx context.Context, studioID, professionalID uuid.UUID, date time.Time) error
	Create(ctx context.Context, appointment *models.Appointment) error
	Update(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Appointment, error)
	ListActiveByProfessionalAndDate(ctx context.Context, studioID, professionalID uuid.UUID, date time.Time) ([]models.Appointment, error)
	ListByStudio(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Appointment, error)
}

// ListFilter narrows studio appointment listings.
type ListFilter struct {
	ProfessionalID *uuid.UUID
	ClientID       *uuid.UUID
	DateFrom       *time.Time
	DateTo         *time.Time
	Status         *enums.AppointmentStatus
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an appointment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockSlot takes a transaction-scoped advisory lock keyed on the
// professional's booking day. pg_advisory_xact_lock blocks until the holder
// commits or rolls back, so a concurrent booking for the same key waits here
// and its conflict scan then sees the committed row. Must be called inside a
// transaction. No-op on non-postgres dialects (in-memory test databases).
func (r *repository) LockSlot(ctx context.Context, studioID, professionalID uuid.UUID, date time.Time) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	key := fmt.Sprintf("appointments:%s:%s:%s", studioID, professionalID, date.Format("2006-01-02"))
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error
}

func (r *repository) Create(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

func (r *repository) Update(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Save(appointment).Error
}

func (r *repository) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).
		Where("studio_id = ? AND id = ?", studioID, id).
		First(&appointment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *repository) ListActiveByProfessionalAndDate(ctx context.Context, studioID, professionalID uuid.UUID, date time.Time) ([]models.Appointment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var appointments []models.Appointment
	if err := r.db.WithContext(ctx).
		Where("studio_id = ? AND professional_id = ? AND scheduled_date >= ? AND scheduled_date < ? AND status <> ?",
			studioID, professionalID, dayStart, dayEnd, enums.AppointmentStatusCancelled).
		Order("scheduled_time ASC").
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *repository) ListByStudio(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Appointment, error) {
	query := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if filter.ProfessionalID != nil {
		query = query.Where("professional_id = ?", *filter.ProfessionalID)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.DateFrom != nil {
		from := *filter.DateFrom
		query = query.Where("scheduled_date >= ?", time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location()))
	}
	if filter.DateTo != nil {
		// DateTo is inclusive.
		to := *filter.DateTo
		query = query.Where("scheduled_date < ?", time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var appointments []models.Appointment
	if err := query.
		Order("scheduled_date ASC, scheduled_time ASC").
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}
