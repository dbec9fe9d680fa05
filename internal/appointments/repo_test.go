package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

func setupAppointmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS appointments (
  id TEXT PRIMARY KEY,
  studio_id TEXT NOT NULL,
  client_id TEXT NOT NULL,
  professional_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  scheduled_date DATETIME NOT NULL,
  scheduled_time TEXT NOT NULL,
  duration_minutes INTEGER NOT NULL DEFAULT 60,
  service_type TEXT,
  body_location TEXT,
  size TEXT,
  art_color TEXT,
  price NUMERIC,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedAppointment(studioID, professionalID uuid.UUID, date string, clock string, status enums.AppointmentStatus) *models.Appointment {
	day, _ := time.Parse("2006-01-02", date)
	return &models.Appointment{
		ID:              uuid.New(),
		StudioID:        studioID,
		ClientID:        uuid.New(),
		ProfessionalID:  professionalID,
		Status:          status,
		ScheduledDate:   day,
		ScheduledTime:   clock,
		DurationMinutes: 60,
	}
}

func TestRepositoryListActiveByProfessionalAndDate(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	studioID := uuid.New()
	professionalID := uuid.New()
	otherProfessional := uuid.New()

	late := seedAppointment(studioID, professionalID, "2024-06-01", "14:00", enums.AppointmentStatusConfirmed)
	early := seedAppointment(studioID, professionalID, "2024-06-01", "09:00", enums.AppointmentStatusPending)
	cancelled := seedAppointment(studioID, professionalID, "2024-06-01", "11:00", enums.AppointmentStatusCancelled)
	otherDay := seedAppointment(studioID, professionalID, "2024-06-02", "09:00", enums.AppointmentStatusConfirmed)
	foreign := seedAppointment(studioID, otherProfessional, "2024-06-01", "09:00", enums.AppointmentStatusConfirmed)

	for _, appointment := range []*models.Appointment{late, early, cancelled, otherDay, foreign} {
		require.NoError(t, repo.Create(ctx, appointment))
	}

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := repo.ListActiveByProfessionalAndDate(ctx, studioID, professionalID, day)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Cancelled rows are excluded and results come back in clock order.
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
}

func TestRepositoryLockSlotSkipsNonPostgres(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewRepository(db)

	// The advisory lock is a postgres primitive; other dialects pass through.
	err := repo.LockSlot(context.Background(), uuid.New(), uuid.New(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
}

func TestRepositoryGetByIDScopedToStudio(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	studioID := uuid.New()
	appointment := seedAppointment(studioID, uuid.New(), "2024-06-01", "10:00", enums.AppointmentStatusPending)
	require.NoError(t, repo.Create(ctx, appointment))

	got, err := repo.GetByID(ctx, studioID, appointment.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, appointment.ID, got.ID)

	// Another studio cannot see the row.
	crossTenant, err := repo.GetByID(ctx, uuid.New(), appointment.ID)
	require.NoError(t, err)
	assert.Nil(t, crossTenant)
}

func TestRepositoryListByStudioFilters(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	studioID := uuid.New()
	professionalID := uuid.New()

	inRange := seedAppointment(studioID, professionalID, "2024-06-10", "10:00", enums.AppointmentStatusConfirmed)
	lastDay := seedAppointment(studioID, professionalID, "2024-06-15", "10:00", enums.AppointmentStatusConfirmed)
	outOfRange := seedAppointment(studioID, professionalID, "2024-06-20", "10:00", enums.AppointmentStatusConfirmed)
	wrongStatus := seedAppointment(studioID, professionalID, "2024-06-12", "10:00", enums.AppointmentStatusCancelled)

	for _, appointment := range []*models.Appointment{inRange, lastDay, outOfRange, wrongStatus} {
		require.NoError(t, repo.Create(ctx, appointment))
	}

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	status := enums.AppointmentStatusConfirmed

	got, err := repo.ListByStudio(ctx, studioID, ListFilter{
		ProfessionalID: &professionalID,
		DateFrom:       &from,
		DateTo:         &to,
		Status:         &status,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, inRange.ID, got[0].ID)
	assert.Equal(t, lastDay.ID, got[1].ID)
}

func TestRepositoryUpdate(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	studioID := uuid.New()
	appointment := seedAppointment(studioID, uuid.New(), "2024-06-01", "10:00", enums.AppointmentStatusPending)
	require.NoError(t, repo.Create(ctx, appointment))

	appointment.Status = enums.AppointmentStatusCompleted
	appointment.ScheduledTime = "11:30"
	require.NoError(t, repo.Update(ctx, appointment))

	got, err := repo.GetByID(ctx, studioID, appointment.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, enums.AppointmentStatusCompleted, got.Status)
	assert.Equal(t, "11:30", got.ScheduledTime)
}
