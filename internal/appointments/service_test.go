package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type slotLock struct {
	studioID       uuid.UUID
	professionalID uuid.UUID
	day            time.Time
}

type fakeRepository struct {
	appointments []models.Appointment
	createFn     func(ctx context.Context, appointment *models.Appointment) error
	updateFn     func(ctx context.Context, appointment *models.Appointment) error
	listErr      error
	events       []string
	locks        []slotLock
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) LockSlot(ctx context.Context, studioID, professionalID uuid.UUID, date time.Time) error {
	f.events = append(f.events, "lock")
	f.locks = append(f.locks, slotLock{studioID: studioID, professionalID: professionalID, day: date})
	return nil
}

func (f *fakeRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	f.events = append(f.events, "create")
	if f.createFn != nil {
		return f.createFn(ctx, appointment)
	}
	appointment.ID = uuid.New()
	f.appointments = append(f.appointments, *appointment)
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, appointment)
	}
	for i := range f.appointments {
		if f.appointments[i].ID == appointment.ID {
			f.appointments[i] = *appointment
		}
	}
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Appointment, error) {
	for i := range f.appointments {
		if f.appointments[i].StudioID == studioID && f.appointments[i].ID == id {
			found := f.appointments[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) ListActiveByProfessionalAndDate(ctx context.Context, studioID, professionalID uuid.UUID, date time.Time) ([]models.Appointment, error) {
	f.events = append(f.events, "scan")
	if f.listErr != nil {
		return nil, f.listErr
	}
	var matched []models.Appointment
	for _, appointment := range f.appointments {
		if appointment.StudioID != studioID || appointment.ProfessionalID != professionalID {
			continue
		}
		if appointment.Status == enums.AppointmentStatusCancelled {
			continue
		}
		if appointment.ScheduledDate.Format("2006-01-02") != date.Format("2006-01-02") {
			continue
		}
		matched = append(matched, appointment)
	}
	return matched, nil
}

func (f *fakeRepository) ListByStudio(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Appointment, error) {
	return f.appointments, nil
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeTxRunner{}, logger.New(logger.Options{ServiceName: "appointments-test"}), time.UTC)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func storedAppointment(studioID, professionalID uuid.UUID, date string, clock string, minutes int, status enums.AppointmentStatus) models.Appointment {
	day, _ := time.Parse("2006-01-02", date)
	return models.Appointment{
		ID:              uuid.New(),
		StudioID:        studioID,
		ClientID:        uuid.New(),
		ProfessionalID:  professionalID,
		Status:          status,
		ScheduledDate:   day,
		ScheduledTime:   clock,
		DurationMinutes: minutes,
	}
}

func TestCheckTimeConflictOverlap(t *testing.T) {
	studioID := uuid.New()
	professionalID := uuid.New()
	repo := &fakeRepository{appointments: []models.Appointment{
		storedAppointment(studioID, professionalID, "2024-06-01", "10:00", 60, enums.AppointmentStatusConfirmed),
	}}
	svc := newTestService(t, repo)

	start := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 11, 30, 0, 0, time.UTC)

	conflict, err := svc.CheckTimeConflict(context.Background(), ConflictCheck{
		StudioID:       studioID,
		ProfessionalID: professionalID,
		StartTime:      start,
		EndTime:        end,
	})
	if err != nil {
		t.Fatalf("CheckTimeConflict error: %v", err)
	}
	if !conflict {
		t.Fatal("expected overlapping interval to conflict")
	}
}

func TestCheckTimeConflictTouchingBoundaries(t *testing.T) {
	studioID := uuid.New()
	professionalID := uuid.New()
	repo := &fakeRepository{appointments: []models.Appointment{
		storedAppointment(studioID, professionalID, "2024-06-01", "10:00", 60, enums.AppointmentStatusConfirmed),
	}}
	svc := newTestService(t, repo)

	// [11:00, 12:00) touches [10:00, 11:00) but does not overlap.
	conflict, err := svc.CheckTimeConflict(context.Background(), ConflictCheck{
		StudioID:       studioID,
		ProfessionalID: professionalID,
		StartTime:      time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CheckTimeConflict error: %v", err)
	}
	if conflict {
		t.Fatal("touching boundaries must not conflict")
	}
}

func TestCheckTimeConflictIgnoresCancelled(t *testing.T) {
	studioID := uuid.New()
	professionalID := uuid.New()
	repo := &fakeRepository{appointments: []models.Appointment{
		storedAppointment(studioID, professionalID, "2024-06-01", "10:00", 60, enums.AppointmentStatusCancelled),
	}}
	svc := newTestService(t, repo)

	conflict, err := svc.CheckTimeConflict(context.Background(), ConflictCheck{
		StudioID:       studioID,
		ProfessionalID: professionalID,
		StartTime:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CheckTimeConflict error: %v", err)
	}
	if conflict {
		t.Fatal("cancelled appointments must not block the slot")
	}
}

func TestCheckTimeConflictExcludesSelfOnUpdate(t *testing.T) {
	studioID := uuid.New()
	professionalID := uuid.New()
	existing := storedAppointment(studioID, professionalID, "2024-06-01", "10:00", 60, enums.AppointmentStatusConfirmed)
	repo := &fakeRepository{appointments: []models.Appointment{existing}}
	svc := newTestService(t, repo)

	conflict, err := svc.CheckTimeConflict(context.Background(), ConflictCheck{
		StudioID:             studioID,
		ProfessionalID:       professionalID,
		StartTime:            time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		EndTime:              time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
		ExcludeAppointmentID: &existing.ID,
	})
	if err != nil {
		t.Fatalf("CheckTimeConflict error: %v", err)
	}
	if conflict {
		t.Fatal("appointment must not conflict with its own stored interval")
	}
}

func TestCheckTimeConflictFetchFailure(t *testing.T) {
	repo := &fakeRepository{listErr: errors.New("storage down")}
	svc := newTestService(t, repo)

	_, err := svc.CheckTimeConflict(context.Background(), ConflictCheck{
		StudioID:       uuid.New(),
		ProfessionalID: uuid.New(),
		StartTime:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("fetch failure must surface as an error, never as conflict=false")
	}
}

func TestCreateRejectsConflictingBooking(t *testing.T) {
	studioID := uuid.New()
	professionalID := uuid.New()
	repo := &fakeRepository{appointments: []models.Appointment{
		storedAppointment(studioID, professionalID, "2024-06-01", "10:00", 60, enums.AppointmentStatusConfirmed),
	}}
	svc := newTestService(t, repo)

	end := time.Date(2024, 6, 1, 11, 30, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), CreateAppointmentInput{
		StudioID:       studioID,
		ClientID:       uuid.New(),
		ProfessionalID: professionalID,
		StartTime:      time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
		EndTime:        &end,
	})

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected structured conflict error, got %v", err)
	}
	if len(repo.appointments) != 1 {
		t.Fatal("conflicting booking must not be persisted")
	}
}

func TestCreateLocksSlotBeforeConflictScan(t *testing.T) {
	studioID := uuid.New()
	professionalID := uuid.New()
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateAppointmentInput{
		StudioID:       studioID,
		ClientID:       uuid.New(),
		ProfessionalID: professionalID,
		StartTime:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	want := []string{"lock", "scan", "create"}
	if len(repo.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, repo.events)
	}
	for i := range want {
		if repo.events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, repo.events)
		}
	}
	lock := repo.locks[0]
	if lock.studioID != studioID || lock.professionalID != professionalID {
		t.Fatalf("lock keyed on wrong slot: %+v", lock)
	}
	if !lock.day.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected lock on booking day, got %v", lock.day)
	}
}

func TestCreateDefaultsDurationWithoutEndTime(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	appointment, err := svc.Create(context.Background(), CreateAppointmentInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
		StartTime:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if appointment.DurationMinutes != DefaultDurationMinutes {
		t.Fatalf("expected default duration %d, got %d", DefaultDurationMinutes, appointment.DurationMinutes)
	}
	if appointment.ScheduledTime != "10:00" {
		t.Fatalf("unexpected scheduled time %q", appointment.ScheduledTime)
	}
	if appointment.Status != enums.AppointmentStatusPending {
		t.Fatalf("expected pending status, got %s", appointment.Status)
	}
}

func TestCreateFloorsNonPositiveDuration(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(-30 * time.Minute)
	appointment, err := svc.Create(context.Background(), CreateAppointmentInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
		StartTime:      start,
		EndTime:        &end,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if appointment.DurationMinutes != DefaultDurationMinutes {
		t.Fatalf("expected floored duration %d, got %d", DefaultDurationMinutes, appointment.DurationMinutes)
	}
}

func TestCreateNormalizesStatusLabel(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	appointment, err := svc.Create(context.Background(), CreateAppointmentInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
		StartTime:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		StatusLabel:    "Confirmado",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if appointment.Status != enums.AppointmentStatusConfirmed {
		t.Fatalf("expected confirmed status, got %s", appointment.Status)
	}
}

func TestUpdateRescheduleExcludesSelf(t *testing.T) {
	studioID := uuid.New()
	professionalID := uuid.New()
	existing := storedAppointment(studioID, professionalID, "2024-06-01", "10:00", 60, enums.AppointmentStatusConfirmed)
	repo := &fakeRepository{appointments: []models.Appointment{existing}}
	svc := newTestService(t, repo)

	// Shift the same appointment by 15 minutes; its old interval overlaps the
	// new one, but it must not conflict with itself.
	newStart := time.Date(2024, 6, 1, 10, 15, 0, 0, time.UTC)
	updated, err := svc.Update(context.Background(), studioID, existing.ID, UpdateAppointmentInput{
		StartTime: &newStart,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.ScheduledTime != "10:15" {
		t.Fatalf("expected rescheduled time 10:15, got %q", updated.ScheduledTime)
	}
}

func TestUpdateEndTimeOnlyRecomputesDuration(t *testing.T) {
	studioID := uuid.New()
	professionalID := uuid.New()
	existing := storedAppointment(studioID, professionalID, "2024-06-01", "10:00", 60, enums.AppointmentStatusConfirmed)
	repo := &fakeRepository{appointments: []models.Appointment{existing}}
	svc := newTestService(t, repo)

	newEnd := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	updated, err := svc.Update(context.Background(), studioID, existing.ID, UpdateAppointmentInput{
		EndTime: &newEnd,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.DurationMinutes != 120 {
		t.Fatalf("expected duration recomputed to 120, got %d", updated.DurationMinutes)
	}
	if updated.ScheduledTime != "10:00" {
		t.Fatalf("start must stay put, got %q", updated.ScheduledTime)
	}
}

func TestUpdateEndTimeOnlyDetectsConflict(t *testing.T) {
	studioID := uuid.New()
	professionalID := uuid.New()
	target := storedAppointment(studioID, professionalID, "2024-06-01", "10:00", 60, enums.AppointmentStatusConfirmed)
	blocker := storedAppointment(studioID, professionalID, "2024-06-01", "11:30", 60, enums.AppointmentStatusConfirmed)
	repo := &fakeRepository{appointments: []models.Appointment{target, blocker}}
	svc := newTestService(t, repo)

	// Stretching [10:00, 11:00) to [10:00, 12:00) runs into the 11:30 booking.
	newEnd := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := svc.Update(context.Background(), studioID, target.ID, UpdateAppointmentInput{
		EndTime: &newEnd,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected structured conflict error, got %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateAppointmentInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCancelSetsStatus(t *testing.T) {
	studioID := uuid.New()
	existing := storedAppointment(studioID, uuid.New(), "2024-06-01", "10:00", 60, enums.AppointmentStatusConfirmed)
	repo := &fakeRepository{appointments: []models.Appointment{existing}}
	svc := newTestService(t, repo)

	cancelled, err := svc.Cancel(context.Background(), studioID, existing.ID)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if cancelled.Status != enums.AppointmentStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
}
