package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

// DefaultDurationMinutes is the slot length applied when a booking gives no
// end time, or when the computed duration is non-positive.
const DefaultDurationMinutes = 60

const scheduledTimeLayout = "15:04"

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines booking and conflict-detection operations.
type Service interface {
	CheckTimeConflict(ctx context.Context, check ConflictCheck) (bool, error)
	Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error)
	Update(ctx context.Context, studioID, id uuid.UUID, input UpdateAppointmentInput) (*models.Appointment, error)
	Get(ctx context.Context, studioID, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Appointment, error)
	Cancel(ctx context.Context, studioID, id uuid.UUID) (*models.Appointment, error)
}

type service struct {
	repo Repository
	tx   TxRunner
	logg *logger.Logger
	loc  *time.Location
}

// NewService wires an appointment service with its dependencies.
func NewService(repo Repository, tx TxRunner, logg *logger.Logger, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("appointment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, tx: tx, logg: logg, loc: loc}, nil
}

func (s *service) CheckTimeConflict(ctx context.Context, check ConflictCheck) (bool, error) {
	if check.StudioID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	if check.ProfessionalID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "professional id is required")
	}
	if !check.EndTime.After(check.StartTime) {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "end time must be after start time")
	}

	return s.hasConflict(ctx, s.repo, check)
}

// hasConflict runs the same-day overlap scan against the provided repository
// binding, so callers inside a transaction see uncommitted rows.
func (s *service) hasConflict(ctx context.Context, repo Repository, check ConflictCheck) (bool, error) {
	candidates, err := repo.ListActiveByProfessionalAndDate(ctx, check.StudioID, check.ProfessionalID, s.slotDay(check.StartTime))
	if err != nil {
		return false, err
	}

	for _, candidate := range candidates {
		if check.ExcludeAppointmentID != nil && candidate.ID == *check.ExcludeAppointmentID {
			continue
		}
		candidateStart, err := s.absoluteStart(candidate)
		if err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("appointments: skipping candidate %s with bad scheduled_time", candidate.ID))
			continue
		}
		candidateEnd := candidateStart.Add(time.Duration(candidate.DurationMinutes) * time.Minute)

		// Half-open interval test: touching boundaries do not overlap.
		if check.StartTime.Before(candidateEnd) && check.EndTime.After(candidateStart) {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error) {
	if input.StudioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if input.ProfessionalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "professional id is required")
	}
	if input.StartTime.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start time is required")
	}

	duration := normalizeDuration(input.StartTime, input.EndTime)
	end := input.StartTime.Add(time.Duration(duration) * time.Minute)

	localStart := input.StartTime.In(s.loc)
	appointment := &models.Appointment{
		StudioID:        input.StudioID,
		ClientID:        input.ClientID,
		ProfessionalID:  input.ProfessionalID,
		Status:          enums.NormalizeStatus(input.StatusLabel),
		ScheduledDate:   time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, s.loc),
		ScheduledTime:   localStart.Format(scheduledTimeLayout),
		DurationMinutes: duration,
		ServiceType:     input.ServiceType,
		BodyLocation:    input.BodyLocation,
		Size:            input.Size,
		ArtColor:        input.ArtColor,
		Price:           input.Price,
		Notes:           input.Notes,
	}
	if input.StatusLabel == "" {
		appointment.Status = enums.AppointmentStatusPending
	}

	// The advisory lock serializes bookings per (professional, day): a
	// concurrent booking for the same key blocks on LockSlot until this
	// transaction commits, then its scan sees the committed row.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockSlot(ctx, input.StudioID, input.ProfessionalID, s.slotDay(input.StartTime)); err != nil {
			return err
		}
		conflict, err := s.hasConflict(ctx, repo, ConflictCheck{
			StudioID:       input.StudioID,
			ProfessionalID: input.ProfessionalID,
			StartTime:      input.StartTime,
			EndTime:        end,
		})
		if err != nil {
			return err
		}
		if conflict {
			return pkgerrors.New(pkgerrors.CodeConflict, "professional already booked for this time")
		}
		return repo.Create(ctx, appointment)
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

func (s *service) Update(ctx context.Context, studioID, id uuid.UUID, input UpdateAppointmentInput) (*models.Appointment, error) {
	if studioID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id and appointment id are required")
	}

	var updated *models.Appointment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		appointment, err := repo.GetByID(ctx, studioID, id)
		if err != nil {
			return err
		}
		if appointment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
		}

		// Any change to the interval, including an end-time-only patch that
		// stretches the stored slot, re-runs the conflict check.
		if input.StartTime != nil || input.EndTime != nil {
			var start time.Time
			if input.StartTime != nil {
				start = *input.StartTime
			} else {
				stored, err := s.absoluteStart(*appointment)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading stored schedule")
				}
				start = stored
			}
			duration := appointment.DurationMinutes
			if input.EndTime != nil {
				duration = normalizeDuration(start, input.EndTime)
			}
			end := start.Add(time.Duration(duration) * time.Minute)

			if err := repo.LockSlot(ctx, studioID, appointment.ProfessionalID, s.slotDay(start)); err != nil {
				return err
			}
			conflict, err := s.hasConflict(ctx, repo, ConflictCheck{
				StudioID:             studioID,
				ProfessionalID:       appointment.ProfessionalID,
				StartTime:            start,
				EndTime:              end,
				ExcludeAppointmentID: &id,
			})
			if err != nil {
				return err
			}
			if conflict {
				return pkgerrors.New(pkgerrors.CodeConflict, "professional already booked for this time")
			}

			localStart := start.In(s.loc)
			appointment.ScheduledDate = time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, s.loc)
			appointment.ScheduledTime = localStart.Format(scheduledTimeLayout)
			appointment.DurationMinutes = duration
		}

		if input.StatusLabel != nil {
			appointment.Status = enums.NormalizeStatus(*input.StatusLabel)
		}
		if input.ServiceType != nil {
			appointment.ServiceType = input.ServiceType
		}
		if input.BodyLocation != nil {
			appointment.BodyLocation = input.BodyLocation
		}
		if input.Size != nil {
			appointment.Size = input.Size
		}
		if input.ArtColor != nil {
			appointment.ArtColor = input.ArtColor
		}
		if input.Price != nil {
			appointment.Price = input.Price
		}
		if input.Notes != nil {
			appointment.Notes = input.Notes
		}

		if err := repo.Update(ctx, appointment); err != nil {
			return err
		}
		updated = appointment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, studioID, id uuid.UUID) (*models.Appointment, error) {
	if studioID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id and appointment id are required")
	}
	appointment, err := s.repo.GetByID(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
	}
	return appointment, nil
}

func (s *service) List(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Appointment, error) {
	if studioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	return s.repo.ListByStudio(ctx, studioID, filter)
}

func (s *service) Cancel(ctx context.Context, studioID, id uuid.UUID) (*models.Appointment, error) {
	if studioID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id and appointment id are required")
	}
	appointment, err := s.repo.GetByID(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
	}

	appointment.Status = enums.AppointmentStatusCancelled
	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// slotDay truncates an instant to its calendar day in the studio's timezone.
func (s *service) slotDay(start time.Time) time.Time {
	local := start.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
}

// absoluteStart recombines the stored (date, time) pair into an instant in the
// studio's timezone.
func (s *service) absoluteStart(appointment models.Appointment) (time.Time, error) {
	clock, err := time.Parse(scheduledTimeLayout, appointment.ScheduledTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing scheduled_time %q: %w", appointment.ScheduledTime, err)
	}
	date := appointment.ScheduledDate.In(s.loc)
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, s.loc), nil
}

// normalizeDuration derives minutes from the (start, end) delta, defaulting
// to the standard slot when no end is given and flooring non-positive deltas
// to the default instead of rejecting them.
func normalizeDuration(start time.Time, end *time.Time) int {
	if end == nil {
		return DefaultDurationMinutes
	}
	minutes := int(end.Sub(start) / time.Minute)
	if minutes <= 0 {
		return DefaultDurationMinutes
	}
	return minutes
}
