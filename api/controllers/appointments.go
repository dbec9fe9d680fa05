package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/api/responses"
	"github.com/safetatt/safetatt-backend/api/validators"
	"github.com/safetatt/safetatt-backend/internal/appointments"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type appointmentCreateRequest struct {
	ClientID       string           `json:"client_id" validate:"required,uuid"`
	ProfessionalID string           `json:"professional_id" validate:"required,uuid"`
	StartTime      time.Time        `json:"start_time" validate:"required"`
	EndTime        *time.Time       `json:"end_time,omitempty"`
	Status         string           `json:"status,omitempty"`
	ServiceType    *string          `json:"service_type,omitempty"`
	BodyLocation   *string          `json:"body_location,omitempty"`
	Size           *string          `json:"size,omitempty"`
	ArtColor       *string          `json:"art_color,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// AppointmentCreate books a new appointment after conflict detection.
func AppointmentCreate(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointment service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body appointmentCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientID, _ := uuid.Parse(body.ClientID)
		professionalID, _ := uuid.Parse(body.ProfessionalID)

		appointment, err := svc.Create(r.Context(), appointments.CreateAppointmentInput{
			StudioID:       studioID,
			ClientID:       clientID,
			ProfessionalID: professionalID,
			StartTime:      body.StartTime,
			EndTime:        body.EndTime,
			StatusLabel:    body.Status,
			ServiceType:    body.ServiceType,
			BodyLocation:   body.BodyLocation,
			Size:           body.Size,
			ArtColor:       body.ArtColor,
			Price:          body.Price,
			Notes:          body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, appointments.FromModel(appointment))
	}
}

type appointmentUpdateRequest struct {
	StartTime    *time.Time       `json:"start_time,omitempty"`
	EndTime      *time.Time       `json:"end_time,omitempty"`
	Status       *string          `json:"status,omitempty"`
	ServiceType  *string          `json:"service_type,omitempty"`
	BodyLocation *string          `json:"body_location,omitempty"`
	Size         *string          `json:"size,omitempty"`
	ArtColor     *string          `json:"art_color,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}

// AppointmentUpdate applies a partial edit, re-running conflict detection when
// the slot moves.
func AppointmentUpdate(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointment service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appointmentID, err := pathUUID(r, "appointmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body appointmentUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appointment, err := svc.Update(r.Context(), studioID, appointmentID, appointments.UpdateAppointmentInput{
			StartTime:    body.StartTime,
			EndTime:      body.EndTime,
			StatusLabel:  body.Status,
			ServiceType:  body.ServiceType,
			BodyLocation: body.BodyLocation,
			Size:         body.Size,
			ArtColor:     body.ArtColor,
			Price:        body.Price,
			Notes:        body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, appointments.FromModel(appointment))
	}
}

// AppointmentDetail returns one appointment scoped to the active studio.
func AppointmentDetail(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointment service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appointmentID, err := pathUUID(r, "appointmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appointment, err := svc.Get(r.Context(), studioID, appointmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, appointments.FromModel(appointment))
	}
}

// AppointmentList returns the studio agenda, optionally filtered by
// professional, client, status, and date range.
func AppointmentList(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointment service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := appointments.ListFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("professional_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid professional_id"))
				return
			}
			filter.ProfessionalID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("client_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id"))
				return
			}
			filter.ClientID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.NormalizeStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown status"))
				return
			}
			filter.Status = &status
		}
		if filter.DateFrom, err = validators.ParseQueryDate(r, "date_from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.DateTo, err = validators.ParseQueryDate(r, "date_to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), studioID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, appointments.FromModels(items))
	}
}

// AppointmentCancel marks an appointment cancelled without deleting it.
func AppointmentCancel(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointment service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appointmentID, err := pathUUID(r, "appointmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appointment, err := svc.Cancel(r.Context(), studioID, appointmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, appointments.FromModel(appointment))
	}
}

type conflictCheckRequest struct {
	ProfessionalID       string    `json:"professional_id" validate:"required,uuid"`
	StartTime            time.Time `json:"start_time" validate:"required"`
	EndTime              time.Time `json:"end_time" validate:"required"`
	ExcludeAppointmentID *string   `json:"exclude_appointment_id,omitempty" validate:"omitempty,uuid"`
}

// AppointmentConflictCheck lets the agenda UI probe a slot before booking.
func AppointmentConflictCheck(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointment service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body conflictCheckRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		professionalID, _ := uuid.Parse(body.ProfessionalID)
		check := appointments.ConflictCheck{
			StudioID:       studioID,
			ProfessionalID: professionalID,
			StartTime:      body.StartTime,
			EndTime:        body.EndTime,
		}
		if body.ExcludeAppointmentID != nil {
			id, _ := uuid.Parse(*body.ExcludeAppointmentID)
			check.ExcludeAppointmentID = &id
		}

		conflict, err := svc.CheckTimeConflict(r.Context(), check)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"conflict": conflict})
	}
}
