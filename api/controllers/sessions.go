package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/api/responses"
	"github.com/safetatt/safetatt-backend/api/validators"
	"github.com/safetatt/safetatt-backend/internal/sessions"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type sessionCreateRequest struct {
	ClientID       string           `json:"client_id" validate:"required,uuid"`
	ProfessionalID string           `json:"professional_id" validate:"required,uuid"`
	AppointmentID  *string          `json:"appointment_id,omitempty" validate:"omitempty,uuid"`
	Status         string           `json:"status,omitempty"`
	BodyLocation   *string          `json:"body_location,omitempty"`
	Size           *string          `json:"size,omitempty"`
	ArtColor       *string          `json:"art_color,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Photos         []string         `json:"photos,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// SessionCreate records a performed (or in-progress) service session.
func SessionCreate(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sessionCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientID, _ := uuid.Parse(body.ClientID)
		professionalID, _ := uuid.Parse(body.ProfessionalID)

		input := sessions.CreateSessionInput{
			StudioID:       studioID,
			ClientID:       clientID,
			ProfessionalID: professionalID,
			StatusLabel:    body.Status,
			BodyLocation:   body.BodyLocation,
			Size:           body.Size,
			ArtColor:       body.ArtColor,
			Price:          body.Price,
			Photos:         body.Photos,
			Notes:          body.Notes,
		}
		if body.AppointmentID != nil {
			id, _ := uuid.Parse(*body.AppointmentID)
			input.AppointmentID = &id
		}

		session, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessions.FromModel(session))
	}
}

type sessionUpdateRequest struct {
	Status       *string          `json:"status,omitempty"`
	BodyLocation *string          `json:"body_location,omitempty"`
	Size         *string          `json:"size,omitempty"`
	ArtColor     *string          `json:"art_color,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Photos       *[]string        `json:"photos,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}

// SessionUpdate applies a partial edit. Completing a session triggers the
// cashback earn inside the service.
func SessionUpdate(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sessionUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Update(r.Context(), studioID, sessionID, sessions.UpdateSessionInput{
			StatusLabel:  body.Status,
			BodyLocation: body.BodyLocation,
			Size:         body.Size,
			ArtColor:     body.ArtColor,
			Price:        body.Price,
			Photos:       body.Photos,
			Notes:        body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessions.FromModel(session))
	}
}

// SessionDetail returns one session scoped to the active studio.
func SessionDetail(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), studioID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessions.FromModel(session))
	}
}

// SessionList returns studio sessions filtered by client, professional,
// status, and performed-at range.
func SessionList(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := sessions.ListFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("client_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id"))
				return
			}
			filter.ClientID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("professional_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid professional_id"))
				return
			}
			filter.ProfessionalID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.NormalizeStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown status"))
				return
			}
			filter.Status = &status
		}
		if filter.From, err = validators.ParseQueryDate(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.To, err = validators.ParseQueryDate(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), studioID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessions.FromModels(items))
	}
}

// SessionsByClient returns a client's session history, newest first.
func SessionsByClient(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientID, err := pathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByClient(r.Context(), studioID, clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessions.FromModels(items))
	}
}
