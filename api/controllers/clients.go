package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/api/middleware"
	"github.com/safetatt/safetatt-backend/api/responses"
	"github.com/safetatt/safetatt-backend/api/validators"
	"github.com/safetatt/safetatt-backend/internal/clients"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
	"github.com/safetatt/safetatt-backend/pkg/pagination"
)

const (
	defaultClientPageSize = 20
	maxClientPageSize     = 100
)

type clientRequest struct {
	Name      string  `json:"name" validate:"required"`
	Phone     string  `json:"phone" validate:"required"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	BirthDate *string `json:"birth_date,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

func parseBirthDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "birth_date must be a YYYY-MM-DD date")
	}
	return &value, nil
}

func studioIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.StudioIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "studio context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid studio id")
	}
	return id, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

// ClientCreate registers a new studio client.
func ClientCreate(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body clientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		birthDate, err := parseBirthDate(body.BirthDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Create(r.Context(), clients.CreateClientInput{
			StudioID:  studioID,
			Name:      body.Name,
			Phone:     body.Phone,
			Email:     body.Email,
			BirthDate: birthDate,
			Instagram: body.Instagram,
			Notes:     body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, clients.FromModel(client))
	}
}

type clientUpdateRequest struct {
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	BirthDate *string `json:"birth_date,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// ClientUpdate applies a partial edit to an existing client.
func ClientUpdate(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
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

		var body clientUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		birthDate, err := parseBirthDate(body.BirthDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Update(r.Context(), studioID, clientID, clients.UpdateClientInput{
			Name:      body.Name,
			Phone:     body.Phone,
			Email:     body.Email,
			BirthDate: birthDate,
			Instagram: body.Instagram,
			Notes:     body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, clients.FromModel(client))
	}
}

// ClientDetail returns one client scoped to the active studio.
func ClientDetail(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
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

		client, err := svc.Get(r.Context(), studioID, clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, clients.FromModel(client))
	}
}

// ClientList pages through the studio's client base, optionally filtered by search.
func ClientList(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultClientPageSize, 1, maxClientPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), studioID, clients.ListParams{
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"clients":     clients.FromModels(page.Clients),
			"next_cursor": page.NextCursor,
		})
	}
}
