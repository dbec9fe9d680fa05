package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/api/responses"
	"github.com/safetatt/safetatt-backend/api/validators"
	"github.com/safetatt/safetatt-backend/internal/anamnesis"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type anamnesisCreateRequest struct {
	ClientID         string          `json:"client_id" validate:"required,uuid"`
	AppointmentID    *string         `json:"appointment_id,omitempty" validate:"omitempty,uuid"`
	Answers          json.RawMessage `json:"answers" validate:"required"`
	SignatureDataURL string          `json:"signature_data_url,omitempty"`
}

// AnamnesisCreate stores a consent questionnaire, optionally with a signature
// image persisted to object storage.
func AnamnesisCreate(svc anamnesis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "anamnesis service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body anamnesisCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientID, _ := uuid.Parse(body.ClientID)
		input := anamnesis.CreateRecordInput{
			StudioID:         studioID,
			ClientID:         clientID,
			Answers:          body.Answers,
			SignatureDataURL: body.SignatureDataURL,
		}
		if body.AppointmentID != nil {
			id, _ := uuid.Parse(*body.AppointmentID)
			input.AppointmentID = &id
		}

		record, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// AnamnesisDetail returns one consent record with a freshly signed
// signature URL.
func AnamnesisDetail(svc anamnesis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "anamnesis service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordID, err := pathUUID(r, "recordId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), studioID, recordID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// AnamnesisByClient lists a client's consent records, newest first.
func AnamnesisByClient(svc anamnesis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "anamnesis service unavailable"))
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

		records, err := svc.ListByClient(r.Context(), studioID, clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}
