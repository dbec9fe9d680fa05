package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/api/responses"
	"github.com/safetatt/safetatt-backend/api/validators"
	"github.com/safetatt/safetatt-backend/internal/loyalty"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

// LoyaltyBalance returns a client's spendable credit and next expiry.
func LoyaltyBalance(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
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

		responses.WriteSuccess(w, svc.GetClientBalance(r.Context(), studioID, clientID))
	}
}

// LoyaltyClientTransactions lists a client's ledger entries, newest first.
func LoyaltyClientTransactions(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
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

		items, err := svc.ListClientTransactions(r.Context(), studioID, clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loyalty.TransactionsFromModels(items))
	}
}

type loyaltyTransactionRequest struct {
	ClientID      string          `json:"client_id" validate:"required,uuid"`
	AppointmentID *string         `json:"appointment_id,omitempty" validate:"omitempty,uuid"`
	Type          string          `json:"type" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Description   string          `json:"description" validate:"required"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
}

// LoyaltyTransactionCreate appends a manual ledger entry (credit, debit, or
// adjustment).
func LoyaltyTransactionCreate(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body loyaltyTransactionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txType, err := enums.ParseLoyaltyTransactionType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}

		clientID, _ := uuid.Parse(body.ClientID)
		input := loyalty.CreateTransactionInput{
			StudioID:    studioID,
			ClientID:    clientID,
			Type:        txType,
			Amount:      body.Amount,
			Description: body.Description,
			ExpiresAt:   body.ExpiresAt,
		}
		if body.AppointmentID != nil {
			id, _ := uuid.Parse(*body.AppointmentID)
			input.AppointmentID = &id
		}

		entry, err := svc.CreateTransaction(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, loyalty.TransactionFromModel(entry))
	}
}

// LoyaltyMetrics summarizes the studio's cashback liability.
func LoyaltyMetrics(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		metrics, err := svc.GetDashboardMetrics(r.Context(), studioID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, metrics)
	}
}

// LoyaltyClients lists per-client loyalty aggregates for studio views.
func LoyaltyClients(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summaries, err := svc.GetClientsWithLoyalty(r.Context(), studioID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summaries)
	}
}

// LoyaltySettingsGet returns the studio cashback policy.
func LoyaltySettingsGet(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.GetSettings(r.Context(), studioID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loyalty.SettingsFromModel(settings))
	}
}

type loyaltySettingsRequest struct {
	CashbackPercent decimal.Decimal `json:"cashback_percent" validate:"required"`
	ExpiryDays      int             `json:"expiry_days" validate:"min=0"`
	Enabled         bool            `json:"enabled"`
}

// LoyaltySettingsUpdate replaces the studio cashback policy.
func LoyaltySettingsUpdate(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		studioID, err := studioIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body loyaltySettingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.UpdateSettings(r.Context(), loyalty.UpdateSettingsInput{
			StudioID:        studioID,
			CashbackPercent: body.CashbackPercent,
			ExpiryDays:      body.ExpiryDays,
			Enabled:         body.Enabled,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loyalty.SettingsFromModel(settings))
	}
}
