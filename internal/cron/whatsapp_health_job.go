package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type whatsappStudioStore interface {
	ListWithWhatsAppInstance(ctx context.Context) ([]models.Studio, error)
	UpdateWhatsAppStatus(ctx context.Context, id uuid.UUID, status enums.WhatsAppConnectionState) error
}

type connectionChecker interface {
	ConnectionState(ctx context.Context, instance, token string) (enums.WhatsAppConnectionState, error)
}

// WhatsAppHealthJobParams configure the instance health poller.
type WhatsAppHealthJobParams struct {
	Logger  *logger.Logger
	Studios whatsappStudioStore
	Gateway connectionChecker
}

// NewWhatsAppHealthJob builds the job that polls the gateway connection state
// for every studio with a provisioned instance and persists changes.
func NewWhatsAppHealthJob(params WhatsAppHealthJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Studios == nil {
		return nil, fmt.Errorf("studio store required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	return &whatsappHealthJob{
		logg:    params.Logger,
		studios: params.Studios,
		gateway: params.Gateway,
	}, nil
}

type whatsappHealthJob struct {
	logg    *logger.Logger
	studios whatsappStudioStore
	gateway connectionChecker
}

func (j *whatsappHealthJob) Name() string { return "whatsapp-instance-health" }

func (j *whatsappHealthJob) Run(ctx context.Context) error {
	studios, err := j.studios.ListWithWhatsAppInstance(ctx)
	if err != nil {
		return fmt.Errorf("listing studios with instance: %w", err)
	}

	var errs error
	checked, changed := 0, 0
	for _, studio := range studios {
		if studio.WhatsAppInstance == nil || studio.WhatsAppToken == nil {
			continue
		}
		checked++

		state, err := j.gateway.ConnectionState(ctx, *studio.WhatsAppInstance, *studio.WhatsAppToken)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("studio %s: %w", studio.ID, err))
			continue
		}
		if studio.WhatsAppStatus != nil && *studio.WhatsAppStatus == state {
			continue
		}
		if err := j.studios.UpdateWhatsAppStatus(ctx, studio.ID, state); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("studio %s: persist status: %w", studio.ID, err))
			continue
		}
		changed++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"instances_checked": checked,
		"status_changes":    changed,
	})
	j.logg.Info(logCtx, "whatsapp instance health sweep complete")
	return errs
}
