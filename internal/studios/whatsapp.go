package studios

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/whatsapp"
)

// ProvisionWhatsApp creates the studio's messaging instance at the gateway and
// stores its identity, then returns the pairing material.
func (s *service) ProvisionWhatsApp(ctx context.Context, profileID, studioID uuid.UUID) (*whatsapp.ConnectResult, error) {
	if err := s.requireManager(ctx, profileID, studioID); err != nil {
		return nil, err
	}

	studio, err := s.loadStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if studio.WhatsAppInstance != nil && *studio.WhatsAppInstance != "" {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "studio already has a messaging instance")
	}

	instanceName := fmt.Sprintf("studio_%s", strings.ReplaceAll(studioID.String(), "-", ""))
	token := uuid.NewString()

	created, err := s.gateway.CreateInstance(ctx, whatsapp.CreateInstanceParams{
		InstanceName: instanceName,
		Token:        token,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWhatsAppInstance(ctx, studioID, created.InstanceName, created.Token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store whatsapp instance")
	}
	if err := s.repo.UpdateWhatsAppStatus(ctx, studioID, enums.WhatsAppConnectionConnecting); err != nil {
		s.logg.Warn(ctx, "studios: persisting initial whatsapp status failed")
	}

	return s.gateway.Connect(ctx, created.InstanceName, created.Token)
}

// ConnectWhatsApp re-fetches the QR/pairing code for an existing instance.
func (s *service) ConnectWhatsApp(ctx context.Context, profileID, studioID uuid.UUID) (*whatsapp.ConnectResult, error) {
	if err := s.requireManager(ctx, profileID, studioID); err != nil {
		return nil, err
	}

	studio, err := s.loadStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}
	instance, token, err := instanceCredentials(studio)
	if err != nil {
		return nil, err
	}
	return s.gateway.Connect(ctx, instance, token)
}

// WhatsAppStatus polls the gateway and persists the state when it changed.
func (s *service) WhatsAppStatus(ctx context.Context, studioID uuid.UUID) (enums.WhatsAppConnectionState, error) {
	studio, err := s.loadStudio(ctx, studioID)
	if err != nil {
		return "", err
	}
	instance, token, err := instanceCredentials(studio)
	if err != nil {
		return "", err
	}

	state, err := s.gateway.ConnectionState(ctx, instance, token)
	if err != nil {
		return "", err
	}

	if studio.WhatsAppStatus == nil || *studio.WhatsAppStatus != state {
		if err := s.repo.UpdateWhatsAppStatus(ctx, studioID, state); err != nil {
			s.logg.Warn(ctx, "studios: persisting whatsapp status failed")
		}
	}
	return state, nil
}

func (s *service) loadStudio(ctx context.Context, studioID uuid.UUID) (*models.Studio, error) {
	studio, err := s.repo.FindByID(ctx, studioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "studio not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load studio")
	}
	return studio, nil
}

func instanceCredentials(studio *models.Studio) (string, string, error) {
	if studio.WhatsAppInstance == nil || *studio.WhatsAppInstance == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "studio has no messaging instance provisioned")
	}
	token := ""
	if studio.WhatsAppToken != nil {
		token = *studio.WhatsAppToken
	}
	return *studio.WhatsAppInstance, token, nil
}
