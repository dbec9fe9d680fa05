package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type fakeStudioStore struct {
	studios []models.Studio
	updates map[uuid.UUID]enums.WhatsAppConnectionState
}

func (f *fakeStudioStore) ListWithWhatsAppInstance(ctx context.Context) ([]models.Studio, error) {
	return f.studios, nil
}

func (f *fakeStudioStore) UpdateWhatsAppStatus(ctx context.Context, id uuid.UUID, status enums.WhatsAppConnectionState) error {
	if f.updates == nil {
		f.updates = map[uuid.UUID]enums.WhatsAppConnectionState{}
	}
	f.updates[id] = status
	return nil
}

type fakeGateway struct {
	states map[string]enums.WhatsAppConnectionState
	errs   map[string]error
}

func (f *fakeGateway) ConnectionState(ctx context.Context, instance, token string) (enums.WhatsAppConnectionState, error) {
	if err, ok := f.errs[instance]; ok {
		return "", err
	}
	return f.states[instance], nil
}

func provisionedStudio(instance string, status *enums.WhatsAppConnectionState) models.Studio {
	token := "token-" + instance
	return models.Studio{
		ID:               uuid.New(),
		Name:             "Estúdio " + instance,
		WhatsAppInstance: &instance,
		WhatsAppToken:    &token,
		WhatsAppStatus:   status,
	}
}

func statePtr(s enums.WhatsAppConnectionState) *enums.WhatsAppConnectionState {
	return &s
}

func newHealthJob(t *testing.T, store *fakeStudioStore, gateway *fakeGateway) Job {
	t.Helper()
	job, err := NewWhatsAppHealthJob(WhatsAppHealthJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Studios: store,
		Gateway: gateway,
	})
	if err != nil {
		t.Fatalf("NewWhatsAppHealthJob: %v", err)
	}
	return job
}

func TestWhatsAppHealthJobPersistsOnlyChanges(t *testing.T) {
	changedStudio := provisionedStudio("studio_a", statePtr(enums.WhatsAppConnectionClosed))
	stableStudio := provisionedStudio("studio_b", statePtr(enums.WhatsAppConnectionOpen))
	store := &fakeStudioStore{studios: []models.Studio{changedStudio, stableStudio}}
	gateway := &fakeGateway{states: map[string]enums.WhatsAppConnectionState{
		"studio_a": enums.WhatsAppConnectionOpen,
		"studio_b": enums.WhatsAppConnectionOpen,
	}}

	job := newHealthJob(t, store, gateway)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.updates) != 1 {
		t.Fatalf("expected exactly one status write, got %d", len(store.updates))
	}
	if store.updates[changedStudio.ID] != enums.WhatsAppConnectionOpen {
		t.Fatalf("expected studio_a flipped to open, got %v", store.updates)
	}
}

func TestWhatsAppHealthJobContinuesPastGatewayErrors(t *testing.T) {
	broken := provisionedStudio("studio_broken", statePtr(enums.WhatsAppConnectionOpen))
	healthy := provisionedStudio("studio_ok", statePtr(enums.WhatsAppConnectionClosed))
	store := &fakeStudioStore{studios: []models.Studio{broken, healthy}}
	gateway := &fakeGateway{
		states: map[string]enums.WhatsAppConnectionState{"studio_ok": enums.WhatsAppConnectionOpen},
		errs:   map[string]error{"studio_broken": errors.New("gateway timeout")},
	}

	job := newHealthJob(t, store, gateway)
	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected the gateway error to surface")
	}

	if store.updates[healthy.ID] != enums.WhatsAppConnectionOpen {
		t.Fatal("healthy studio must still be updated after an earlier failure")
	}
}

func TestWhatsAppHealthJobHandlesFirstObservation(t *testing.T) {
	fresh := provisionedStudio("studio_new", nil)
	store := &fakeStudioStore{studios: []models.Studio{fresh}}
	gateway := &fakeGateway{states: map[string]enums.WhatsAppConnectionState{
		"studio_new": enums.WhatsAppConnectionConnecting,
	}}

	job := newHealthJob(t, store, gateway)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.updates[fresh.ID] != enums.WhatsAppConnectionConnecting {
		t.Fatal("a studio with no recorded status must get its first observation persisted")
	}
}
