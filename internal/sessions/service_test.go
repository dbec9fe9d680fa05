package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/internal/loyalty"
	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type fakeRepository struct {
	sessions []models.Session
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	f.sessions = append(f.sessions, *session)
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, session *models.Session) error {
	for i := range f.sessions {
		if f.sessions[i].ID == session.ID {
			f.sessions[i] = *session
		}
	}
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Session, error) {
	for i := range f.sessions {
		if f.sessions[i].StudioID == studioID && f.sessions[i].ID == id {
			found := f.sessions[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) ListByStudio(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Session, error) {
	return f.sessions, nil
}

func (f *fakeRepository) ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.Session, error) {
	return f.sessions, nil
}

func (f *fakeRepository) NextSessionNumber(ctx context.Context, studioID, clientID uuid.UUID) (int, error) {
	max := 0
	for _, session := range f.sessions {
		if session.StudioID == studioID && session.ClientID == clientID && session.SessionNumber > max {
			max = session.SessionNumber
		}
	}
	return max + 1, nil
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeLedger struct {
	settings     *models.LoyaltySettings
	settingsErr  error
	created      []loyalty.CreateTransactionInput
	createErr    error
}

func (f *fakeLedger) GetSettings(ctx context.Context, studioID uuid.UUID) (*models.LoyaltySettings, error) {
	return f.settings, f.settingsErr
}

func (f *fakeLedger) CreateTransaction(ctx context.Context, input loyalty.CreateTransactionInput) (*models.LoyaltyTransaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, input)
	return &models.LoyaltyTransaction{}, nil
}

func newTestService(t *testing.T, repo Repository, ledger LoyaltyLedger) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeTxRunner{}, ledger, logger.New(logger.Options{ServiceName: "sessions-test"}))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func enabledSettings(percent int64, expiryDays int) *models.LoyaltySettings {
	return &models.LoyaltySettings{
		StudioID:        uuid.New(),
		CashbackPercent: decimal.NewFromInt(percent),
		ExpiryDays:      expiryDays,
		Enabled:         true,
	}
}

func TestCreateAssignsSequentialSessionNumbers(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeLedger{})

	studioID := uuid.New()
	clientID := uuid.New()
	input := CreateSessionInput{
		StudioID:       studioID,
		ClientID:       clientID,
		ProfessionalID: uuid.New(),
	}

	first, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	second, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if first.SessionNumber != 1 || second.SessionNumber != 2 {
		t.Fatalf("expected session numbers 1 and 2, got %d and %d", first.SessionNumber, second.SessionNumber)
	}
}

func TestCompletionGrantsCashback(t *testing.T) {
	repo := &fakeRepository{}
	ledger := &fakeLedger{settings: enabledSettings(10, 90)}
	svc := newTestService(t, repo, ledger)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).nowFn = func() time.Time { return now }

	price := decimal.NewFromInt(300)
	session, err := svc.Create(context.Background(), CreateSessionInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
		Price:          &price,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	label := "Finalizado"
	if _, err := svc.Update(context.Background(), session.StudioID, session.ID, UpdateSessionInput{
		StatusLabel: &label,
	}); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if len(ledger.created) != 1 {
		t.Fatalf("expected exactly one credit, got %d", len(ledger.created))
	}
	credit := ledger.created[0]
	if credit.Type != enums.LoyaltyTransactionTypeCredit {
		t.Fatalf("expected CREDIT type, got %s", credit.Type)
	}
	if !credit.Amount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected 10%% of 300 = 30, got %s", credit.Amount)
	}
	if credit.ExpiresAt == nil || !credit.ExpiresAt.Equal(now.AddDate(0, 0, 90)) {
		t.Fatalf("expected expiry 90 days out, got %v", credit.ExpiresAt)
	}
}

func TestCompletionWithoutExpiryDaysNeverExpires(t *testing.T) {
	repo := &fakeRepository{}
	ledger := &fakeLedger{settings: enabledSettings(5, 0)}
	svc := newTestService(t, repo, ledger)

	price := decimal.NewFromInt(200)
	_, err := svc.Create(context.Background(), CreateSessionInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
		Price:          &price,
		StatusLabel:    "Finalizado",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if len(ledger.created) != 1 {
		t.Fatalf("expected one credit, got %d", len(ledger.created))
	}
	if ledger.created[0].ExpiresAt != nil {
		t.Fatal("expiry_days=0 must produce a never-expiring credit")
	}
}

func TestCompletionSkipsCashbackWhenDisabled(t *testing.T) {
	settings := enabledSettings(10, 0)
	settings.Enabled = false
	ledger := &fakeLedger{settings: settings}
	svc := newTestService(t, &fakeRepository{}, ledger)

	price := decimal.NewFromInt(300)
	_, err := svc.Create(context.Background(), CreateSessionInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
		Price:          &price,
		StatusLabel:    "Finalizado",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(ledger.created) != 0 {
		t.Fatal("disabled settings must not grant cashback")
	}
}

func TestCompletionSkipsCashbackWithoutSettings(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(t, &fakeRepository{}, ledger)

	price := decimal.NewFromInt(300)
	_, err := svc.Create(context.Background(), CreateSessionInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
		Price:          &price,
		StatusLabel:    "Finalizado",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(ledger.created) != 0 {
		t.Fatal("missing settings must not grant cashback")
	}
}

func TestAlreadyCompletedSessionDoesNotRecredit(t *testing.T) {
	repo := &fakeRepository{}
	ledger := &fakeLedger{settings: enabledSettings(10, 0)}
	svc := newTestService(t, repo, ledger)

	price := decimal.NewFromInt(100)
	session, err := svc.Create(context.Background(), CreateSessionInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
		Price:          &price,
		StatusLabel:    "Finalizado",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(ledger.created) != 1 {
		t.Fatalf("expected one credit after create, got %d", len(ledger.created))
	}

	// Editing notes on a completed session must not credit again.
	notes := "retoque agendado"
	if _, err := svc.Update(context.Background(), session.StudioID, session.ID, UpdateSessionInput{
		Notes: &notes,
	}); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if len(ledger.created) != 1 {
		t.Fatalf("expected still one credit, got %d", len(ledger.created))
	}
}

func TestCashbackFailureDoesNotFailCompletion(t *testing.T) {
	ledger := &fakeLedger{settings: enabledSettings(10, 0), createErr: errors.New("ledger down")}
	svc := newTestService(t, &fakeRepository{}, ledger)

	price := decimal.NewFromInt(100)
	session, err := svc.Create(context.Background(), CreateSessionInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
		Price:          &price,
		StatusLabel:    "Finalizado",
	})
	if err != nil {
		t.Fatalf("completion must survive a ledger failure, got %v", err)
	}
	if session.Status != enums.AppointmentStatusCompleted {
		t.Fatalf("expected completed status, got %s", session.Status)
	}
}

func TestCompletionSetsPerformedAt(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeLedger{})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).nowFn = func() time.Time { return now }

	session, err := svc.Create(context.Background(), CreateSessionInput{
		StudioID:       uuid.New(),
		ClientID:       uuid.New(),
		ProfessionalID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	label := "Concluído"
	updated, err := svc.Update(context.Background(), session.StudioID, session.ID, UpdateSessionInput{
		StatusLabel: &label,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.PerformedAt == nil || !updated.PerformedAt.Equal(now) {
		t.Fatalf("expected performed_at %v, got %v", now, updated.PerformedAt)
	}
}
