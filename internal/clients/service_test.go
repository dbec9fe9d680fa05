package clients

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type fakeRepository struct {
	clients []models.Client
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, client *models.Client) error {
	client.ID = uuid.New()
	f.clients = append(f.clients, *client)
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, client *models.Client) error {
	for i := range f.clients {
		if f.clients[i].ID == client.ID {
			f.clients[i] = *client
		}
	}
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Client, error) {
	for i := range f.clients {
		if f.clients[i].StudioID == studioID && f.clients[i].ID == id {
			found := f.clients[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) FindByPhone(ctx context.Context, studioID uuid.UUID, phone string) (*models.Client, error) {
	for i := range f.clients {
		if f.clients[i].StudioID == studioID && f.clients[i].Phone == phone {
			found := f.clients[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) List(ctx context.Context, studioID uuid.UUID, params ListParams) (ClientPage, error) {
	return ClientPage{Clients: f.clients}, nil
}

func (f *fakeRepository) ListAll(ctx context.Context, studioID uuid.UUID) ([]models.Client, error) {
	return f.clients, nil
}

func (f *fakeRepository) ListByIDs(ctx context.Context, studioID uuid.UUID, ids []uuid.UUID) ([]models.Client, error) {
	var matched []models.Client
	for _, client := range f.clients {
		for _, id := range ids {
			if client.StudioID == studioID && client.ID == id {
				matched = append(matched, client)
			}
		}
	}
	return matched, nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "clients-test"}))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+55 (11) 91234-5678": "5511912345678",
		"11 91234 5678":       "11912345678",
		"5511912345678":       "5511912345678",
		"abc":                 "",
	}
	for raw, want := range cases {
		if got := NormalizePhone(raw); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestCreateNormalizesPhone(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	client, err := svc.Create(context.Background(), CreateClientInput{
		StudioID: uuid.New(),
		Name:     "  Ana Souza  ",
		Phone:    "+55 (11) 91234-5678",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if client.Phone != "5511912345678" {
		t.Fatalf("expected digits-only phone, got %q", client.Phone)
	}
	if client.Name != "Ana Souza" {
		t.Fatalf("expected trimmed name, got %q", client.Name)
	}
}

func TestCreateRejectsDuplicatePhone(t *testing.T) {
	studioID := uuid.New()
	repo := &fakeRepository{clients: []models.Client{{
		ID:       uuid.New(),
		StudioID: studioID,
		Name:     "Ana",
		Phone:    "5511912345678",
	}}}
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateClientInput{
		StudioID: studioID,
		Name:     "Outra Ana",
		Phone:    "55 11 91234-5678",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{})

	tests := []struct {
		name  string
		input CreateClientInput
	}{
		{"missing studio", CreateClientInput{Name: "Ana", Phone: "11999999999"}},
		{"missing name", CreateClientInput{StudioID: uuid.New(), Phone: "11999999999"}},
		{"phone without digits", CreateClientInput{StudioID: uuid.New(), Name: "Ana", Phone: "n/a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdatePartialFields(t *testing.T) {
	studioID := uuid.New()
	email := "ana@example.com"
	existing := models.Client{
		ID:       uuid.New(),
		StudioID: studioID,
		Name:     "Ana",
		Phone:    "5511912345678",
		Email:    &email,
	}
	repo := &fakeRepository{clients: []models.Client{existing}}
	svc := newTestService(t, repo)

	notes := "prefere tarde"
	updated, err := svc.Update(context.Background(), studioID, existing.ID, UpdateClientInput{
		Notes: &notes,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Notes == nil || *updated.Notes != notes {
		t.Fatal("notes not applied")
	}
	if updated.Email == nil || *updated.Email != email {
		t.Fatal("untouched email must survive a partial update")
	}
}

func TestUpdateRejectsPhoneTakenByAnother(t *testing.T) {
	studioID := uuid.New()
	first := models.Client{ID: uuid.New(), StudioID: studioID, Name: "Ana", Phone: "111"}
	second := models.Client{ID: uuid.New(), StudioID: studioID, Name: "Bia", Phone: "222"}
	repo := &fakeRepository{clients: []models.Client{first, second}}
	svc := newTestService(t, repo)

	taken := "111"
	_, err := svc.Update(context.Background(), studioID, second.ID, UpdateClientInput{Phone: &taken})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRepository{})

	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
