package anamnesis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type fakeRepository struct {
	records map[uuid.UUID]*models.AnamnesisRecord
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{records: map[uuid.UUID]*models.AnamnesisRecord{}}
}

func (f *fakeRepository) Create(ctx context.Context, record *models.AnamnesisRecord) error {
	record.CreatedAt = time.Now().UTC()
	stored := *record
	f.records[record.ID] = &stored
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.AnamnesisRecord, error) {
	record, ok := f.records[id]
	if !ok || record.StudioID != studioID {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeRepository) ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.AnamnesisRecord, error) {
	var out []models.AnamnesisRecord
	for _, record := range f.records {
		if record.StudioID == studioID && record.ClientID == clientID {
			out = append(out, *record)
		}
	}
	return out, nil
}

type fakeClients struct {
	clients map[uuid.UUID]*models.Client
}

func (f *fakeClients) GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Client, error) {
	client, ok := f.clients[id]
	if !ok || client.StudioID != studioID {
		return nil, nil
	}
	return client, nil
}

type uploadedObject struct {
	object      string
	contentType string
	payload     []byte
}

type fakeStore struct {
	uploads []uploadedObject
	signErr error
}

func (f *fakeStore) UploadObject(ctx context.Context, bucket, object, contentType string, payload io.Reader) error {
	data, err := io.ReadAll(payload)
	if err != nil {
		return err
	}
	f.uploads = append(f.uploads, uploadedObject{object: object, contentType: contentType, payload: data})
	return nil
}

func (f *fakeStore) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://storage.test/" + object + "?signed=1", nil
}

func newTestService(t *testing.T, repo Repository, clients clientDirectory, store ObjectStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Clients: clients,
		Store:   store,
		Logger:  logger.New(logger.Options{ServiceName: "anamnesis-test"}),
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func pngDataURL(payload string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func seedClient(studioID uuid.UUID) (*fakeClients, uuid.UUID) {
	clientID := uuid.New()
	return &fakeClients{clients: map[uuid.UUID]*models.Client{
		clientID: {ID: clientID, StudioID: studioID, Name: "Ana", Phone: "5511911111111"},
	}}, clientID
}

func TestCreateUploadsSignatureAndReturnsSignedURL(t *testing.T) {
	studioID := uuid.New()
	clients, clientID := seedClient(studioID)
	store := &fakeStore{}
	svc := newTestService(t, newFakeRepository(), clients, store)

	dto, err := svc.Create(context.Background(), CreateRecordInput{
		StudioID:         studioID,
		ClientID:         clientID,
		Answers:          json.RawMessage(`{"alergias":"nenhuma","gestante":false}`),
		SignatureDataURL: pngDataURL("signature-bytes"),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if len(store.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(store.uploads))
	}
	upload := store.uploads[0]
	if upload.contentType != "image/png" {
		t.Fatalf("unexpected content type %q", upload.contentType)
	}
	wantPrefix := fmt.Sprintf("anamnesis/%s/%s/", studioID, clientID)
	if !strings.HasPrefix(upload.object, wantPrefix) || !strings.HasSuffix(upload.object, ".png") {
		t.Fatalf("unexpected object key %q", upload.object)
	}
	if string(upload.payload) != "signature-bytes" {
		t.Fatal("uploaded payload must be the decoded signature")
	}

	if dto.SignedAt == nil {
		t.Fatal("expected signed_at to be set")
	}
	if !strings.Contains(dto.SignatureURL, "signed=1") {
		t.Fatalf("expected a signed read url, got %q", dto.SignatureURL)
	}
}

func TestCreateWithoutSignature(t *testing.T) {
	studioID := uuid.New()
	clients, clientID := seedClient(studioID)
	store := &fakeStore{}
	svc := newTestService(t, newFakeRepository(), clients, store)

	dto, err := svc.Create(context.Background(), CreateRecordInput{
		StudioID: studioID,
		ClientID: clientID,
		Answers:  json.RawMessage(`{"alergias":"latex"}`),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if dto.SignedAt != nil || dto.SignatureURL != "" {
		t.Fatalf("unsigned record must carry no signature data: %+v", dto)
	}
	if len(store.uploads) != 0 {
		t.Fatal("nothing should be uploaded without a signature")
	}
}

func TestCreateRejectsInvalidAnswers(t *testing.T) {
	studioID := uuid.New()
	clients, clientID := seedClient(studioID)
	svc := newTestService(t, newFakeRepository(), clients, &fakeStore{})

	_, err := svc.Create(context.Background(), CreateRecordInput{
		StudioID: studioID,
		ClientID: clientID,
		Answers:  json.RawMessage(`{"broken":`),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsUnknownClient(t *testing.T) {
	studioID := uuid.New()
	svc := newTestService(t, newFakeRepository(), &fakeClients{clients: map[uuid.UUID]*models.Client{}}, &fakeStore{})

	_, err := svc.Create(context.Background(), CreateRecordInput{
		StudioID: studioID,
		ClientID: uuid.New(),
		Answers:  json.RawMessage(`{}`),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRejectsMalformedDataURL(t *testing.T) {
	studioID := uuid.New()
	clients, clientID := seedClient(studioID)
	svc := newTestService(t, newFakeRepository(), clients, &fakeStore{})

	cases := []string{
		"not-a-data-url",
		"data:image/png;base64",
		"data:image/png;base64,%%%",
		"data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte("<script>")),
	}
	for _, dataURL := range cases {
		_, err := svc.Create(context.Background(), CreateRecordInput{
			StudioID:         studioID,
			ClientID:         clientID,
			Answers:          json.RawMessage(`{}`),
			SignatureDataURL: dataURL,
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("data url %q: expected validation error, got %v", dataURL, err)
		}
	}
}

func TestListByClientSignsEachRecord(t *testing.T) {
	studioID := uuid.New()
	clients, clientID := seedClient(studioID)
	repo := newFakeRepository()
	svc := newTestService(t, repo, clients, &fakeStore{})

	for i := 0; i < 2; i++ {
		if _, err := svc.Create(context.Background(), CreateRecordInput{
			StudioID:         studioID,
			ClientID:         clientID,
			Answers:          json.RawMessage(`{}`),
			SignatureDataURL: pngDataURL("sig"),
		}); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	records, err := svc.ListByClient(context.Background(), studioID, clientID)
	if err != nil {
		t.Fatalf("ListByClient error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, record := range records {
		if record.SignatureURL == "" {
			t.Fatal("every signed record must expose a signed url")
		}
	}
}

func TestGetDegradesWhenSigningFails(t *testing.T) {
	studioID := uuid.New()
	clients, clientID := seedClient(studioID)
	repo := newFakeRepository()
	store := &fakeStore{}
	svc := newTestService(t, repo, clients, store)

	created, err := svc.Create(context.Background(), CreateRecordInput{
		StudioID:         studioID,
		ClientID:         clientID,
		Answers:          json.RawMessage(`{}`),
		SignatureDataURL: pngDataURL("sig"),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	store.signErr = fmt.Errorf("no signing credentials")
	got, err := svc.Get(context.Background(), studioID, created.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.SignatureURL != "" {
		t.Fatal("signing failure must degrade to an empty url")
	}
}
