package anamnesis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

const signatureURLTTL = 15 * time.Minute

var signatureExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// ObjectStore is the storage surface needed for signature images.
type ObjectStore interface {
	UploadObject(ctx context.Context, bucket, object, contentType string, payload io.Reader) error
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

type clientDirectory interface {
	GetByID(ctx context.Context, studioID, id uuid.UUID) (*models.Client, error)
}

// Service defines the consent record operations.
type Service interface {
	Create(ctx context.Context, input CreateRecordInput) (*RecordDTO, error)
	Get(ctx context.Context, studioID, id uuid.UUID) (*RecordDTO, error)
	ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]RecordDTO, error)
}

type service struct {
	repo    Repository
	clients clientDirectory
	store   ObjectStore
	logg    *logger.Logger
	nowFn   func() time.Time
}

// ServiceParams bundles the dependencies required to build a consent service.
type ServiceParams struct {
	Repo    Repository
	Clients clientDirectory
	Store   ObjectStore
	Logger  *logger.Logger
}

// NewService wires a consent record service with its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("anamnesis repository required")
	}
	if params.Clients == nil {
		return nil, fmt.Errorf("client directory required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		clients: params.Clients,
		store:   params.Store,
		logg:    params.Logger,
		nowFn:   time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateRecordInput) (*RecordDTO, error) {
	if input.StudioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if len(input.Answers) == 0 || !json.Valid(input.Answers) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "answers must be valid json")
	}

	client, err := s.clients.GetByID(ctx, input.StudioID, input.ClientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup client")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}

	record := &models.AnamnesisRecord{
		ID:            uuid.New(),
		StudioID:      input.StudioID,
		ClientID:      input.ClientID,
		AppointmentID: input.AppointmentID,
		Answers:       input.Answers,
	}

	if strings.TrimSpace(input.SignatureDataURL) != "" {
		key, err := s.uploadSignature(ctx, record, input.SignatureDataURL)
		if err != nil {
			return nil, err
		}
		signedAt := s.nowFn().UTC()
		record.SignatureKey = &key
		record.SignedAt = &signedAt
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	dto := toDTO(*record, s.signatureURL(ctx, record))
	return &dto, nil
}

func (s *service) Get(ctx context.Context, studioID, id uuid.UUID) (*RecordDTO, error) {
	record, err := s.repo.GetByID(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "consent record not found")
	}
	dto := toDTO(*record, s.signatureURL(ctx, record))
	return &dto, nil
}

func (s *service) ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]RecordDTO, error) {
	if studioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	records, err := s.repo.ListByClient(ctx, studioID, clientID)
	if err != nil {
		return nil, err
	}
	dtos := make([]RecordDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, toDTO(record, s.signatureURL(ctx, &record)))
	}
	return dtos, nil
}

// uploadSignature decodes the data URL and stores the image under a
// studio-scoped key. The raw key never leaves the service.
func (s *service) uploadSignature(ctx context.Context, record *models.AnamnesisRecord, dataURL string) (string, error) {
	contentType, payload, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	ext, ok := signatureExtensions[contentType]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported signature content type %q", contentType))
	}

	key := fmt.Sprintf("anamnesis/%s/%s/%s.%s", record.StudioID, record.ClientID, record.ID, ext)
	if err := s.store.UploadObject(ctx, "", key, contentType, bytes.NewReader(payload)); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload signature")
	}
	return key, nil
}

// signatureURL mints a short-lived read URL for the stored signature. A
// signing failure degrades to an empty URL rather than failing the fetch.
func (s *service) signatureURL(ctx context.Context, record *models.AnamnesisRecord) string {
	if record.SignatureKey == nil || *record.SignatureKey == "" {
		return ""
	}
	url, err := s.store.SignedReadURL("", *record.SignatureKey, signatureURLTTL)
	if err != nil {
		s.logg.Error(ctx, "anamnesis: signing signature url failed", err)
		return ""
	}
	return url
}

func decodeDataURL(dataURL string) (string, []byte, error) {
	const prefix = "data:"
	if !strings.HasPrefix(dataURL, prefix) {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "signature must be a data url")
	}
	meta, encoded, found := strings.Cut(dataURL[len(prefix):], ",")
	if !found {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "signature must be a data url")
	}
	contentType, encoding, ok := strings.Cut(meta, ";")
	contentType = strings.TrimSpace(contentType)
	if !ok || strings.TrimSpace(encoding) != "base64" || contentType == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "signature data url must be base64 encoded")
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "signature payload is not valid base64")
	}
	if len(payload) == 0 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "signature payload is empty")
	}
	return contentType, payload, nil
}
