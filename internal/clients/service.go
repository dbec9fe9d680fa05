package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

// Service exposes client CRM operations.
type Service interface {
	Create(ctx context.Context, input CreateClientInput) (*models.Client, error)
	Update(ctx context.Context, studioID, id uuid.UUID, input UpdateClientInput) (*models.Client, error)
	Get(ctx context.Context, studioID, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context, studioID uuid.UUID, params ListParams) (ClientPage, error)
	ListByIDs(ctx context.Context, studioID uuid.UUID, ids []uuid.UUID) ([]models.Client, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires a client service with its dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// NormalizePhone strips everything but digits so numbers match the gateway's
// addressing format.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *service) Create(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	if input.StudioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	phone := NormalizePhone(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	existing, err := s.repo.FindByPhone(ctx, input.StudioID, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup client by phone")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a client with this phone already exists")
	}

	client := &models.Client{
		StudioID:  input.StudioID,
		Name:      name,
		Phone:     phone,
		Email:     input.Email,
		BirthDate: input.BirthDate,
		Instagram: input.Instagram,
		Notes:     input.Notes,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client")
	}
	return client, nil
}

func (s *service) Update(ctx context.Context, studioID, id uuid.UUID, input UpdateClientInput) (*models.Client, error) {
	if studioID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id and client id are required")
	}

	client, err := s.repo.GetByID(ctx, studioID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		client.Name = name
	}
	if input.Phone != nil {
		phone := NormalizePhone(*input.Phone)
		if phone == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone cannot be empty")
		}
		if phone != client.Phone {
			other, err := s.repo.FindByPhone(ctx, studioID, phone)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup client by phone")
			}
			if other != nil && other.ID != client.ID {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "a client with this phone already exists")
			}
		}
		client.Phone = phone
	}
	if input.Email != nil {
		client.Email = input.Email
	}
	if input.BirthDate != nil {
		client.BirthDate = input.BirthDate
	}
	if input.Instagram != nil {
		client.Instagram = input.Instagram
	}
	if input.Notes != nil {
		client.Notes = input.Notes
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update client")
	}
	return client, nil
}

func (s *service) Get(ctx context.Context, studioID, id uuid.UUID) (*models.Client, error) {
	if studioID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id and client id are required")
	}
	client, err := s.repo.GetByID(ctx, studioID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}
	return client, nil
}

func (s *service) List(ctx context.Context, studioID uuid.UUID, params ListParams) (ClientPage, error) {
	if studioID == uuid.Nil {
		return ClientPage{}, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	page, err := s.repo.List(ctx, studioID, params)
	if err != nil {
		return ClientPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	return page, nil
}

func (s *service) ListByIDs(ctx context.Context, studioID uuid.UUID, ids []uuid.UUID) ([]models.Client, error) {
	if studioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	return s.repo.ListByIDs(ctx, studioID, ids)
}
