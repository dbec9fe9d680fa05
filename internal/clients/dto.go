package clients

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/pagination"
)

// CreateClientInput is the new-client form payload.
type CreateClientInput struct {
	StudioID  uuid.UUID
	Name      string
	Phone     string
	Email     *string
	BirthDate *time.Time
	Instagram *string
	Notes     *string
}

// UpdateClientInput carries a partial client edit. Nil fields are left
// untouched.
type UpdateClientInput struct {
	Name      *string
	Phone     *string
	Email     *string
	BirthDate *time.Time
	Instagram *string
	Notes     *string
}

// ListParams narrows and pages a studio client listing. Search matches name
// and phone.
type ListParams struct {
	Search     string
	Pagination pagination.Params
}

// ClientPage is one cursor page of clients.
type ClientPage struct {
	Clients    []models.Client
	NextCursor string
}

// ClientDTO is the transport shape for a client record.
type ClientDTO struct {
	ID        uuid.UUID `json:"id"`
	StudioID  uuid.UUID `json:"studio_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email,omitempty"`
	BirthDate *string   `json:"birth_date,omitempty"`
	Instagram *string   `json:"instagram,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel converts a client model to the external DTO.
func FromModel(m *models.Client) *ClientDTO {
	if m == nil {
		return nil
	}
	dto := &ClientDTO{
		ID:        m.ID,
		StudioID:  m.StudioID,
		Name:      m.Name,
		Phone:     m.Phone,
		Email:     m.Email,
		Instagram: m.Instagram,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.BirthDate != nil {
		birth := m.BirthDate.Format("2006-01-02")
		dto.BirthDate = &birth
	}
	return dto
}

// FromModels converts a listing.
func FromModels(items []models.Client) []ClientDTO {
	dtos := make([]ClientDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *FromModel(&items[i]))
	}
	return dtos
}
