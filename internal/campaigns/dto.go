package campaigns

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// CreateCampaignInput is the new-campaign form payload. Message may contain a
// {{nome}} placeholder replaced with each recipient's name at dispatch time.
type CreateCampaignInput struct {
	StudioID  uuid.UUID
	CreatedBy uuid.UUID
	Name      string
	Message   string
	Audience  enums.CampaignAudience
}

// DispatchEvent is the queue payload handed to the campaign worker.
type DispatchEvent struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	StudioID   uuid.UUID `json:"studio_id"`
}

// Recipient is one resolved audience member.
type Recipient struct {
	ClientID uuid.UUID
	Name     string
	Phone    string
}

// CampaignDTO is the transport shape for a campaign.
type CampaignDTO struct {
	ID             uuid.UUID              `json:"id"`
	StudioID       uuid.UUID              `json:"studio_id"`
	Name           string                 `json:"name"`
	Message        string                 `json:"message"`
	Audience       enums.CampaignAudience `json:"audience"`
	Status         enums.CampaignStatus   `json:"status"`
	RecipientCount int                    `json:"recipient_count"`
	SentCount      int                    `json:"sent_count"`
	FailedCount    int                    `json:"failed_count"`
	QueuedAt       *time.Time             `json:"queued_at,omitempty"`
	StartedAt      *time.Time             `json:"started_at,omitempty"`
	FinishedAt     *time.Time             `json:"finished_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// FromModel converts a campaign model to the external DTO.
func FromModel(m *models.MarketingCampaign) *CampaignDTO {
	if m == nil {
		return nil
	}
	return &CampaignDTO{
		ID:             m.ID,
		StudioID:       m.StudioID,
		Name:           m.Name,
		Message:        m.Message,
		Audience:       m.Audience,
		Status:         m.Status,
		RecipientCount: m.RecipientCount,
		SentCount:      m.SentCount,
		FailedCount:    m.FailedCount,
		QueuedAt:       m.QueuedAt,
		StartedAt:      m.StartedAt,
		FinishedAt:     m.FinishedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromModels converts a listing.
func FromModels(items []models.MarketingCampaign) []CampaignDTO {
	dtos := make([]CampaignDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *FromModel(&items[i]))
	}
	return dtos
}

// MessageDTO is the transport shape for one per-recipient send log row.
type MessageDTO struct {
	ID               uuid.UUID  `json:"id"`
	CampaignID       uuid.UUID  `json:"campaign_id"`
	ClientID         uuid.UUID  `json:"client_id"`
	Phone            string     `json:"phone"`
	Sent             bool       `json:"sent"`
	GatewayMessageID *string    `json:"gateway_message_id,omitempty"`
	Error            *string    `json:"error,omitempty"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// MessagesFromModels converts a send log listing.
func MessagesFromModels(items []models.CampaignMessage) []MessageDTO {
	dtos := make([]MessageDTO, 0, len(items))
	for _, m := range items {
		dtos = append(dtos, MessageDTO{
			ID:               m.ID,
			CampaignID:       m.CampaignID,
			ClientID:         m.ClientID,
			Phone:            m.Phone,
			Sent:             m.Sent,
			GatewayMessageID: m.GatewayMessageID,
			Error:            m.Error,
			SentAt:           m.SentAt,
			CreatedAt:        m.CreatedAt,
		})
	}
	return dtos
}
