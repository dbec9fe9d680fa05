package campaigns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

// Service defines the campaign management operations used by the API.
type Service interface {
	Create(ctx context.Context, input CreateCampaignInput) (*models.MarketingCampaign, error)
	Get(ctx context.Context, studioID, id uuid.UUID) (*models.MarketingCampaign, error)
	List(ctx context.Context, studioID uuid.UUID) ([]models.MarketingCampaign, error)
	Messages(ctx context.Context, studioID, campaignID uuid.UUID) ([]models.CampaignMessage, error)
	Queue(ctx context.Context, studioID, campaignID uuid.UUID) (*models.MarketingCampaign, error)
}

// DispatchPublisher hands a queued campaign off to the worker.
type DispatchPublisher interface {
	Publish(ctx context.Context, event DispatchEvent) error
}

type service struct {
	repo      Repository
	publisher DispatchPublisher
	logg      *logger.Logger
	nowFn     func() time.Time
}

// ServiceParams bundles the dependencies required to build a campaign service.
type ServiceParams struct {
	Repo      Repository
	Publisher DispatchPublisher
	Logger    *logger.Logger
}

// NewService wires a campaign service with its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("campaign repository required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("dispatch publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repo,
		publisher: params.Publisher,
		logg:      params.Logger,
		nowFn:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateCampaignInput) (*models.MarketingCampaign, error) {
	if input.StudioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if !input.Audience.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid campaign audience %q", input.Audience))
	}

	campaign := &models.MarketingCampaign{
		StudioID:        input.StudioID,
		Name:            name,
		Message:         message,
		Audience:        input.Audience,
		Status:          enums.CampaignStatusDraft,
		CreatedByUserID: input.CreatedBy,
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *service) Get(ctx context.Context, studioID, id uuid.UUID) (*models.MarketingCampaign, error) {
	campaign, err := s.repo.GetByID(ctx, studioID, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}
	return campaign, nil
}

func (s *service) List(ctx context.Context, studioID uuid.UUID) ([]models.MarketingCampaign, error) {
	if studioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	return s.repo.ListByStudio(ctx, studioID)
}

func (s *service) Messages(ctx context.Context, studioID, campaignID uuid.UUID) ([]models.CampaignMessage, error) {
	if _, err := s.Get(ctx, studioID, campaignID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, campaignID)
}

// Queue transitions a draft (or failed, for a retry) campaign to queued and
// publishes the dispatch event for the worker to pick up.
func (s *service) Queue(ctx context.Context, studioID, campaignID uuid.UUID) (*models.MarketingCampaign, error) {
	campaign, err := s.Get(ctx, studioID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != enums.CampaignStatusDraft && campaign.Status != enums.CampaignStatusFailed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("campaign is %s and cannot be queued", campaign.Status))
	}

	now := s.nowFn().UTC()
	previous := campaign.Status
	campaign.Status = enums.CampaignStatusQueued
	campaign.QueuedAt = &now
	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, err
	}

	event := DispatchEvent{CampaignID: campaign.ID, StudioID: campaign.StudioID}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Roll the status back so the client can retry the queue call.
		campaign.Status = previous
		campaign.QueuedAt = nil
		if revertErr := s.repo.Update(ctx, campaign); revertErr != nil {
			s.logg.Error(ctx, "campaigns: reverting queued status failed", revertErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish dispatch event")
	}
	return campaign, nil
}
