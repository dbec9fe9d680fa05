package campaigns

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/safetatt/safetatt-backend/pkg/config"
	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
	"github.com/safetatt/safetatt-backend/pkg/whatsapp"
)

const namePlaceholder = "{{nome}}"

type studioDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Studio, error)
}

type audienceResolver interface {
	Resolve(ctx context.Context, studioID uuid.UUID, audience enums.CampaignAudience) ([]Recipient, error)
}

// Dispatcher runs one queued campaign end to end: resolve the audience, send
// each message through the WhatsApp gateway with a randomized pause between
// sends, and record the outcome per recipient.
type Dispatcher struct {
	repo     Repository
	studios  studioDirectory
	segments audienceResolver
	sender   whatsapp.Sender
	cfg      config.CampaignConfig
	logg     *logger.Logger
	nowFn    func() time.Time
	delayFn  func() time.Duration
	sleepFn  func(d time.Duration)
}

// DispatcherParams bundles the dependencies required to build a dispatcher.
type DispatcherParams struct {
	Repo     Repository
	Studios  studioDirectory
	Segments audienceResolver
	Sender   whatsapp.Sender
	Config   config.CampaignConfig
	Logger   *logger.Logger
}

// NewDispatcher wires a campaign dispatcher with its dependencies.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("campaign repository required")
	}
	if params.Studios == nil {
		return nil, fmt.Errorf("studio directory required")
	}
	if params.Segments == nil {
		return nil, fmt.Errorf("audience resolver required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("whatsapp sender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	d := &Dispatcher{
		repo:     params.Repo,
		studios:  params.Studios,
		segments: params.Segments,
		sender:   params.Sender,
		cfg:      params.Config,
		logg:     params.Logger,
		nowFn:    time.Now,
		sleepFn:  time.Sleep,
	}
	d.delayFn = d.randomDelay
	return d, nil
}

// randomDelay picks a pause between consecutive sends. Spacing the messages
// out keeps the studio's number from tripping the gateway's bulk-send
// heuristics.
func (d *Dispatcher) randomDelay() time.Duration {
	min, max := d.cfg.MinSendDelay, d.cfg.MaxSendDelay
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}

// Dispatch processes a single dispatch event. Per-recipient send failures are
// recorded on the campaign, not returned; the returned error signals the event
// could not be processed at all.
func (d *Dispatcher) Dispatch(ctx context.Context, event DispatchEvent) error {
	campaign, err := d.repo.GetByID(ctx, event.StudioID, event.CampaignID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load campaign")
	}
	if campaign == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}
	if campaign.Status != enums.CampaignStatusQueued {
		// Redelivered event for a campaign that already ran.
		d.logg.Warn(ctx, fmt.Sprintf("campaigns: skipping dispatch, campaign is %s", campaign.Status))
		return nil
	}

	studio, err := d.studios.FindByID(ctx, campaign.StudioID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load studio")
	}
	if studio.WhatsAppInstance == nil || *studio.WhatsAppInstance == "" || studio.WhatsAppToken == nil {
		return d.finishFailed(ctx, campaign, "studio has no whatsapp instance")
	}
	instance, token := *studio.WhatsAppInstance, *studio.WhatsAppToken

	recipients, err := d.segments.Resolve(ctx, campaign.StudioID, campaign.Audience)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve audience")
	}

	now := d.nowFn().UTC()
	campaign.Status = enums.CampaignStatusSending
	campaign.StartedAt = &now
	campaign.RecipientCount = len(recipients)
	if err := d.repo.Update(ctx, campaign); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark campaign sending")
	}

	// A run in flight finishes even if the worker is told to shut down; a
	// half-sent campaign with no final status is worse than a late one.
	sendCtx := context.WithoutCancel(ctx)

	var sendErrs error
	sent, failed := 0, 0
	for i, recipient := range recipients {
		if i > 0 {
			d.sleepFn(d.delayFn())
		}
		if err := d.sendOne(sendCtx, campaign, instance, token, recipient); err != nil {
			failed++
			sendErrs = multierr.Append(sendErrs, fmt.Errorf("client %s: %w", recipient.ClientID, err))
			continue
		}
		sent++
	}
	if sendErrs != nil {
		d.logg.Error(sendCtx, "campaigns: some sends failed", sendErrs)
	}

	finished := d.nowFn().UTC()
	campaign.SentCount = sent
	campaign.FailedCount = failed
	campaign.FinishedAt = &finished
	if len(recipients) > 0 && sent == 0 {
		campaign.Status = enums.CampaignStatusFailed
	} else {
		campaign.Status = enums.CampaignStatusCompleted
	}
	if err := d.repo.Update(sendCtx, campaign); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finish campaign")
	}
	return nil
}

func (d *Dispatcher) sendOne(ctx context.Context, campaign *models.MarketingCampaign, instance, token string, recipient Recipient) error {
	text := strings.ReplaceAll(campaign.Message, namePlaceholder, recipient.Name)

	record := &models.CampaignMessage{
		CampaignID: campaign.ID,
		ClientID:   recipient.ClientID,
		Phone:      recipient.Phone,
	}

	result, err := d.sender.SendText(ctx, instance, token, whatsapp.SendTextParams{
		Number:   recipient.Phone,
		Text:     text,
		Presence: "composing",
	})
	if err != nil {
		msg := err.Error()
		record.Error = &msg
		if createErr := d.repo.CreateMessage(ctx, record); createErr != nil {
			d.logg.Error(ctx, "campaigns: recording failed send", createErr)
		}
		return err
	}

	sentAt := d.nowFn().UTC()
	record.Sent = true
	record.SentAt = &sentAt
	if result.MessageID != "" {
		id := result.MessageID
		record.GatewayMessageID = &id
	}
	if createErr := d.repo.CreateMessage(ctx, record); createErr != nil {
		d.logg.Error(ctx, "campaigns: recording sent message", createErr)
	}
	return nil
}

func (d *Dispatcher) finishFailed(ctx context.Context, campaign *models.MarketingCampaign, reason string) error {
	d.logg.Warn(ctx, fmt.Sprintf("campaigns: %s", reason))
	now := d.nowFn().UTC()
	campaign.Status = enums.CampaignStatusFailed
	campaign.FinishedAt = &now
	if err := d.repo.Update(ctx, campaign); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark campaign failed")
	}
	return nil
}
