package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/safetatt/safetatt-backend/pkg/logger"
)

const defaultMessageRetention = 90 * 24 * time.Hour

type campaignMessageStore interface {
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CampaignRetentionJobParams configure the campaign message purge.
type CampaignRetentionJobParams struct {
	Logger    *logger.Logger
	Messages  campaignMessageStore
	Retention time.Duration
}

// NewCampaignRetentionJob builds the job that purges old per-recipient send
// logs. Campaign aggregate counts are kept; only the row-level log expires.
func NewCampaignRetentionJob(params CampaignRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Messages == nil {
		return nil, fmt.Errorf("campaign message store required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultMessageRetention
	}
	return &campaignRetentionJob{
		logg:      params.Logger,
		messages:  params.Messages,
		retention: retention,
		now:       time.Now,
	}, nil
}

type campaignRetentionJob struct {
	logg      *logger.Logger
	messages  campaignMessageStore
	retention time.Duration
	now       func() time.Time
}

func (j *campaignRetentionJob) Name() string { return "campaign-retention" }

func (j *campaignRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.messages.DeleteMessagesBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("campaign retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "campaign message retention cleanup complete")
	return nil
}
