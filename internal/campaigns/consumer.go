package campaigns

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

type campaignDispatcher interface {
	Dispatch(ctx context.Context, event DispatchEvent) error
}

// Consumer pulls dispatch events off the campaign subscription and runs them.
type Consumer struct {
	dispatcher   campaignDispatcher
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds a campaign dispatch consumer.
func NewConsumer(dispatcher campaignDispatcher, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("campaign dispatcher required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("campaign subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		dispatcher:   dispatcher,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id":  msg.ID,
		"campaign_id": msg.Attributes["campaign_id"],
	})

	var event DispatchEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode dispatch event", err)
		return processResult{ack: true}
	}
	if event.CampaignID == uuid.Nil || event.StudioID == uuid.Nil {
		c.logg.Warn(logCtx, "dispatch event missing ids")
		return processResult{ack: true}
	}

	if err := c.dispatcher.Dispatch(ctx, event); err != nil {
		c.logg.Error(logCtx, "campaign dispatch failed", err)
		// A malformed or stale event never becomes processable; only retry
		// infrastructure failures.
		if typed := pkgerrors.As(err); typed != nil {
			switch typed.Code() {
			case pkgerrors.CodeNotFound, pkgerrors.CodeValidation:
				return processResult{ack: true}
			}
		}
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "campaign dispatched")
	return processResult{ack: true}
}
