package campaigns

import (
	"context"
	"encoding/json"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/safetatt/safetatt-backend/pkg/pubsub"
)

// PubSubPublisher publishes dispatch events on the campaign topic.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPubSubPublisher wraps the shared Pub/Sub client for campaign dispatch.
func NewPubSubPublisher(client *pubsub.Client) (*PubSubPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client required")
	}
	return &PubSubPublisher{client: client}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, event DispatchEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling dispatch event: %w", err)
	}

	publisher := p.client.CampaignPublisher()
	if publisher == nil {
		return fmt.Errorf("campaign topic not configured")
	}

	result := publisher.Publish(ctx, &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"campaign_id": event.CampaignID.String(),
			"studio_id":   event.StudioID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing dispatch event: %w", err)
	}
	return nil
}
