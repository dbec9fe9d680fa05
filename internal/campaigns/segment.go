package campaigns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/internal/loyalty"
	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
)

const recentVisitWindow = 30 * 24 * time.Hour

type clientLister interface {
	ListAll(ctx context.Context, studioID uuid.UUID) ([]models.Client, error)
}

type loyaltyDirectory interface {
	GetClientsWithLoyalty(ctx context.Context, studioID uuid.UUID) ([]loyalty.ClientSummary, error)
}

// Segmenter resolves a campaign audience into concrete recipients at dispatch
// time, so a campaign queued yesterday targets today's client base.
type Segmenter struct {
	clients clientLister
	loyalty loyaltyDirectory
	nowFn   func() time.Time
}

// NewSegmenter wires audience resolution over the client and loyalty stores.
func NewSegmenter(clients clientLister, loyalty loyaltyDirectory) (*Segmenter, error) {
	if clients == nil {
		return nil, fmt.Errorf("client lister required")
	}
	if loyalty == nil {
		return nil, fmt.Errorf("loyalty directory required")
	}
	return &Segmenter{clients: clients, loyalty: loyalty, nowFn: time.Now}, nil
}

// Resolve returns the recipients for the given audience. Clients without a
// phone number are dropped: there is no way to deliver to them.
func (s *Segmenter) Resolve(ctx context.Context, studioID uuid.UUID, audience enums.CampaignAudience) ([]Recipient, error) {
	switch audience {
	case enums.CampaignAudienceAll:
		return s.allClients(ctx, studioID)
	case enums.CampaignAudienceWithBalance:
		return s.withBalance(ctx, studioID)
	case enums.CampaignAudienceRecent30d:
		return s.byVisitRecency(ctx, studioID, true)
	case enums.CampaignAudienceInactive30d:
		return s.byVisitRecency(ctx, studioID, false)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid campaign audience %q", audience))
	}
}

func (s *Segmenter) allClients(ctx context.Context, studioID uuid.UUID) ([]Recipient, error) {
	clients, err := s.clients.ListAll(ctx, studioID)
	if err != nil {
		return nil, err
	}
	recipients := make([]Recipient, 0, len(clients))
	for _, client := range clients {
		if strings.TrimSpace(client.Phone) == "" {
			continue
		}
		recipients = append(recipients, Recipient{
			ClientID: client.ID,
			Name:     client.Name,
			Phone:    client.Phone,
		})
	}
	return recipients, nil
}

func (s *Segmenter) withBalance(ctx context.Context, studioID uuid.UUID) ([]Recipient, error) {
	summaries, err := s.loyalty.GetClientsWithLoyalty(ctx, studioID)
	if err != nil {
		return nil, err
	}
	recipients := make([]Recipient, 0, len(summaries))
	for _, summary := range summaries {
		if !summary.Balance.IsPositive() {
			continue
		}
		if strings.TrimSpace(summary.Phone) == "" {
			continue
		}
		recipients = append(recipients, Recipient{
			ClientID: summary.ClientID,
			Name:     summary.Name,
			Phone:    summary.Phone,
		})
	}
	return recipients, nil
}

// byVisitRecency splits the client base on whether their last loyalty activity
// falls inside the 30-day window. Clients with no ledger history at all count
// as inactive.
func (s *Segmenter) byVisitRecency(ctx context.Context, studioID uuid.UUID, wantRecent bool) ([]Recipient, error) {
	clients, err := s.clients.ListAll(ctx, studioID)
	if err != nil {
		return nil, err
	}
	summaries, err := s.loyalty.GetClientsWithLoyalty(ctx, studioID)
	if err != nil {
		return nil, err
	}

	cutoff := s.nowFn().Add(-recentVisitWindow)
	lastVisits := make(map[uuid.UUID]time.Time, len(summaries))
	for _, summary := range summaries {
		if summary.LastVisit != nil {
			lastVisits[summary.ClientID] = *summary.LastVisit
		}
	}

	recipients := make([]Recipient, 0, len(clients))
	for _, client := range clients {
		if strings.TrimSpace(client.Phone) == "" {
			continue
		}
		lastVisit, visited := lastVisits[client.ID]
		recent := visited && lastVisit.After(cutoff)
		if recent != wantRecent {
			continue
		}
		recipients = append(recipients, Recipient{
			ClientID: client.ID,
			Name:     client.Name,
			Phone:    client.Phone,
		})
	}
	return recipients, nil
}
