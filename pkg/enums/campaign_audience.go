package enums

import "fmt"

// CampaignAudience selects which clients a marketing campaign targets.
type CampaignAudience string

const (
	CampaignAudienceAll         CampaignAudience = "all"
	CampaignAudienceWithBalance CampaignAudience = "with_balance"
	CampaignAudienceInactive30d CampaignAudience = "inactive_30d"
	CampaignAudienceRecent30d   CampaignAudience = "recent_30d"
)

var validCampaignAudiences = []CampaignAudience{
	CampaignAudienceAll,
	CampaignAudienceWithBalance,
	CampaignAudienceInactive30d,
	CampaignAudienceRecent30d,
}

// IsValid reports whether the value matches the canonical audience enum.
func (a CampaignAudience) IsValid() bool {
	for _, candidate := range validCampaignAudiences {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseCampaignAudience converts raw input into CampaignAudience.
func ParseCampaignAudience(value string) (CampaignAudience, error) {
	for _, candidate := range validCampaignAudiences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campaign audience %q", value)
}
