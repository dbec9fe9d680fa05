package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// StudioMember links a profile to a studio with a role.
type StudioMember struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StudioID        uuid.UUID        `gorm:"column:studio_id;type:uuid;not null;uniqueIndex:idx_studio_member"`
	ProfileID       uuid.UUID        `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:idx_studio_member"`
	Role            enums.MemberRole `gorm:"column:role;type:member_role_enum;not null"`
	InvitedByUserID *uuid.UUID       `gorm:"column:invited_by;type:uuid"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (StudioMember) TableName() string {
	return "studio_members"
}
