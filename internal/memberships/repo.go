package memberships

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// Repository exposes membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type membershipWithStudioRow struct {
	models.StudioMember
	StudioName string
}

type studioMemberRow struct {
	models.StudioMember
	Email       string
	FullName    string
	LastLoginAt *time.Time
}

// ListProfileStudios returns the studios a profile belongs to along with
// membership metadata.
func (r *Repository) ListProfileStudios(ctx context.Context, profileID uuid.UUID) ([]MembershipWithStudio, error) {
	var rows []membershipWithStudioRow
	err := r.db.WithContext(ctx).
		Model(&models.StudioMember{}).
		Select("studio_members.*, studios.name AS studio_name").
		Joins("JOIN studios ON studios.id = studio_members.studio_id").
		Where("studio_members.profile_id = ?", profileID).
		Order("studios.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]MembershipWithStudio, 0, len(rows))
	for _, row := range rows {
		result = append(result, MembershipWithStudio{
			MembershipID: row.ID,
			StudioID:     row.StudioID,
			ProfileID:    row.ProfileID,
			StudioName:   row.StudioName,
			Role:         row.Role,
			CreatedAt:    row.CreatedAt,
		})
	}
	return result, nil
}

// GetMembership retrieves a membership by profile and studio.
func (r *Repository) GetMembership(ctx context.Context, profileID, studioID uuid.UUID) (*models.StudioMember, error) {
	var membership models.StudioMember
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND studio_id = ?", profileID, studioID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// GetMembershipWithStudio returns membership details joined with studio metadata.
func (r *Repository) GetMembershipWithStudio(ctx context.Context, profileID, studioID uuid.UUID) (*MembershipWithStudio, error) {
	var row membershipWithStudioRow
	err := r.db.WithContext(ctx).
		Model(&models.StudioMember{}).
		Select("studio_members.*, studios.name AS studio_name").
		Joins("JOIN studios ON studios.id = studio_members.studio_id").
		Where("studio_members.profile_id = ? AND studio_members.studio_id = ?", profileID, studioID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &MembershipWithStudio{
		MembershipID: row.ID,
		StudioID:     row.StudioID,
		ProfileID:    row.ProfileID,
		StudioName:   row.StudioName,
		Role:         row.Role,
		CreatedAt:    row.CreatedAt,
	}, nil
}

// CreateMembership persists a new membership record.
func (r *Repository) CreateMembership(ctx context.Context, studioID, profileID uuid.UUID, role enums.MemberRole, invitedBy *uuid.UUID) (*models.StudioMember, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid member role %q", role)
	}

	membership := &models.StudioMember{
		StudioID:        studioID,
		ProfileID:       profileID,
		Role:            role,
		InvitedByUserID: invitedBy,
	}
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// DeleteMembership removes the profile's membership in the studio.
func (r *Repository) DeleteMembership(ctx context.Context, studioID, profileID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("studio_id = ? AND profile_id = ?", studioID, profileID).
		Delete(&models.StudioMember{}).
		Error
}

// ProfileHasRole reports whether the profile holds one of the provided roles
// in the studio.
func (r *Repository) ProfileHasRole(ctx context.Context, profileID, studioID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StudioMember{}).
		Where("profile_id = ? AND studio_id = ? AND role IN ?", profileID, studioID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountMembersWithRoles counts studio members holding any of the given roles.
func (r *Repository) CountMembersWithRoles(ctx context.Context, studioID uuid.UUID, roles ...enums.MemberRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StudioMember{}).
		Where("studio_id = ? AND role IN ?", studioID, roles).
		Count(&count).Error
	return count, err
}

// ListStudioMembers returns memberships for the studio along with profile
// metadata.
func (r *Repository) ListStudioMembers(ctx context.Context, studioID uuid.UUID) ([]StudioMemberDTO, error) {
	var rows []studioMemberRow
	err := r.db.WithContext(ctx).
		Model(&models.StudioMember{}).
		Select("studio_members.*, profiles.email, profiles.full_name, profiles.last_login_at").
		Joins("JOIN profiles ON profiles.id = studio_members.profile_id").
		Where("studio_members.studio_id = ?", studioID).
		Order("studio_members.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]StudioMemberDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, StudioMemberDTO{
			MembershipID: row.ID,
			StudioID:     row.StudioID,
			ProfileID:    row.ProfileID,
			Email:        row.Email,
			FullName:     row.FullName,
			Role:         row.Role,
			CreatedAt:    row.CreatedAt,
			LastLoginAt:  row.LastLoginAt,
		})
	}
	return result, nil
}

// ListArtists returns studio members who can be booked as professionals.
func (r *Repository) ListArtists(ctx context.Context, studioID uuid.UUID) ([]StudioMemberDTO, error) {
	members, err := r.ListStudioMembers(ctx, studioID)
	if err != nil {
		return nil, err
	}
	artists := make([]StudioMemberDTO, 0, len(members))
	for _, member := range members {
		if member.Role == enums.MemberRoleArtist || member.Role == enums.MemberRoleOwner || member.Role == enums.MemberRoleAdmin {
			artists = append(artists, member)
		}
	}
	return artists, nil
}
