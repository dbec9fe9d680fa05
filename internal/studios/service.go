package studios

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/internal/memberships"
	"github.com/safetatt/safetatt-backend/internal/profiles"
	"github.com/safetatt/safetatt-backend/pkg/config"
	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
	"github.com/safetatt/safetatt-backend/pkg/security"
	"github.com/safetatt/safetatt-backend/pkg/whatsapp"
)

type studioRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Studio, error)
	Update(ctx context.Context, studio *models.Studio) error
	UpdateWhatsAppStatus(ctx context.Context, id uuid.UUID, status enums.WhatsAppConnectionState) error
	UpdateWhatsAppInstance(ctx context.Context, id uuid.UUID, instance, token string) error
}

type membershipsRepository interface {
	ProfileHasRole(ctx context.Context, profileID, studioID uuid.UUID, roles ...enums.MemberRole) (bool, error)
	ListStudioMembers(ctx context.Context, studioID uuid.UUID) ([]memberships.StudioMemberDTO, error)
	ListArtists(ctx context.Context, studioID uuid.UUID) ([]memberships.StudioMemberDTO, error)
	GetMembership(ctx context.Context, profileID, studioID uuid.UUID) (*models.StudioMember, error)
	CreateMembership(ctx context.Context, studioID, profileID uuid.UUID, role enums.MemberRole, invitedBy *uuid.UUID) (*models.StudioMember, error)
	DeleteMembership(ctx context.Context, studioID, profileID uuid.UUID) error
	CountMembersWithRoles(ctx context.Context, studioID uuid.UUID, roles ...enums.MemberRole) (int64, error)
}

type profilesRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	Create(ctx context.Context, dto profiles.CreateProfileDTO) (*models.Profile, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Service exposes studio operations.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*StudioDTO, error)
	Update(ctx context.Context, profileID, studioID uuid.UUID, input UpdateStudioInput) (*StudioDTO, error)
	ListMembers(ctx context.Context, profileID, studioID uuid.UUID) ([]memberships.StudioMemberDTO, error)
	ListArtists(ctx context.Context, studioID uuid.UUID) ([]memberships.StudioMemberDTO, error)
	InviteMember(ctx context.Context, inviterID, studioID uuid.UUID, input InviteMemberInput) (*memberships.StudioMemberDTO, string, error)
	RemoveMember(ctx context.Context, actorID, studioID, targetProfileID uuid.UUID) error

	ProvisionWhatsApp(ctx context.Context, profileID, studioID uuid.UUID) (*whatsapp.ConnectResult, error)
	ConnectWhatsApp(ctx context.Context, profileID, studioID uuid.UUID) (*whatsapp.ConnectResult, error)
	WhatsAppStatus(ctx context.Context, studioID uuid.UUID) (enums.WhatsAppConnectionState, error)
}

type service struct {
	repo        studioRepository
	memberships membershipsRepository
	profiles    profilesRepository
	gateway     whatsapp.InstanceAPI
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// ServiceParams bundles the dependencies required to build a studio service.
type ServiceParams struct {
	Repo            studioRepository
	MembershipsRepo membershipsRepository
	ProfilesRepo    profilesRepository
	Gateway         whatsapp.InstanceAPI
	PasswordConfig  config.PasswordConfig
	Logger          *logger.Logger
}

// NewService builds a studio service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("studio repository required")
	}
	if params.MembershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if params.ProfilesRepo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("whatsapp gateway required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        params.Repo,
		memberships: params.MembershipsRepo,
		profiles:    params.ProfilesRepo,
		gateway:     params.Gateway,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

var managingRoles = []enums.MemberRole{enums.MemberRoleOwner, enums.MemberRoleAdmin}

func (s *service) requireManager(ctx context.Context, profileID, studioID uuid.UUID) error {
	ok, err := s.memberships.ProfileHasRole(ctx, profileID, studioID, managingRoles...)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient studio role")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StudioDTO, error) {
	studio, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "studio not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load studio")
	}
	return FromModel(studio), nil
}

func (s *service) Update(ctx context.Context, profileID, studioID uuid.UUID, input UpdateStudioInput) (*StudioDTO, error) {
	if err := s.requireManager(ctx, profileID, studioID); err != nil {
		return nil, err
	}

	studio, err := s.repo.FindByID(ctx, studioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "studio not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load studio")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		studio.Name = name
	}
	if input.Phone != nil {
		studio.Phone = input.Phone
	}
	if input.Email != nil {
		studio.Email = input.Email
	}
	if input.Address != nil {
		studio.Address = input.Address
	}
	if input.LogoURL != nil {
		studio.LogoURL = input.LogoURL
	}
	if input.Timezone != nil {
		tz := strings.TrimSpace(*input.Timezone)
		if tz == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "timezone cannot be empty")
		}
		studio.Timezone = tz
	}

	if err := s.repo.Update(ctx, studio); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update studio")
	}
	return FromModel(studio), nil
}

func (s *service) ListMembers(ctx context.Context, profileID, studioID uuid.UUID) ([]memberships.StudioMemberDTO, error) {
	if err := s.requireManager(ctx, profileID, studioID); err != nil {
		return nil, err
	}
	members, err := s.memberships.ListStudioMembers(ctx, studioID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list studio members")
	}
	return members, nil
}

func (s *service) ListArtists(ctx context.Context, studioID uuid.UUID) ([]memberships.StudioMemberDTO, error) {
	artists, err := s.memberships.ListArtists(ctx, studioID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artists")
	}
	return artists, nil
}

func (s *service) InviteMember(ctx context.Context, inviterID, studioID uuid.UUID, input InviteMemberInput) (*memberships.StudioMemberDTO, string, error) {
	if err := s.requireManager(ctx, inviterID, studioID); err != nil {
		return nil, "", err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if !input.Role.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if input.Role == enums.MemberRoleOwner {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "ownership is granted at registration, not by invite")
	}

	var profile *models.Profile
	var tempPassword string
	existing, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup profile")
		}
		profile, tempPassword, err = s.createProfile(ctx, email, input.FullName)
		if err != nil {
			return nil, "", err
		}
	} else {
		profile = existing
	}

	membership, err := s.memberships.GetMembership(ctx, profile.ID, studioID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if membership != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeConflict, "profile is already a studio member")
	}

	if _, err := s.memberships.CreateMembership(ctx, studioID, profile.ID, input.Role, &inviterID); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
	}

	member, err := s.fetchMember(ctx, studioID, profile.ID)
	if err != nil {
		return nil, "", err
	}
	return member, tempPassword, nil
}

func (s *service) RemoveMember(ctx context.Context, actorID, studioID, targetProfileID uuid.UUID) error {
	if err := s.requireManager(ctx, actorID, studioID); err != nil {
		return err
	}

	membership, err := s.memberships.GetMembership(ctx, targetProfileID, studioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}

	if membership.Role == enums.MemberRoleOwner {
		count, err := s.memberships.CountMembersWithRoles(ctx, studioID, enums.MemberRoleOwner)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count owners")
		}
		if count <= 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot remove last owner")
		}
	}

	if err := s.memberships.DeleteMembership(ctx, studioID, targetProfileID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete membership")
	}
	return nil
}

func (s *service) createProfile(ctx context.Context, email, fullName string) (*models.Profile, string, error) {
	if strings.TrimSpace(fullName) == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "full name is required for new members")
	}

	tempPassword, err := security.GenerateTempPassword(16)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	profile, err := s.profiles.Create(ctx, profiles.CreateProfileDTO{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}
	return profile, tempPassword, nil
}

func (s *service) fetchMember(ctx context.Context, studioID, profileID uuid.UUID) (*memberships.StudioMemberDTO, error) {
	members, err := s.memberships.ListStudioMembers(ctx, studioID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list studio members")
	}
	for _, member := range members {
		if member.ProfileID == profileID {
			return &member, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
}
