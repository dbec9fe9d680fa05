package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/internal/memberships"
	"github.com/safetatt/safetatt-backend/internal/profiles"
	"github.com/safetatt/safetatt-backend/internal/studios"
	"github.com/safetatt/safetatt-backend/pkg/config"
	"github.com/safetatt/safetatt-backend/pkg/db"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/security"
)

// RegisterRequest contains the payload required for onboarding a new studio.
type RegisterRequest struct {
	FullName   string  `json:"full_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=8"`
	Phone      *string `json:"phone,omitempty"`
	StudioName string  `json:"studio_name" validate:"required"`
	Timezone   string  `json:"timezone,omitempty"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if strings.TrimSpace(req.StudioName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "studio name is required")
	}
	if len(req.Password) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must have at least 8 characters")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	// Profile, studio and owner membership land in a single transaction: a
	// studio with no owner (or an orphaned profile) must never be observable.
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		profileRepo := profiles.NewRepository(tx)
		studioRepo := studios.NewRepository(tx)
		membershipRepo := memberships.NewRepository(tx)

		if _, err := profileRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check profile email")
		}

		profile, err := profileRepo.Create(ctx, profiles.CreateProfileDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     strings.TrimSpace(req.FullName),
			Phone:        req.Phone,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create profile")
		}

		studio, err := studioRepo.Create(ctx, studios.CreateStudioDTO{
			Name:     strings.TrimSpace(req.StudioName),
			Timezone: strings.TrimSpace(req.Timezone),
			OwnerID:  profile.ID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create studio")
		}

		if _, err := membershipRepo.CreateMembership(ctx, studio.ID, profile.ID, enums.MemberRoleOwner, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create membership")
		}
		return nil
	})
}
