package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/safetatt/safetatt-backend/pkg/auth"
	"github.com/safetatt/safetatt-backend/pkg/auth/session"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
)

// SwitchStudioInput captures the data required to switch the active studio.
type SwitchStudioInput struct {
	ProfileID     uuid.UUID
	StudioID      uuid.UUID
	AccessTokenID string
	RefreshToken  string
}

// SwitchStudioResult returns the tokens issued after switching studios.
type SwitchStudioResult struct {
	AccessToken  string
	RefreshToken string
	Studio       StudioSummary
}

func (s *service) SwitchStudio(ctx context.Context, input SwitchStudioInput) (*SwitchStudioResult, error) {
	membership, err := s.memberships.GetMembershipWithStudio(ctx, input.ProfileID, input.StudioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "studio membership required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup membership")
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, input.AccessTokenID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:         input.ProfileID,
		ActiveStudioID: &input.StudioID,
		Role:           membership.Role,
		JTI:            newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &SwitchStudioResult{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		Studio: StudioSummary{
			ID:   membership.StudioID,
			Name: membership.StudioName,
			Role: membership.Role,
		},
	}, nil
}
