package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/internal/memberships"
	pkgAuth "github.com/safetatt/safetatt-backend/pkg/auth"
	"github.com/safetatt/safetatt-backend/pkg/auth/session"
	"github.com/safetatt/safetatt-backend/pkg/config"
	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/security"
)

type fakeProfiles struct {
	profiles map[string]*models.Profile
}

func (f *fakeProfiles) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	profile, ok := f.profiles[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (f *fakeProfiles) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type fakeMemberships struct {
	studios map[uuid.UUID][]memberships.MembershipWithStudio
}

func (f *fakeMemberships) ListProfileStudios(ctx context.Context, profileID uuid.UUID) ([]memberships.MembershipWithStudio, error) {
	return f.studios[profileID], nil
}

func (f *fakeMemberships) GetMembershipWithStudio(ctx context.Context, profileID, studioID uuid.UUID) (*memberships.MembershipWithStudio, error) {
	for _, m := range f.studios[profileID] {
		if m.StudioID == studioID {
			return &m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSessions struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (f *fakeSessions) Generate(ctx context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	newID := session.NewAccessID()
	return newID, "refresh-" + newID, nil
}

func (f *fakeSessions) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-test-secret-test-secret",
		Issuer:                 "safetatt-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func testProfile(t *testing.T, email, password string) *models.Profile {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.Profile{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     "Dona do Estúdio",
		IsActive:     true,
	}
}

func newTestAuthService(t *testing.T, profilesRepo profileRepository, membershipsRepo membershipsRepository, sessions sessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		ProfilesRepo:    profilesRepo,
		MembershipsRepo: membershipsRepo,
		SessionManager:  sessions,
		JWTConfig:       testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestLoginIssuesTokensAndStudios(t *testing.T) {
	profile := testProfile(t, "dona@studio.com", "correct-horse")
	studioID := uuid.New()
	membershipsRepo := &fakeMemberships{studios: map[uuid.UUID][]memberships.MembershipWithStudio{
		profile.ID: {{
			MembershipID: uuid.New(),
			StudioID:     studioID,
			ProfileID:    profile.ID,
			StudioName:   "Estúdio Um",
			Role:         enums.MemberRoleOwner,
		}},
	}}
	svc := newTestAuthService(t, &fakeProfiles{profiles: map[string]*models.Profile{profile.Email: profile}}, membershipsRepo, &fakeSessions{})

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Dona@Studio.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}
	if len(resp.Studios) != 1 || resp.Studios[0].Name != "Estúdio Um" {
		t.Fatalf("unexpected studios: %+v", resp.Studios)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("minted token must parse: %v", err)
	}
	if claims.UserID != profile.ID {
		t.Fatal("claims must carry the profile id")
	}
	if claims.ActiveStudioID == nil || *claims.ActiveStudioID != studioID {
		t.Fatal("claims must carry the active studio")
	}
	if claims.Role != enums.MemberRoleOwner {
		t.Fatalf("expected owner role, got %s", claims.Role)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	profile := testProfile(t, "dona@studio.com", "correct-horse")
	svc := newTestAuthService(t, &fakeProfiles{profiles: map[string]*models.Profile{profile.Email: profile}}, &fakeMemberships{}, &fakeSessions{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "dona@studio.com", Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := newTestAuthService(t, &fakeProfiles{profiles: map[string]*models.Profile{}}, &fakeMemberships{}, &fakeSessions{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@studio.com", Password: "whatever"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsProfileWithoutStudios(t *testing.T) {
	profile := testProfile(t, "solta@studio.com", "correct-horse")
	svc := newTestAuthService(t, &fakeProfiles{profiles: map[string]*models.Profile{profile.Email: profile}}, &fakeMemberships{studios: map[uuid.UUID][]memberships.MembershipWithStudio{}}, &fakeSessions{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "solta@studio.com", Password: "correct-horse"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	cfg := testJWTConfig()
	accessID := session.NewAccessID()
	profileID := uuid.New()
	studioID := uuid.New()
	accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:         profileID,
		ActiveStudioID: &studioID,
		Role:           enums.MemberRoleOwner,
		JTI:            accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	svc := newTestAuthService(t, &fakeProfiles{}, &fakeMemberships{}, &fakeSessions{})
	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  accessToken,
		RefreshToken: "refresh-" + accessID,
	})
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("rotated token must parse: %v", err)
	}
	if claims.UserID != profileID {
		t.Fatal("rotated claims must keep the profile id")
	}
	if claims.ID == accessID {
		t.Fatal("rotated token must carry a fresh jti")
	}
}

func TestRefreshRejectsInvalidRefreshToken(t *testing.T) {
	cfg := testJWTConfig()
	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.MemberRoleOwner,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	svc := newTestAuthService(t, &fakeProfiles{}, &fakeMemberships{}, &fakeSessions{rotateErr: session.ErrInvalidRefreshToken})
	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: accessToken, RefreshToken: "stolen"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &fakeSessions{}
	svc := newTestAuthService(t, &fakeProfiles{}, &fakeMemberships{}, sessions)

	if err := svc.Logout(context.Background(), "access-id"); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-id" {
		t.Fatalf("expected revoked access id, got %v", sessions.revoked)
	}
}

func TestSwitchStudioRequiresMembership(t *testing.T) {
	profileID := uuid.New()
	svc := newTestAuthService(t, &fakeProfiles{}, &fakeMemberships{studios: map[uuid.UUID][]memberships.MembershipWithStudio{}}, &fakeSessions{})

	_, err := svc.SwitchStudio(context.Background(), SwitchStudioInput{
		ProfileID:     profileID,
		StudioID:      uuid.New(),
		AccessTokenID: "jti",
		RefreshToken:  "refresh",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSwitchStudioMintsStudioScopedToken(t *testing.T) {
	cfg := testJWTConfig()
	profileID := uuid.New()
	studioID := uuid.New()
	membershipsRepo := &fakeMemberships{studios: map[uuid.UUID][]memberships.MembershipWithStudio{
		profileID: {{
			MembershipID: uuid.New(),
			StudioID:     studioID,
			ProfileID:    profileID,
			StudioName:   "Estúdio Dois",
			Role:         enums.MemberRoleArtist,
		}},
	}}
	svc := newTestAuthService(t, &fakeProfiles{}, membershipsRepo, &fakeSessions{})

	result, err := svc.SwitchStudio(context.Background(), SwitchStudioInput{
		ProfileID:     profileID,
		StudioID:      studioID,
		AccessTokenID: "jti",
		RefreshToken:  "refresh",
	})
	if err != nil {
		t.Fatalf("SwitchStudio error: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, result.AccessToken)
	if err != nil {
		t.Fatalf("token must parse: %v", err)
	}
	if claims.ActiveStudioID == nil || *claims.ActiveStudioID != studioID {
		t.Fatal("token must carry the switched studio")
	}
	if claims.Role != enums.MemberRoleArtist {
		t.Fatalf("expected artist role, got %s", claims.Role)
	}
	if result.Studio.Name != "Estúdio Dois" {
		t.Fatalf("unexpected studio summary: %+v", result.Studio)
	}
}
