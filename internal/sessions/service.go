package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/internal/loyalty"
	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LoyaltyLedger is the slice of the loyalty service sessions need to grant
// cashback on completion.
type LoyaltyLedger interface {
	GetSettings(ctx context.Context, studioID uuid.UUID) (*models.LoyaltySettings, error)
	CreateTransaction(ctx context.Context, input loyalty.CreateTransactionInput) (*models.LoyaltyTransaction, error)
}

// Service exposes session operations.
type Service interface {
	Create(ctx context.Context, input CreateSessionInput) (*models.Session, error)
	Update(ctx context.Context, studioID, id uuid.UUID, input UpdateSessionInput) (*models.Session, error)
	Get(ctx context.Context, studioID, id uuid.UUID) (*models.Session, error)
	List(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Session, error)
	ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.Session, error)
}

type service struct {
	repo    Repository
	tx      TxRunner
	ledger  LoyaltyLedger
	logg    *logger.Logger
	nowFn   func() time.Time
}

// NewService wires a session service with its dependencies.
func NewService(repo Repository, tx TxRunner, ledger LoyaltyLedger, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("loyalty ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		ledger: ledger,
		logg:   logg,
		nowFn:  time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	if input.StudioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if input.ProfessionalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "professional id is required")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	status := enums.NormalizeStatus(input.StatusLabel)
	if input.StatusLabel == "" {
		status = enums.AppointmentStatusPending
	}

	session := &models.Session{
		StudioID:       input.StudioID,
		ClientID:       input.ClientID,
		ProfessionalID: input.ProfessionalID,
		AppointmentID:  input.AppointmentID,
		Status:         status,
		BodyLocation:   input.BodyLocation,
		Size:           input.Size,
		ArtColor:       input.ArtColor,
		Price:          input.Price,
		Photos:         pq.StringArray(input.Photos),
		Notes:          input.Notes,
	}

	// Numbering and insert share one transaction so two concurrent sessions
	// for the same client cannot claim the same number.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextSessionNumber(ctx, input.StudioID, input.ClientID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "next session number")
		}
		session.SessionNumber = number
		return repo.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	if session.Status == enums.AppointmentStatusCompleted {
		s.grantCashback(ctx, session)
	}
	return session, nil
}

func (s *service) Update(ctx context.Context, studioID, id uuid.UUID, input UpdateSessionInput) (*models.Session, error) {
	if studioID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id and session id are required")
	}

	session, err := s.repo.GetByID(ctx, studioID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}

	wasCompleted := session.Status == enums.AppointmentStatusCompleted

	if input.StatusLabel != nil {
		session.Status = enums.NormalizeStatus(*input.StatusLabel)
	}
	if input.BodyLocation != nil {
		session.BodyLocation = input.BodyLocation
	}
	if input.Size != nil {
		session.Size = input.Size
	}
	if input.ArtColor != nil {
		session.ArtColor = input.ArtColor
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		session.Price = input.Price
	}
	if input.Photos != nil {
		session.Photos = pq.StringArray(*input.Photos)
	}
	if input.Notes != nil {
		session.Notes = input.Notes
	}

	completing := !wasCompleted && session.Status == enums.AppointmentStatusCompleted
	if completing && session.PerformedAt == nil {
		now := s.nowFn()
		session.PerformedAt = &now
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update session")
	}

	// Cashback is granted once, on the transition into completed.
	if completing {
		s.grantCashback(ctx, session)
	}
	return session, nil
}

func (s *service) Get(ctx context.Context, studioID, id uuid.UUID) (*models.Session, error) {
	if studioID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id and session id are required")
	}
	session, err := s.repo.GetByID(ctx, studioID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return session, nil
}

func (s *service) List(ctx context.Context, studioID uuid.UUID, filter ListFilter) ([]models.Session, error) {
	if studioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	return s.repo.ListByStudio(ctx, studioID, filter)
}

func (s *service) ListByClient(ctx context.Context, studioID, clientID uuid.UUID) ([]models.Session, error) {
	if studioID == uuid.Nil || clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id and client id are required")
	}
	return s.repo.ListByClient(ctx, studioID, clientID)
}

// grantCashback credits the loyalty ledger for a completed, priced session.
// Failures are logged, not surfaced: the session is already saved and a lost
// credit can be repaired with a manual adjustment.
func (s *service) grantCashback(ctx context.Context, session *models.Session) {
	if session.Price == nil || !session.Price.IsPositive() {
		return
	}

	settings, err := s.ledger.GetSettings(ctx, session.StudioID)
	if err != nil {
		s.logg.Error(ctx, "sessions: loading loyalty settings failed", err)
		return
	}
	if settings == nil || !settings.Enabled || !settings.CashbackPercent.IsPositive() {
		return
	}

	amount := session.Price.Mul(settings.CashbackPercent).Div(decimal.NewFromInt(100)).Round(2)
	if !amount.IsPositive() {
		return
	}

	var expiresAt *time.Time
	if settings.ExpiryDays > 0 {
		exp := s.nowFn().AddDate(0, 0, settings.ExpiryDays)
		expiresAt = &exp
	}

	_, err = s.ledger.CreateTransaction(ctx, loyalty.CreateTransactionInput{
		StudioID:      session.StudioID,
		ClientID:      session.ClientID,
		AppointmentID: session.AppointmentID,
		Type:          enums.LoyaltyTransactionTypeCredit,
		Amount:        amount,
		Description:   fmt.Sprintf("Cashback da sessão #%d", session.SessionNumber),
		ExpiresAt:     expiresAt,
	})
	if err != nil {
		s.logg.Error(ctx, "sessions: granting cashback failed", err)
	}
}
