package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

const expiringSoonWindow = 30 * 24 * time.Hour

// ClientDirectory resolves client records for loyalty aggregates.
type ClientDirectory interface {
	ListByIDs(ctx context.Context, studioID uuid.UUID, ids []uuid.UUID) ([]models.Client, error)
}

// Service defines the cashback ledger operations.
type Service interface {
	// GetClientBalance never fails: a fetch error is logged and reported as a
	// zero balance so checkout flows degrade instead of breaking.
	GetClientBalance(ctx context.Context, studioID, clientID uuid.UUID) Balance
	ListClientTransactions(ctx context.Context, studioID, clientID uuid.UUID) ([]models.LoyaltyTransaction, error)
	CreateTransaction(ctx context.Context, input CreateTransactionInput) (*models.LoyaltyTransaction, error)
	GetDashboardMetrics(ctx context.Context, studioID uuid.UUID) (*DashboardMetrics, error)
	GetClientsWithLoyalty(ctx context.Context, studioID uuid.UUID) ([]ClientSummary, error)
	GetSettings(ctx context.Context, studioID uuid.UUID) (*models.LoyaltySettings, error)
	UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*models.LoyaltySettings, error)
}

type service struct {
	repo    Repository
	clients ClientDirectory
	logg    *logger.Logger
	nowFn   func() time.Time
}

// NewService wires a loyalty service with its dependencies.
func NewService(repo Repository, clients ClientDirectory, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if clients == nil {
		return nil, fmt.Errorf("client directory required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		clients: clients,
		logg:    logg,
		nowFn:   time.Now,
	}, nil
}

func (s *service) GetClientBalance(ctx context.Context, studioID, clientID uuid.UUID) Balance {
	empty := Balance{Balance: decimal.Zero}
	if studioID == uuid.Nil || clientID == uuid.Nil {
		return empty
	}

	txs, err := s.repo.ListByClient(ctx, studioID, clientID)
	if err != nil {
		s.logg.Error(ctx, "loyalty: fetching client transactions failed", err)
		return empty
	}

	now := s.nowFn()
	raw, nextExpiration := foldBalance(txs, now)
	balance := raw
	if balance.IsNegative() {
		s.logg.Debug(ctx, fmt.Sprintf("loyalty: client %s ledger sums to %s, flooring balance to zero", clientID, raw))
		balance = decimal.Zero
	}
	return Balance{Balance: balance, NextExpiration: nextExpiration}
}

func (s *service) ListClientTransactions(ctx context.Context, studioID, clientID uuid.UUID) ([]models.LoyaltyTransaction, error) {
	if studioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	return s.repo.ListByClient(ctx, studioID, clientID)
}

func (s *service) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*models.LoyaltyTransaction, error) {
	if input.StudioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.ExpiresAt != nil && !input.Type.IsEarning() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiration is only allowed on credit entries")
	}

	// Debits are accepted even when they exceed the current balance; the
	// balance fold floors at zero so over-redemption is absorbed, not rejected.
	tx := &models.LoyaltyTransaction{
		StudioID:      input.StudioID,
		ClientID:      input.ClientID,
		AppointmentID: input.AppointmentID,
		Type:          input.Type,
		Amount:        input.Amount,
		Description:   input.Description,
		ExpiresAt:     input.ExpiresAt,
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *service) GetDashboardMetrics(ctx context.Context, studioID uuid.UUID) (*DashboardMetrics, error) {
	if studioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}

	txs, err := s.repo.ListByStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	expiryCutoff := now.Add(expiringSoonWindow)

	liability := decimal.Zero
	redeemedMonth := decimal.Zero
	expiringSoon := decimal.Zero

	for _, tx := range txs {
		switch {
		case tx.Type == enums.LoyaltyTransactionTypeDebit:
			liability = liability.Sub(tx.Amount)
			if !tx.CreatedAt.Before(monthStart) {
				redeemedMonth = redeemedMonth.Add(tx.Amount)
			}
		case tx.Type.IsEarning():
			if !creditExpired(tx, now) {
				liability = liability.Add(tx.Amount)
			}
			if tx.Type == enums.LoyaltyTransactionTypeCredit && tx.ExpiresAt != nil &&
				tx.ExpiresAt.After(now) && !tx.ExpiresAt.After(expiryCutoff) {
				expiringSoon = expiringSoon.Add(tx.Amount)
			}
		}
	}

	if liability.IsNegative() {
		s.logg.Debug(ctx, fmt.Sprintf("loyalty: studio %s liability sums to %s, flooring to zero", studioID, liability))
		liability = decimal.Zero
	}

	return &DashboardMetrics{
		TotalLiability: liability,
		RedeemedMonth:  redeemedMonth,
		ExpiringSoon:   expiringSoon,
	}, nil
}

func (s *service) GetClientsWithLoyalty(ctx context.Context, studioID uuid.UUID) ([]ClientSummary, error) {
	if studioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}

	txs, err := s.repo.ListByStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return []ClientSummary{}, nil
	}

	now := s.nowFn()
	type fold struct {
		raw         decimal.Decimal
		accumulated decimal.Decimal
		lastVisit   time.Time
		nextExpiry  *time.Time
	}
	folds := map[uuid.UUID]*fold{}
	order := []uuid.UUID{}

	for _, tx := range txs {
		f, ok := folds[tx.ClientID]
		if !ok {
			f = &fold{raw: decimal.Zero, accumulated: decimal.Zero}
			folds[tx.ClientID] = f
			order = append(order, tx.ClientID)
		}

		switch {
		case tx.Type == enums.LoyaltyTransactionTypeDebit:
			f.raw = f.raw.Sub(tx.Amount)
		case tx.Type.IsEarning():
			if !creditExpired(tx, now) {
				f.raw = f.raw.Add(tx.Amount)
			}
			// Lifetime gross earnings deliberately ignore expiration.
			f.accumulated = f.accumulated.Add(tx.Amount)
			if tx.Type == enums.LoyaltyTransactionTypeCredit && tx.ExpiresAt != nil && tx.ExpiresAt.After(now) {
				if f.nextExpiry == nil || tx.ExpiresAt.Before(*f.nextExpiry) {
					expiry := *tx.ExpiresAt
					f.nextExpiry = &expiry
				}
			}
		}
		if tx.CreatedAt.After(f.lastVisit) {
			f.lastVisit = tx.CreatedAt
		}
	}

	clients, err := s.clients.ListByIDs(ctx, studioID, order)
	if err != nil {
		return nil, err
	}
	clientsByID := make(map[uuid.UUID]models.Client, len(clients))
	for _, client := range clients {
		clientsByID[client.ID] = client
	}

	summaries := make([]ClientSummary, 0, len(order))
	for _, clientID := range order {
		f := folds[clientID]
		balance := f.raw
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		summary := ClientSummary{
			ClientID:         clientID,
			Balance:          balance,
			TotalAccumulated: f.accumulated,
			NextExpiration:   f.nextExpiry,
		}
		if !f.lastVisit.IsZero() {
			lastVisit := f.lastVisit
			summary.LastVisit = &lastVisit
		}
		if client, ok := clientsByID[clientID]; ok {
			summary.Name = client.Name
			summary.Phone = client.Phone
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *service) GetSettings(ctx context.Context, studioID uuid.UUID) (*models.LoyaltySettings, error) {
	if studioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	return s.repo.GetSettings(ctx, studioID)
}

func (s *service) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*models.LoyaltySettings, error) {
	if input.StudioID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "studio id is required")
	}
	if input.CashbackPercent.IsNegative() || input.CashbackPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashback percent must be between 0 and 100")
	}
	if input.ExpiryDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry days cannot be negative")
	}

	settings := &models.LoyaltySettings{
		StudioID:        input.StudioID,
		CashbackPercent: input.CashbackPercent,
		ExpiryDays:      input.ExpiryDays,
		Enabled:         input.Enabled,
	}
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// foldBalance sums the ledger into a raw signed balance. Credits past their
// expiry contribute nothing, manual adjustments never expire, and debits are
// subtracted unconditionally. Callers floor the result at zero after logging
// any deficit.
func foldBalance(txs []models.LoyaltyTransaction, now time.Time) (decimal.Decimal, *time.Time) {
	balance := decimal.Zero
	var nextExpiration *time.Time

	for _, tx := range txs {
		switch {
		case tx.Type == enums.LoyaltyTransactionTypeDebit:
			balance = balance.Sub(tx.Amount)
		case tx.Type.IsEarning():
			if !creditExpired(tx, now) {
				balance = balance.Add(tx.Amount)
			}
			if tx.Type == enums.LoyaltyTransactionTypeCredit && tx.ExpiresAt != nil && tx.ExpiresAt.After(now) {
				if nextExpiration == nil || tx.ExpiresAt.Before(*nextExpiration) {
					expiry := *tx.ExpiresAt
					nextExpiration = &expiry
				}
			}
		}
	}

	return balance, nextExpiration
}

func creditExpired(tx models.LoyaltyTransaction, now time.Time) bool {
	if tx.Type == enums.LoyaltyTransactionTypeManualAdjust {
		return false
	}
	return tx.ExpiresAt != nil && !tx.ExpiresAt.After(now)
}
