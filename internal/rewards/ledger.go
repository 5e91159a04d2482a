package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/metrics"
	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

const (
	DefaultLeaderboardLimit   = 10
	DefaultRecentTransactions = 10
	defaultRedeemDescription  = "Item redeemed"
	donationDescription       = "Donation reward"
)

var (
	ErrInsufficientPoints = errors.New("insufficient NeoPoints balance")
	ErrInvalidPoints      = errors.New("points to redeem must be positive")
	ErrInvalidAmount      = errors.New("donation amount must be positive")
	ErrMissingAddress     = errors.New("account address is required")
	ErrUnknownItem        = errors.New("store item not found")
)

// Award is the result of crediting a contribution.
type Award struct {
	Address         string `json:"address"`
	Points          int64  `json:"points"`
	IsFirstDonation bool   `json:"is_first_donation"`
	PointsBalance   int64  `json:"points_balance"`
	Tier            string `json:"tier"`
}

// AwardObserver is notified after points have been committed.
type AwardObserver func(award Award)

// Summary is the rewards read model of one account.
type Summary struct {
	Address            string                     `json:"address"`
	PointsBalance      int64                      `json:"points_balance"`
	TotalPointsEarned  int64                      `json:"total_points_earned"`
	Tier               TierInfo                   `json:"tier"`
	NextTier           *TierInfo                  `json:"next_tier,omitempty"`
	PointsToNextTier   int64                      `json:"points_to_next_tier"`
	TierProgress       float64                    `json:"tier_progress"`
	RecentTransactions []models.PointsTransaction `json:"recent_transactions"`
}

// Ledger applies the NeoPoints rules on top of a Store.
type Ledger struct {
	store     Store
	now       func() time.Time
	observers []AwardObserver
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithObserver(observer AwardObserver) Option {
	return func(l *Ledger) { l.observers = append(l.observers, observer) }
}

func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AwardPoints credits a contribution of amount ETH to address and records it
// on the donor leaderboard. The first donation is detected from an empty history.
func (l *Ledger) AwardPoints(ctx context.Context, address string, amount decimal.Decimal, campaignID string) (Award, error) {
	if address == "" {
		return Award{}, ErrMissingAddress
	}
	if !amount.IsPositive() {
		return Award{}, ErrInvalidAmount
	}

	now := l.now().UTC()
	var award Award

	account, err := l.store.UpdateAccount(ctx, address, func(account *models.RewardAccount) error {
		first := len(account.Transactions) == 0
		points := CalculatePoints(amount, first)

		tx := models.PointsTransaction{
			Reference:       uuid.NewString(),
			Type:            models.TransactionEarn,
			Points:          points,
			DonationAmount:  decimal.NewNullDecimal(amount),
			CampaignID:      campaignID,
			IsFirstDonation: first,
			Description:     donationDescription,
			Timestamp:       now,
		}
		account.Transactions = append([]models.PointsTransaction{tx}, account.Transactions...)
		account.PointsBalance += points
		account.TotalPointsEarned += points

		award = Award{Address: address, Points: points, IsFirstDonation: first}
		return nil
	})
	if err != nil {
		return Award{}, fmt.Errorf("failed to award points: %w", err)
	}

	award.PointsBalance = account.PointsBalance
	award.Tier = GetTier(account.PointsBalance).Name
	metrics.PointsAwarded.Add(float64(award.Points))

	if err := l.store.UpsertDonor(ctx, address, amount, now); err != nil {
		logger.Error("Failed to update donor leaderboard",
			zap.String("address", address),
			zap.Error(err),
		)
	}

	for _, observer := range l.observers {
		observer(award)
	}

	logger.Info("NeoPoints awarded",
		zap.String("address", address),
		zap.Int64("points", award.Points),
		zap.Bool("first_donation", award.IsFirstDonation),
	)

	return award, nil
}

// Redeem deducts points from address. ErrInsufficientPoints leaves the
// account untouched.
func (l *Ledger) Redeem(ctx context.Context, address string, points int64, description string) (*models.RewardAccount, error) {
	if address == "" {
		return nil, ErrMissingAddress
	}
	if points <= 0 {
		return nil, ErrInvalidPoints
	}
	if description == "" {
		description = defaultRedeemDescription
	}

	now := l.now().UTC()
	account, err := l.store.UpdateAccount(ctx, address, func(account *models.RewardAccount) error {
		if account.PointsBalance < points {
			return ErrInsufficientPoints
		}
		tx := models.PointsTransaction{
			Reference:   uuid.NewString(),
			Type:        models.TransactionRedeem,
			Points:      -points,
			Description: description,
			Timestamp:   now,
		}
		account.Transactions = append([]models.PointsTransaction{tx}, account.Transactions...)
		account.PointsBalance -= points
		return nil
	})
	if errors.Is(err, ErrInsufficientPoints) {
		metrics.Redemptions.WithLabelValues("insufficient").Inc()
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to redeem points: %w", err)
	}

	metrics.Redemptions.WithLabelValues("ok").Inc()
	logger.Info("NeoPoints redeemed",
		zap.String("address", address),
		zap.Int64("points", points),
		zap.String("description", description),
	)
	return account, nil
}

// RedeemPoints reports whether the redemption was admitted. A rejected
// redemption returns false with a nil error.
func (l *Ledger) RedeemPoints(ctx context.Context, address string, points int64) (bool, error) {
	_, err := l.Redeem(ctx, address, points, "")
	if errors.Is(err, ErrInsufficientPoints) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RedeemItem redeems a catalog item for its price.
func (l *Ledger) RedeemItem(ctx context.Context, address string, itemID int) (StoreItem, *models.RewardAccount, error) {
	item, ok := FindItem(itemID)
	if !ok {
		return StoreItem{}, nil, ErrUnknownItem
	}
	account, err := l.Redeem(ctx, address, item.Points, "Redeemed "+item.Name)
	if err != nil {
		return item, nil, err
	}
	return item, account, nil
}

// RecordCampaignRaise adds a campaign to the raiser leaderboard of address.
func (l *Ledger) RecordCampaignRaise(ctx context.Context, address string, raised decimal.Decimal) error {
	if address == "" {
		return ErrMissingAddress
	}
	if err := l.store.UpsertRaiser(ctx, address, raised, true, l.now().UTC()); err != nil {
		return fmt.Errorf("failed to update raiser leaderboard: %w", err)
	}
	return nil
}

// CreditRaiser adds contributed funds to the creator's raised total without
// counting a new campaign.
func (l *Ledger) CreditRaiser(ctx context.Context, address string, amount decimal.Decimal) error {
	if address == "" {
		return ErrMissingAddress
	}
	if err := l.store.UpsertRaiser(ctx, address, amount, false, l.now().UTC()); err != nil {
		return fmt.Errorf("failed to update raiser leaderboard: %w", err)
	}
	return nil
}

// Summary builds the rewards read model with at most recent transactions.
func (l *Ledger) Summary(ctx context.Context, address string, recent int) (*Summary, error) {
	if address == "" {
		return nil, ErrMissingAddress
	}
	if recent <= 0 {
		recent = DefaultRecentTransactions
	}

	account, err := l.store.Account(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load rewards account: %w", err)
	}

	txs := account.Transactions
	if len(txs) > recent {
		txs = txs[:recent]
	}
	if txs == nil {
		txs = []models.PointsTransaction{}
	}

	return &Summary{
		Address:            address,
		PointsBalance:      account.PointsBalance,
		TotalPointsEarned:  account.TotalPointsEarned,
		Tier:               GetTier(account.PointsBalance),
		NextTier:           NextTier(account.PointsBalance),
		PointsToNextTier:   PointsToNextTier(account.PointsBalance),
		TierProgress:       TierProgress(account.PointsBalance),
		RecentTransactions: txs,
	}, nil
}

func (l *Ledger) TopDonors(ctx context.Context, limit int) ([]models.DonorEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	entries, err := l.store.TopDonors(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load donor leaderboard: %w", err)
	}
	return entries, nil
}

func (l *Ledger) TopRaisers(ctx context.Context, limit int) ([]models.RaiserEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	entries, err := l.store.TopRaisers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load raiser leaderboard: %w", err)
	}
	return entries, nil
}
