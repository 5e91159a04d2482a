package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/internal/rewards"
)

// RewardsRepository is the database backed rewards.Store
type RewardsRepository struct {
	db *gorm.DB
}

var _ rewards.Store = (*RewardsRepository)(nil)

// NewRewardsRepository creates a new rewards repository
func NewRewardsRepository(db *gorm.DB) *RewardsRepository {
	return &RewardsRepository{db: db}
}

// Account loads an account and its transactions, newest first
func (r *RewardsRepository) Account(ctx context.Context, address string) (*models.RewardAccount, error) {
	var account models.RewardAccount
	err := r.db.WithContext(ctx).
		Where("address = ?", address).
		First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.RewardAccount{Address: address}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards account: %w", err)
	}

	if err := loadTransactions(r.db.WithContext(ctx), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount locks the account row for the duration of fn. New
// transactions and the balances are written in the same database transaction.
func (r *RewardsRepository) UpdateAccount(ctx context.Context, address string, fn rewards.AccountMutation) (*models.RewardAccount, error) {
	var result models.RewardAccount

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.RewardAccount{Address: address}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to create rewards account: %w", err)
		}

		var account models.RewardAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", address).
			First(&account).Error; err != nil {
			return fmt.Errorf("failed to lock rewards account: %w", err)
		}
		if err := loadTransactions(tx, &account); err != nil {
			return err
		}

		if err := fn(&account); err != nil {
			return err
		}

		// new entries sit at the front, insert them oldest first
		for i := len(account.Transactions) - 1; i >= 0; i-- {
			entry := &account.Transactions[i]
			if entry.ID != 0 {
				continue
			}
			entry.AccountID = account.ID
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("failed to record points transaction: %w", err)
			}
		}

		now := time.Now()
		if err := tx.Model(&models.RewardAccount{}).
			Where("id = ?", account.ID).
			Updates(map[string]interface{}{
				"points_balance":      account.PointsBalance,
				"total_points_earned": account.TotalPointsEarned,
				"updated_at":          now,
			}).Error; err != nil {
			return fmt.Errorf("failed to update rewards account: %w", err)
		}
		account.UpdatedAt = now

		result = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// UpsertDonor adds a donation to the donor leaderboard. The total is summed
// in decimal under the row lock so no precision is lost on any dialect.
func (r *RewardsRepository) UpsertDonor(ctx context.Context, address string, amount decimal.Decimal, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.DonorEntry{Address: address}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		var entry models.DonorEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", address).
			First(&entry).Error; err != nil {
			return err
		}

		entry.TotalDonated = entry.TotalDonated.Add(amount)
		entry.DonationCount++
		entry.LastDonationAt = at
		return tx.Save(&entry).Error
	})
	if err != nil {
		return fmt.Errorf("failed to upsert donor entry: %w", err)
	}
	return nil
}

// UpsertRaiser adds funds, and optionally a campaign, to the raiser leaderboard
func (r *RewardsRepository) UpsertRaiser(ctx context.Context, address string, amount decimal.Decimal, countCampaign bool, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.RaiserEntry{Address: address}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		var entry models.RaiserEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", address).
			First(&entry).Error; err != nil {
			return err
		}

		entry.TotalRaised = entry.TotalRaised.Add(amount)
		if countCampaign {
			entry.CampaignCount++
			entry.LastCampaignAt = at
		}
		return tx.Save(&entry).Error
	})
	if err != nil {
		return fmt.Errorf("failed to upsert raiser entry: %w", err)
	}
	return nil
}

// TopDonors returns the donors with the largest total donated
func (r *RewardsRepository) TopDonors(ctx context.Context, limit int) ([]models.DonorEntry, error) {
	var entries []models.DonorEntry
	err := r.db.WithContext(ctx).
		Order("total_donated_wei DESC").
		Order("address ASC").
		Limit(limit).
		Find(&entries).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get top donors: %w", err)
	}
	return entries, nil
}

// TopRaisers returns the creators with the largest total raised
func (r *RewardsRepository) TopRaisers(ctx context.Context, limit int) ([]models.RaiserEntry, error) {
	var entries []models.RaiserEntry
	err := r.db.WithContext(ctx).
		Order("total_raised_wei DESC").
		Order("address ASC").
		Limit(limit).
		Find(&entries).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get top raisers: %w", err)
	}
	return entries, nil
}

// GetStats retrieves rewards database statistics
func (r *RewardsRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var accounts int64
	if err := r.db.WithContext(ctx).Model(&models.RewardAccount{}).Count(&accounts).Error; err != nil {
		return nil, err
	}
	stats["reward_accounts"] = accounts

	var outstanding int64
	if err := r.db.WithContext(ctx).Model(&models.RewardAccount{}).
		Select("COALESCE(SUM(points_balance), 0)").
		Scan(&outstanding).Error; err != nil {
		return nil, err
	}
	stats["outstanding_points"] = outstanding

	var donors int64
	if err := r.db.WithContext(ctx).Model(&models.DonorEntry{}).Count(&donors).Error; err != nil {
		return nil, err
	}
	stats["donors"] = donors

	return stats, nil
}

func loadTransactions(db *gorm.DB, account *models.RewardAccount) error {
	err := db.Where("account_id = ?", account.ID).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&account.Transactions).Error
	if err != nil {
		return fmt.Errorf("failed to load points transactions: %w", err)
	}
	return nil
}
