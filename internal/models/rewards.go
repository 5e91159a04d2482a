package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionEarn   TransactionType = "earn"
	TransactionRedeem TransactionType = "redeem"
)

// RewardAccount is the NeoPoints ledger of one address
type RewardAccount struct {
	ID                uint                `gorm:"primaryKey" json:"-"`
	Address           string              `gorm:"uniqueIndex;not null" json:"address"`
	PointsBalance     int64               `gorm:"not null;default:0" json:"points_balance"`
	TotalPointsEarned int64               `gorm:"not null;default:0" json:"total_points_earned"`
	Transactions      []PointsTransaction `gorm:"foreignKey:AccountID" json:"transactions"` // most recent first
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// PointsTransaction is one entry of the append-only ledger.
// Points are negative for redemptions.
type PointsTransaction struct {
	ID              uint                `gorm:"primaryKey" json:"-"`
	AccountID       uint                `gorm:"index;not null" json:"-"`
	Reference       string              `gorm:"uniqueIndex;not null" json:"reference"`
	Type            TransactionType     `gorm:"not null" json:"type"`
	Points          int64               `gorm:"not null" json:"points"`
	DonationAmount  decimal.NullDecimal `gorm:"type:varchar(80)" json:"donation_amount"`
	CampaignID      string              `json:"campaign_id,omitempty"`
	IsFirstDonation bool                `json:"is_first_donation"`
	Description     string              `json:"description,omitempty"`
	Timestamp       time.Time           `gorm:"not null;index" json:"timestamp"`
}

// DonorEntry is a row of the top donors leaderboard
type DonorEntry struct {
	ID              uint            `gorm:"primaryKey" json:"-"`
	Address         string          `gorm:"uniqueIndex;not null" json:"address"`
	TotalDonated    decimal.Decimal `gorm:"-" json:"total_donated"`
	TotalDonatedWei string          `gorm:"type:varchar(78);not null;index" json:"-"`
	DonationCount   int64           `gorm:"not null;default:0" json:"donation_count"`
	LastDonationAt  time.Time       `json:"last_donation_at"`
}

func (e *DonorEntry) BeforeSave(tx *gorm.DB) (err error) {
	e.TotalDonatedWei, err = EncodeWei(e.TotalDonated)
	return err
}

func (e *DonorEntry) AfterFind(tx *gorm.DB) (err error) {
	e.TotalDonated, err = DecodeWei(e.TotalDonatedWei)
	return err
}

// RaiserEntry is a row of the top fundraisers leaderboard
type RaiserEntry struct {
	ID             uint            `gorm:"primaryKey" json:"-"`
	Address        string          `gorm:"uniqueIndex;not null" json:"address"`
	TotalRaised    decimal.Decimal `gorm:"-" json:"total_raised"`
	TotalRaisedWei string          `gorm:"type:varchar(78);not null;index" json:"-"`
	CampaignCount  int64           `gorm:"not null;default:0" json:"campaign_count"`
	LastCampaignAt time.Time       `json:"last_campaign_at"`
}

func (e *RaiserEntry) BeforeSave(tx *gorm.DB) (err error) {
	e.TotalRaisedWei, err = EncodeWei(e.TotalRaised)
	return err
}

func (e *RaiserEntry) AfterFind(tx *gorm.DB) (err error) {
	e.TotalRaised, err = DecodeWei(e.TotalRaisedWei)
	return err
}

// weiDigits fits any uint256 wei amount
const weiDigits = 78

// EncodeWei stores an ether amount as a zero padded wei string. Fixed width
// digit strings sort the same as the numbers they hold, on every dialect.
// Anything below one wei is truncated.
func EncodeWei(ether decimal.Decimal) (string, error) {
	if ether.IsNegative() {
		return "", fmt.Errorf("negative amount %s", ether)
	}
	digits := ether.Shift(18).Truncate(0).String()
	if len(digits) > weiDigits {
		return "", fmt.Errorf("amount %s out of range", ether)
	}
	return strings.Repeat("0", weiDigits-len(digits)) + digits, nil
}

// DecodeWei reverses EncodeWei. An empty string is zero.
func DecodeWei(stored string) (decimal.Decimal, error) {
	digits := strings.TrimLeft(stored, "0")
	if digits == "" {
		return decimal.Zero, nil
	}
	wei, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed wei amount %q: %w", stored, err)
	}
	return wei.Shift(-18), nil
}
