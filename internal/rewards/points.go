package rewards

import (
	"github.com/shopspring/decimal"
)

// Point rules for contributions
const (
	PointsPerUnit      = 10000 // 100 points per 0.01 ETH
	FirstDonationBonus = 500
	LargeDonationMult  = 2
	MinPointsPerAward  = 50
)

var (
	pointsPerUnit       = decimal.NewFromInt(PointsPerUnit)
	largeDonationAmount = decimal.NewFromInt(1)
)

// CalculatePoints returns the NeoPoints earned for a contribution of amount ETH.
// The first donation bonus is added before the large donation multiplier.
func CalculatePoints(amount decimal.Decimal, isFirstDonation bool) int64 {
	points := amount.Mul(pointsPerUnit).Floor().IntPart()

	if isFirstDonation {
		points += FirstDonationBonus
	}

	if amount.GreaterThanOrEqual(largeDonationAmount) {
		points *= LargeDonationMult
	}

	if points < MinPointsPerAward {
		points = MinPointsPerAward
	}

	return points
}
