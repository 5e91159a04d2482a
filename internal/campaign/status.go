package campaign

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/neoflow/campaign-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Classify resolves a campaign status by priority:
// inactive, then successful, then expired, then active.
func Classify(isActive bool, raised, target decimal.Decimal, deadline, now time.Time) models.CampaignStatus {
	switch {
	case !isActive:
		return models.StatusInactive
	case IsFullyFunded(raised, target):
		return models.StatusSuccessful
	case now.After(deadline):
		return models.StatusExpired
	default:
		return models.StatusActive
	}
}

// IsFullyFunded is true once the target is reached. A zero target never is.
func IsFullyFunded(raised, target decimal.Decimal) bool {
	return target.IsPositive() && raised.GreaterThanOrEqual(target)
}

// PercentFunded returns raised/target as a percentage capped at 100.
func PercentFunded(raised, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	pct := raised.Div(target).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct.Round(2).InexactFloat64()
}

// DaysLeft rounds the remaining time up to whole days, 0 once the deadline passed.
func DaysLeft(deadline, now time.Time) int64 {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	day := 24 * time.Hour
	days := int64(remaining / day)
	if remaining%day != 0 {
		days++
	}
	return days
}

// Derive computes the state of record as of now. It has no side effects and
// is the only place status is derived.
func Derive(record models.CampaignRecord, now time.Time) models.CampaignState {
	funded := IsFullyFunded(record.RaisedAmount, record.TargetAmount)
	passed := now.After(record.Deadline)

	return models.CampaignState{
		Status:              Classify(record.IsActiveFlag, record.RaisedAmount, record.TargetAmount, record.Deadline, now),
		IsFullyFunded:       funded,
		IsDeadlinePassed:    passed,
		IsEffectivelyActive: record.IsActiveFlag && !funded && !passed,
		PercentFunded:       PercentFunded(record.RaisedAmount, record.TargetAmount),
		DaysLeft:            DaysLeft(record.Deadline, now),
	}
}

// ParseStatus maps a query value onto a status. The empty string and "all" are not statuses.
func ParseStatus(s string) (models.CampaignStatus, bool) {
	switch models.CampaignStatus(s) {
	case models.StatusActive, models.StatusSuccessful, models.StatusExpired, models.StatusInactive:
		return models.CampaignStatus(s), true
	}
	return "", false
}
