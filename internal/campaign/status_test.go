package campaign

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/neoflow/campaign-service/internal/models"
)

func TestClassify(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	ten := decimal.NewFromInt(10)

	tests := []struct {
		name     string
		active   bool
		raised   decimal.Decimal
		target   decimal.Decimal
		deadline time.Time
		expected models.CampaignStatus
	}{
		{"funded after deadline is successful", true, ten, ten, past, models.StatusSuccessful},
		{"inactive outranks everything", false, decimal.Zero, ten, future, models.StatusInactive},
		{"inactive and funded", false, ten, ten, past, models.StatusInactive},
		{"underfunded after deadline", true, decimal.NewFromInt(3), ten, past, models.StatusExpired},
		{"underfunded before deadline", true, decimal.NewFromInt(3), ten, future, models.StatusActive},
		{"overfunded", true, decimal.NewFromInt(12), ten, future, models.StatusSuccessful},
		{"zero target is never funded", true, decimal.Zero, decimal.Zero, future, models.StatusActive},
		{"deadline equal to now is not passed", true, decimal.Zero, ten, now, models.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Classify(tt.active, tt.raised, tt.target, tt.deadline, now)
			second := Classify(tt.active, tt.raised, tt.target, tt.deadline, now)

			if first != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, first)
			}
			if first != second {
				t.Errorf("classification not repeatable: %s then %s", first, second)
			}
		})
	}
}

func TestDerive(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	record := models.CampaignRecord{
		ID:           "1",
		TargetAmount: decimal.NewFromInt(4),
		RaisedAmount: decimal.NewFromInt(1),
		Deadline:     now.Add(36 * time.Hour),
		IsActiveFlag: true,
	}

	state := Derive(record, now)

	if state.Status != models.StatusActive {
		t.Errorf("expected active, got %s", state.Status)
	}
	if !state.IsEffectivelyActive {
		t.Error("expected campaign to be effectively active")
	}
	if state.PercentFunded != 25 {
		t.Errorf("expected 25%% funded, got %v", state.PercentFunded)
	}
	if state.DaysLeft != 2 {
		t.Errorf("expected 2 days left, got %d", state.DaysLeft)
	}

	later := Derive(record, now.Add(72*time.Hour))
	if later.Status != models.StatusExpired || later.IsEffectivelyActive || later.DaysLeft != 0 {
		t.Errorf("unexpected state after deadline: %+v", later)
	}
}

func TestPercentFunded(t *testing.T) {
	tests := []struct {
		raised, target string
		expected       float64
	}{
		{"0", "0", 0},
		{"5", "0", 0},
		{"1", "3", 33.33},
		{"10", "10", 100},
		{"25", "10", 100},
	}

	for _, tt := range tests {
		got := PercentFunded(decimal.RequireFromString(tt.raised), decimal.RequireFromString(tt.target))
		if got != tt.expected {
			t.Errorf("PercentFunded(%s, %s) = %v, want %v", tt.raised, tt.target, got, tt.expected)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus("expired"); !ok || s != models.StatusExpired {
		t.Errorf("expected expired, got %q %v", s, ok)
	}
	if _, ok := ParseStatus("all"); ok {
		t.Error("all should not parse as a status")
	}
}
