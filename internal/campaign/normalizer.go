package campaign

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/internal/util"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

var (
	ErrNilCampaign    = errors.New("campaign record is nil")
	ErrNegativeAmount = errors.New("campaign amount is negative")
)

// Normalizer converts raw contract records into CampaignRecords.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer using the wall clock
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerWithClock is used by tests to freeze time.
func NewNormalizerWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize converts one raw record. index is its position in the listing and
// becomes the id (index+1) when the contract did not return one.
func (n *Normalizer) Normalize(raw *models.RawCampaign, index int) (models.CampaignRecord, error) {
	if raw == nil {
		return models.CampaignRecord{}, ErrNilCampaign
	}
	if (raw.TargetAmount != nil && raw.TargetAmount.Sign() < 0) ||
		(raw.RaisedAmount != nil && raw.RaisedAmount.Sign() < 0) {
		return models.CampaignRecord{}, ErrNegativeAmount
	}

	id := strconv.Itoa(index + 1)
	if raw.ID != nil {
		id = raw.ID.String()
	}

	var deadline time.Time
	if raw.Deadline != nil && raw.Deadline.IsInt64() {
		deadline = time.Unix(raw.Deadline.Int64(), 0).UTC()
	} else {
		// Unreadable deadlines expire immediately instead of failing the batch
		deadline = n.now().UTC()
		logger.Debug("Campaign deadline missing or invalid, treating as expired", zap.String("campaign_id", id))
	}

	return models.CampaignRecord{
		ID:           id,
		Creator:      util.NormalizeAddress(raw.Creator),
		Title:        orDefault(raw.Title, models.DefaultCampaignTitle),
		Description:  strings.TrimSpace(raw.Description),
		Image:        strings.TrimSpace(raw.Image),
		Category:     orDefault(raw.Category, models.DefaultCampaignCategory),
		TargetAmount: util.WeiToEther(raw.TargetAmount),
		RaisedAmount: util.WeiToEther(raw.RaisedAmount),
		Deadline:     deadline,
		IsActiveFlag: raw.IsActive,
		MetadataRef:  strings.TrimSpace(raw.MetadataHash),
	}, nil
}

// NormalizeAll normalizes a listing. Malformed records are logged and
// dropped; the rest keep their relative order.
func (n *Normalizer) NormalizeAll(raws []*models.RawCampaign) []models.CampaignRecord {
	records := make([]models.CampaignRecord, 0, len(raws))
	for i, raw := range raws {
		record, err := n.Normalize(raw, i)
		if err != nil {
			logger.Warn("Dropping malformed campaign record",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		records = append(records, record)
	}
	return records
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
