package aggregator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/campaign"
	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

// CampaignSource lists raw campaigns from the crowdfunding contract
type CampaignSource interface {
	ListAllCampaigns(ctx context.Context) ([]*models.RawCampaign, error)
	ListCampaignsByCreator(ctx context.Context, creator string) ([]*models.RawCampaign, error)
	HealthCheck(ctx context.Context) error
}

// OnChainAggregator reads campaigns from the chain and normalizes them
type OnChainAggregator struct {
	source     CampaignSource
	normalizer *campaign.Normalizer
}

// NewOnChainAggregator creates a new on-chain campaign aggregator
func NewOnChainAggregator(source CampaignSource, normalizer *campaign.Normalizer) *OnChainAggregator {
	return &OnChainAggregator{source: source, normalizer: normalizer}
}

// FetchCampaigns returns every campaign on the contract
func (a *OnChainAggregator) FetchCampaigns(ctx context.Context) ([]models.CampaignRecord, error) {
	raws, err := a.source.ListAllCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaigns: %w", err)
	}

	records := a.normalizer.NormalizeAll(raws)
	logger.Debug("Fetched campaigns from chain",
		zap.Int("raw", len(raws)),
		zap.Int("normalized", len(records)),
	)
	return records, nil
}

// FetchCreatorCampaigns returns the campaigns created by address
func (a *OnChainAggregator) FetchCreatorCampaigns(ctx context.Context, creator string) ([]models.CampaignRecord, error) {
	raws, err := a.source.ListCampaignsByCreator(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch creator campaigns: %w", err)
	}
	return a.normalizer.NormalizeAll(raws), nil
}

// HealthCheck verifies the campaign source is reachable
func (a *OnChainAggregator) HealthCheck(ctx context.Context) error {
	return a.source.HealthCheck(ctx)
}
