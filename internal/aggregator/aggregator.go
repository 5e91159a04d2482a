package aggregator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/campaign"
	"github.com/yourusername/neoflow/campaign-service/internal/metrics"
	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

// CampaignAggregator keeps the latest enriched snapshot of all campaigns.
// Status is derived from the snapshot on every read and never stored.
type CampaignAggregator struct {
	onChain  *OnChainAggregator
	enricher *MetadataEnricher

	mu          sync.RWMutex
	snapshot    []models.EnrichedCampaign
	refreshedAt time.Time
}

// NewCampaignAggregator creates a new campaign aggregator
func NewCampaignAggregator(onChain *OnChainAggregator, enricher *MetadataEnricher) *CampaignAggregator {
	return &CampaignAggregator{onChain: onChain, enricher: enricher}
}

// Refresh rebuilds the snapshot. Concurrent refreshes are not cancelled;
// whichever finishes last wins. On error the previous snapshot is kept.
func (a *CampaignAggregator) Refresh(ctx context.Context) error {
	start := time.Now()

	records, err := a.onChain.FetchCampaigns(ctx)
	if err != nil {
		return err
	}
	enriched := a.enricher.Enrich(ctx, records)
	if err := ctx.Err(); err != nil {
		// fetches were cut short, the records may be missing metadata
		return fmt.Errorf("campaign refresh interrupted: %w", err)
	}

	a.mu.Lock()
	a.snapshot = enriched
	a.refreshedAt = time.Now()
	a.mu.Unlock()

	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	metrics.SnapshotCampaigns.Set(float64(len(enriched)))
	logger.Info("Campaign snapshot refreshed",
		zap.Int("campaigns", len(enriched)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Loaded reports whether a snapshot exists and when it was taken.
func (a *CampaignAggregator) Loaded() (bool, time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot != nil, a.refreshedAt
}

func (a *CampaignAggregator) current() []models.EnrichedCampaign {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// View derives the state of one enriched record at now.
func View(record models.EnrichedCampaign, now time.Time) models.CampaignView {
	return models.CampaignView{
		EnrichedCampaign: record,
		CampaignState:    campaign.Derive(record.CampaignRecord, now),
	}
}

// Campaigns groups the snapshot by status as of now
func (a *CampaignAggregator) Campaigns(now time.Time) models.CampaignList {
	list := models.CampaignList{
		All:        []models.CampaignView{},
		Active:     []models.CampaignView{},
		Successful: []models.CampaignView{},
		Expired:    []models.CampaignView{},
		Inactive:   []models.CampaignView{},
	}

	for _, record := range a.current() {
		view := View(record, now)
		list.All = append(list.All, view)

		switch view.Status {
		case models.StatusActive:
			list.Active = append(list.Active, view)
		case models.StatusSuccessful:
			list.Successful = append(list.Successful, view)
		case models.StatusExpired:
			list.Expired = append(list.Expired, view)
		case models.StatusInactive:
			list.Inactive = append(list.Inactive, view)
		}
	}
	return list
}

// Campaign returns one campaign from the snapshot
func (a *CampaignAggregator) Campaign(id string, now time.Time) (models.CampaignView, bool) {
	for _, record := range a.current() {
		if record.ID == id {
			return View(record, now), true
		}
	}
	return models.CampaignView{}, false
}

// ByCreator reads the campaigns of creator straight from the chain
func (a *CampaignAggregator) ByCreator(ctx context.Context, creator string, now time.Time) ([]models.CampaignView, error) {
	records, err := a.onChain.FetchCreatorCampaigns(ctx, creator)
	if err != nil {
		return nil, err
	}

	views := make([]models.CampaignView, 0, len(records))
	for _, record := range a.enricher.Enrich(ctx, records) {
		views = append(views, View(record, now))
	}
	return views, nil
}

// Stats summarizes the snapshot as of now
func (a *CampaignAggregator) Stats(now time.Time) models.CampaignStats {
	stats := models.CampaignStats{
		TotalRaised: decimal.Zero,
		TotalTarget: decimal.Zero,
		GeneratedAt: now,
	}
	creators := make(map[string]struct{})

	for _, record := range a.current() {
		stats.Total++
		switch campaign.Derive(record.CampaignRecord, now).Status {
		case models.StatusActive:
			stats.Active++
		case models.StatusSuccessful:
			stats.Successful++
		case models.StatusExpired:
			stats.Expired++
		case models.StatusInactive:
			stats.Inactive++
		}
		stats.TotalRaised = stats.TotalRaised.Add(record.RaisedAmount)
		stats.TotalTarget = stats.TotalTarget.Add(record.TargetAmount)
		if record.Creator != "" {
			creators[strings.ToLower(record.Creator)] = struct{}{}
		}
	}
	stats.Creators = len(creators)
	return stats
}

// HealthCheck verifies the on-chain source
func (a *CampaignAggregator) HealthCheck(ctx context.Context) error {
	return a.onChain.HealthCheck(ctx)
}
