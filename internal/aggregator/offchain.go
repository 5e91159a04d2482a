package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/neoflow/campaign-service/internal/metrics"
	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/internal/providers"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

// MetadataEnricher overlays IPFS hosted metadata onto campaign records
type MetadataEnricher struct {
	store       providers.ContentStore
	timeout     time.Duration
	concurrency int
	group       singleflight.Group
}

// NewMetadataEnricher creates an enricher. A concurrency of 0 fetches every
// record at once.
func NewMetadataEnricher(store providers.ContentStore, timeout time.Duration, concurrency int) *MetadataEnricher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MetadataEnricher{
		store:       store,
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// Enrich fetches metadata for every record concurrently and returns once all
// fetches have settled. The output has the same order as records. A failed
// fetch leaves its record as it was.
func (e *MetadataEnricher) Enrich(ctx context.Context, records []models.CampaignRecord) []models.EnrichedCampaign {
	out := make([]models.EnrichedCampaign, len(records))

	var g errgroup.Group
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}

	for i, record := range records {
		record.Image = e.store.URL(record.Image)
		out[i] = models.EnrichedCampaign{CampaignRecord: record}

		if record.MetadataRef == "" {
			metrics.MetadataFetches.WithLabelValues("skipped").Inc()
			continue
		}

		i, record := i, record
		g.Go(func() error {
			meta, err := e.fetch(ctx, record.MetadataRef)
			if err != nil {
				metrics.MetadataFetches.WithLabelValues("error").Inc()
				logger.Warn("Failed to fetch campaign metadata",
					zap.String("campaign_id", record.ID),
					zap.String("cid", record.MetadataRef),
					zap.Error(err),
				)
				return nil
			}
			metrics.MetadataFetches.WithLabelValues("ok").Inc()
			out[i] = e.overlay(record, meta)
			return nil
		})
	}

	_ = g.Wait()
	return out
}

// fetch shares one remote read per cid between concurrent callers. The shared
// read is bounded only by the fetch timeout so that one caller giving up does
// not fail the others; each caller still returns as soon as its own ctx ends.
func (e *MetadataEnricher) fetch(ctx context.Context, cid string) (*models.CampaignMetadata, error) {
	shared := context.WithoutCancel(ctx)
	ch := e.group.DoChan(cid, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(shared, e.timeout)
		defer cancel()

		data, err := e.store.Get(fetchCtx, cid)
		if err != nil {
			return nil, err
		}

		var meta models.CampaignMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("malformed metadata: %w", err)
		}
		return &meta, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.CampaignMetadata), nil
	}
}

// overlay prefers non-empty metadata fields over the on-chain values
func (e *MetadataEnricher) overlay(record models.CampaignRecord, meta *models.CampaignMetadata) models.EnrichedCampaign {
	if v := strings.TrimSpace(meta.Title); v != "" {
		record.Title = v
	}
	if v := strings.TrimSpace(meta.Description); v != "" {
		record.Description = v
	}
	if v := strings.TrimSpace(meta.Category); v != "" {
		record.Category = v
	}
	if v := strings.TrimSpace(meta.Image); v != "" {
		record.Image = e.store.URL(v)
	}
	return models.EnrichedCampaign{CampaignRecord: record, Enriched: true}
}
