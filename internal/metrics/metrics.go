package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MetadataFetches counts IPFS metadata fetches by result: ok, error, skipped
	MetadataFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neoflow_metadata_fetches_total",
			Help: "Campaign metadata fetches by result",
		},
		[]string{"result"},
	)

	// MetadataCache counts content cache lookups by result: hit, miss
	MetadataCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neoflow_metadata_cache_total",
			Help: "Content cache lookups by result",
		},
		[]string{"result"},
	)

	PointsAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "neoflow_points_awarded_total",
			Help: "NeoPoints awarded for contributions",
		},
	)

	// Redemptions counts redemption attempts by result: ok, insufficient
	Redemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neoflow_redemptions_total",
			Help: "NeoPoints redemption attempts by result",
		},
		[]string{"result"},
	)

	// LedgerTransactions counts contract writes by operation and result
	LedgerTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neoflow_ledger_transactions_total",
			Help: "Crowdfunding contract transactions by operation and result",
		},
		[]string{"operation", "result"},
	)

	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neoflow_snapshot_refresh_seconds",
			Help:    "Duration of campaign snapshot refreshes",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotCampaigns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "neoflow_snapshot_campaigns",
			Help: "Campaigns in the current snapshot",
		},
	)
)

func init() {
	prometheus.MustRegister(
		MetadataFetches,
		MetadataCache,
		PointsAwarded,
		Redemptions,
		LedgerTransactions,
		RefreshDuration,
		SnapshotCampaigns,
	)
}

// Handler serves the default registry for gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
