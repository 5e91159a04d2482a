package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/neoflow/campaign-service/internal/campaign"
	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/internal/providers"
)

const gateway = "https://gateway.pinata.cloud/ipfs/"

// jitterStore answers from a mock store after a random delay so that
// fetches complete out of order.
type jitterStore struct {
	*providers.MockContentStore
	calls int32
}

func (s *jitterStore) Get(ctx context.Context, cid string) ([]byte, error) {
	atomic.AddInt32(&s.calls, 1)
	time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	return s.MockContentStore.Get(ctx, cid)
}

// hangingStore never answers before the context is done.
type hangingStore struct {
	*providers.MockContentStore
}

func (s *hangingStore) Get(ctx context.Context, cid string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// gatedStore holds every read until release is closed.
type gatedStore struct {
	*jitterStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) Get(ctx context.Context, cid string) ([]byte, error) {
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.jitterStore.Get(ctx, cid)
}

func seededStore(t *testing.T) *jitterStore {
	t.Helper()
	store := &jitterStore{MockContentStore: providers.NewMockContentStore(gateway)}

	for i, title := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"} {
		doc, err := json.Marshal(models.CampaignMetadata{
			Title:    title,
			Category: "Education",
			Image:    "QmImage" + title,
		})
		require.NoError(t, err)
		store.Seed(cidFor(i), doc)
	}
	store.Seed("QmPartial", []byte(`{"title":"","description":"Only a description"}`))
	store.Seed("QmBroken", []byte(`{not json`))
	store.Seed("QmQualified", []byte(`{"image":"https://cdn.example/cover.png"}`))
	return store
}

func cidFor(i int) string {
	return "QmMeta" + string(rune('A'+i))
}

func records(n int) []models.CampaignRecord {
	out := make([]models.CampaignRecord, n)
	for i := range out {
		out[i] = models.CampaignRecord{
			ID:           big.NewInt(int64(i + 1)).String(),
			Title:        models.DefaultCampaignTitle,
			Category:     models.DefaultCampaignCategory,
			TargetAmount: decimal.NewFromInt(10),
			RaisedAmount: decimal.Zero,
			Deadline:     time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			IsActiveFlag: true,
			MetadataRef:  cidFor(i),
		}
	}
	return out
}

func TestEnrichPreservesOrder(t *testing.T) {
	store := seededStore(t)
	enricher := NewMetadataEnricher(store, time.Second, 0)
	input := records(6)

	for run := 0; run < 5; run++ {
		out := enricher.Enrich(context.Background(), input)
		require.Len(t, out, 6)
		for i, titles := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"} {
			require.Equal(t, input[i].ID, out[i].ID)
			require.Equal(t, titles, out[i].Title)
			require.True(t, out[i].Enriched)
			require.Equal(t, gateway+"QmImage"+titles, out[i].Image)
		}
	}
}

func TestEnrichIsIdempotent(t *testing.T) {
	enricher := NewMetadataEnricher(seededStore(t), time.Second, 2)
	input := records(6)

	first, err := json.Marshal(enricher.Enrich(context.Background(), input))
	require.NoError(t, err)
	second, err := json.Marshal(enricher.Enrich(context.Background(), input))
	require.NoError(t, err)

	require.Equal(t, string(first), string(second))
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	enricher := NewMetadataEnricher(seededStore(t), time.Second, 0)
	input := records(2)
	input[0].Image = "QmOnChainImage"

	_ = enricher.Enrich(context.Background(), input)

	require.Equal(t, models.DefaultCampaignTitle, input[0].Title)
	require.Equal(t, "QmOnChainImage", input[0].Image)
}

func TestEnrichFailuresFallBack(t *testing.T) {
	enricher := NewMetadataEnricher(seededStore(t), time.Second, 0)

	input := records(5)
	input[0].MetadataRef = "QmMissing"
	input[1].MetadataRef = "QmBroken"
	input[2].MetadataRef = ""
	input[2].Image = "QmOnChainImage"
	input[3].MetadataRef = "QmPartial"
	input[3].Title = "On-chain title"
	input[4].MetadataRef = "QmQualified"

	out := enricher.Enrich(context.Background(), input)
	require.Len(t, out, 5)

	require.False(t, out[0].Enriched)
	require.Equal(t, models.DefaultCampaignTitle, out[0].Title)
	require.False(t, out[1].Enriched)

	require.False(t, out[2].Enriched)
	require.Equal(t, gateway+"QmOnChainImage", out[2].Image)

	require.True(t, out[3].Enriched)
	require.Equal(t, "On-chain title", out[3].Title)
	require.Equal(t, "Only a description", out[3].Description)

	require.Equal(t, "https://cdn.example/cover.png", out[4].Image)
}

func TestEnrichTimeout(t *testing.T) {
	store := &hangingStore{MockContentStore: providers.NewMockContentStore(gateway)}
	enricher := NewMetadataEnricher(store, 20*time.Millisecond, 0)

	start := time.Now()
	out := enricher.Enrich(context.Background(), records(3))

	require.Less(t, time.Since(start), time.Second)
	for _, record := range out {
		require.False(t, record.Enriched)
		require.Equal(t, models.DefaultCampaignTitle, record.Title)
	}
}

func TestEnrichSharedFetchOutlivesCancelledCaller(t *testing.T) {
	store := &gatedStore{
		jitterStore: seededStore(t),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	enricher := NewMetadataEnricher(store, 5*time.Second, 0)
	input := records(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan []models.EnrichedCampaign, 1)
	go func() { cancelled <- enricher.Enrich(ctx, input) }()
	<-store.entered

	background := make(chan []models.EnrichedCampaign, 1)
	go func() { background <- enricher.Enrich(context.Background(), input) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	first := <-cancelled
	require.False(t, first[0].Enriched)

	close(store.release)
	second := <-background
	require.True(t, second[0].Enriched)
	require.Equal(t, "Alpha", second[0].Title)
}

type fakeSource struct {
	raws []*models.RawCampaign
	err  error
}

func (f *fakeSource) ListAllCampaigns(ctx context.Context) ([]*models.RawCampaign, error) {
	return f.raws, f.err
}

func (f *fakeSource) ListCampaignsByCreator(ctx context.Context, creator string) ([]*models.RawCampaign, error) {
	var out []*models.RawCampaign
	for _, raw := range f.raws {
		if raw != nil && raw.Creator == creator {
			out = append(out, raw)
		}
	}
	return out, f.err
}

func (f *fakeSource) HealthCheck(ctx context.Context) error {
	return f.err
}

func wei(ether int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(ether), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestCampaignAggregator(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := big.NewInt(now.Add(-time.Hour).Unix())
	future := big.NewInt(now.Add(time.Hour).Unix())
	owner := "0x0000000000000000000000000000000000000001"

	source := &fakeSource{raws: []*models.RawCampaign{
		{ID: big.NewInt(1), Creator: owner, TargetAmount: wei(10), RaisedAmount: wei(10), Deadline: past, IsActive: true, MetadataHash: cidFor(0)},
		{ID: big.NewInt(2), TargetAmount: wei(10), RaisedAmount: wei(0), Deadline: future, IsActive: false},
		{ID: big.NewInt(3), TargetAmount: wei(10), RaisedAmount: wei(1), Deadline: past, IsActive: true},
		{ID: big.NewInt(4), Creator: owner, TargetAmount: wei(10), RaisedAmount: wei(2), Deadline: future, IsActive: true},
		nil,
	}}

	agg := NewCampaignAggregator(
		NewOnChainAggregator(source, campaign.NewNormalizerWithClock(func() time.Time { return now })),
		NewMetadataEnricher(seededStore(t), time.Second, 0),
	)

	loaded, _ := agg.Loaded()
	require.False(t, loaded)
	require.NoError(t, agg.Refresh(context.Background()))

	list := agg.Campaigns(now)
	require.Len(t, list.All, 4)
	require.Len(t, list.Successful, 1)
	require.Len(t, list.Inactive, 1)
	require.Len(t, list.Expired, 1)
	require.Len(t, list.Active, 1)
	require.Equal(t, "1", list.Successful[0].ID)
	require.Equal(t, "Alpha", list.Successful[0].Title)
	require.Equal(t, "2", list.Inactive[0].ID)

	// two evaluations of one snapshot agree
	view, ok := agg.Campaign("4", now)
	require.True(t, ok)
	require.Equal(t, list.Active[0].CampaignState, view.CampaignState)

	// status moves with the clock, not the snapshot
	later, ok := agg.Campaign("4", now.Add(2*time.Hour))
	require.True(t, ok)
	require.Equal(t, models.StatusExpired, later.Status)

	_, ok = agg.Campaign("404", now)
	require.False(t, ok)

	mine, err := agg.ByCreator(context.Background(), owner, now)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	stats := agg.Stats(now)
	require.Equal(t, 4, stats.Total)
	require.Equal(t, "13", stats.TotalRaised.String())
	require.Equal(t, "40", stats.TotalTarget.String())
	require.Equal(t, 1, stats.Creators)
}

func TestRefreshKeepsSnapshotOnError(t *testing.T) {
	source := &fakeSource{raws: []*models.RawCampaign{{ID: big.NewInt(1), IsActive: true}}}
	agg := NewCampaignAggregator(
		NewOnChainAggregator(source, campaign.NewNormalizer()),
		NewMetadataEnricher(providers.NewMockContentStore(gateway), time.Second, 0),
	)

	require.NoError(t, agg.Refresh(context.Background()))

	source.err = errors.New("rpc down")
	require.Error(t, agg.Refresh(context.Background()))
	require.Len(t, agg.Campaigns(time.Now()).All, 1)
}

func TestRefreshKeepsSnapshotWhenCancelled(t *testing.T) {
	source := &fakeSource{raws: []*models.RawCampaign{
		{ID: big.NewInt(1), TargetAmount: wei(1), IsActive: true, MetadataHash: cidFor(0)},
	}}
	agg := NewCampaignAggregator(
		NewOnChainAggregator(source, campaign.NewNormalizer()),
		NewMetadataEnricher(seededStore(t), time.Second, 0),
	)

	require.NoError(t, agg.Refresh(context.Background()))
	require.Equal(t, "Alpha", agg.Campaigns(time.Now()).All[0].Title)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := agg.Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)

	all := agg.Campaigns(time.Now()).All
	require.Len(t, all, 1)
	require.True(t, all[0].Enriched)
	require.Equal(t, "Alpha", all[0].Title)
}
