package rewards

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/neoflow/campaign-service/internal/models"
)

const donor = "0x52908400098527886E0F7030069857D2E4169EE7"

func newTestLedger(opts ...Option) (*Ledger, *MemoryStore) {
	store := NewMemoryStore()
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return clock })}, opts...)
	return NewLedger(store, opts...), store
}

func TestAwardPointsFirstDonation(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger()

	award, err := ledger.AwardPoints(ctx, donor, decimal.RequireFromString("0.01"), "3")
	require.NoError(t, err)
	require.True(t, award.IsFirstDonation)
	require.Equal(t, int64(600), award.Points)

	award, err = ledger.AwardPoints(ctx, donor, decimal.RequireFromString("0.01"), "4")
	require.NoError(t, err)
	require.False(t, award.IsFirstDonation)
	require.Equal(t, int64(100), award.Points)

	account, err := store.Account(ctx, donor)
	require.NoError(t, err)
	require.Equal(t, int64(700), account.PointsBalance)
	require.Equal(t, int64(700), account.TotalPointsEarned)
	require.Len(t, account.Transactions, 2)

	// most recent first
	require.Equal(t, "4", account.Transactions[0].CampaignID)
	require.Equal(t, "3", account.Transactions[1].CampaignID)
	require.True(t, account.Transactions[1].IsFirstDonation)
	require.Equal(t, models.TransactionEarn, account.Transactions[0].Type)
	require.NotEmpty(t, account.Transactions[0].Reference)
}

func TestAwardPointsConcurrent(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int64
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			award, err := ledger.AwardPoints(ctx, donor, decimal.RequireFromString("0.05"), "1")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			total += award.Points
			mu.Unlock()
		}()
	}
	wg.Wait()

	account, err := store.Account(ctx, donor)
	require.NoError(t, err)
	require.Equal(t, total, account.PointsBalance)
	require.Equal(t, total, account.TotalPointsEarned)
	require.Len(t, account.Transactions, 25)

	firsts := 0
	for _, tx := range account.Transactions {
		if tx.IsFirstDonation {
			firsts++
		}
	}
	require.Equal(t, 1, firsts)
}

func TestAwardPointsRejectsBadInput(t *testing.T) {
	ledger, _ := newTestLedger()

	_, err := ledger.AwardPoints(context.Background(), donor, decimal.Zero, "1")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ledger.AwardPoints(context.Background(), "", decimal.NewFromInt(1), "1")
	require.ErrorIs(t, err, ErrMissingAddress)
}

func TestAwardObserver(t *testing.T) {
	var seen []Award
	ledger, _ := newTestLedger(WithObserver(func(a Award) { seen = append(seen, a) }))

	_, err := ledger.AwardPoints(context.Background(), donor, decimal.NewFromInt(1), "1")
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.Equal(t, int64(21000), seen[0].Points)
	require.Equal(t, "Platinum", seen[0].Tier)
}

func TestRedeemPointsGuard(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger()

	_, err := ledger.AwardPoints(ctx, donor, decimal.RequireFromString("0.25"), "1")
	require.NoError(t, err)

	before, err := store.Account(ctx, donor)
	require.NoError(t, err)

	ok, err := ledger.RedeemPoints(ctx, donor, before.PointsBalance+1)
	require.NoError(t, err)
	require.False(t, ok)

	after, err := store.Account(ctx, donor)
	require.NoError(t, err)
	require.Equal(t, before.PointsBalance, after.PointsBalance)
	require.Len(t, after.Transactions, len(before.Transactions))

	ok, err = ledger.RedeemPoints(ctx, donor, 1000)
	require.NoError(t, err)
	require.True(t, ok)

	after, err = store.Account(ctx, donor)
	require.NoError(t, err)
	require.Equal(t, before.PointsBalance-1000, after.PointsBalance)
	require.Equal(t, before.TotalPointsEarned, after.TotalPointsEarned)
	require.Equal(t, models.TransactionRedeem, after.Transactions[0].Type)
	require.Equal(t, int64(-1000), after.Transactions[0].Points)
	require.Equal(t, "Item redeemed", after.Transactions[0].Description)
}

func TestRedeemValidation(t *testing.T) {
	ledger, _ := newTestLedger()

	_, err := ledger.Redeem(context.Background(), donor, 0, "")
	require.ErrorIs(t, err, ErrInvalidPoints)

	_, err = ledger.Redeem(context.Background(), donor, 10, "")
	require.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestRedeemItem(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()

	_, err := ledger.AwardPoints(ctx, donor, decimal.RequireFromString("0.3"), "1")
	require.NoError(t, err)

	item, account, err := ledger.RedeemItem(ctx, donor, 6)
	require.NoError(t, err)
	require.Equal(t, "NeoFlow Laptop Stickers", item.Name)
	require.Equal(t, int64(3500-800), account.PointsBalance)
	require.Equal(t, "Redeemed NeoFlow Laptop Stickers", account.Transactions[0].Description)

	_, _, err = ledger.RedeemItem(ctx, donor, 10)
	require.ErrorIs(t, err, ErrInsufficientPoints)

	_, _, err = ledger.RedeemItem(ctx, donor, 404)
	require.ErrorIs(t, err, ErrUnknownItem)
}

func TestDonorLeaderboardUpsert(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()
	other := "0x0000000000000000000000000000000000000001"

	_, err := ledger.AwardPoints(ctx, donor, decimal.RequireFromString("0.5"), "1")
	require.NoError(t, err)
	_, err = ledger.AwardPoints(ctx, donor, decimal.RequireFromString("0.25"), "2")
	require.NoError(t, err)
	_, err = ledger.AwardPoints(ctx, other, decimal.RequireFromString("0.6"), "2")
	require.NoError(t, err)

	donors, err := ledger.TopDonors(ctx, 0)
	require.NoError(t, err)
	require.Len(t, donors, 2)
	require.Equal(t, donor, donors[0].Address)
	require.Equal(t, "0.75", donors[0].TotalDonated.String())
	require.Equal(t, int64(2), donors[0].DonationCount)
	require.Equal(t, other, donors[1].Address)

	donors, err = ledger.TopDonors(ctx, 1)
	require.NoError(t, err)
	require.Len(t, donors, 1)
}

func TestRaiserLeaderboard(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()

	require.NoError(t, ledger.RecordCampaignRaise(ctx, donor, decimal.Zero))
	require.NoError(t, ledger.RecordCampaignRaise(ctx, donor, decimal.Zero))
	require.NoError(t, ledger.CreditRaiser(ctx, donor, decimal.RequireFromString("1.5")))

	raisers, err := ledger.TopRaisers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, raisers, 1)
	require.Equal(t, int64(2), raisers[0].CampaignCount)
	require.Equal(t, "1.5", raisers[0].TotalRaised.String())
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()

	summary, err := ledger.Summary(ctx, donor, 5)
	require.NoError(t, err)
	require.Equal(t, int64(0), summary.PointsBalance)
	require.Equal(t, "Bronze", summary.Tier.Name)
	require.Empty(t, summary.RecentTransactions)

	for i := 0; i < 7; i++ {
		_, err := ledger.AwardPoints(ctx, donor, decimal.RequireFromString("0.01"), "1")
		require.NoError(t, err)
	}

	summary, err = ledger.Summary(ctx, donor, 5)
	require.NoError(t, err)
	require.Equal(t, int64(1200), summary.PointsBalance)
	require.Len(t, summary.RecentTransactions, 5)
	require.Equal(t, "Silver", summary.NextTier.Name)
	require.Equal(t, int64(800), summary.PointsToNextTier)
}

type failingStore struct {
	*MemoryStore
}

func (f failingStore) UpsertDonor(ctx context.Context, address string, amount decimal.Decimal, at time.Time) error {
	return errors.New("leaderboard unavailable")
}

func TestAwardPointsSurvivesLeaderboardFailure(t *testing.T) {
	store := failingStore{NewMemoryStore()}
	ledger := NewLedger(store)

	award, err := ledger.AwardPoints(context.Background(), donor, decimal.RequireFromString("0.01"), "1")
	require.NoError(t, err)
	require.Equal(t, int64(600), award.Points)
}
