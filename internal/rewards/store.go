package rewards

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/neoflow/campaign-service/internal/models"
)

// AccountMutation changes an account in place. Returning an error aborts the
// update and nothing is persisted.
type AccountMutation func(account *models.RewardAccount) error

// Store persists reward accounts and the two leaderboards.
type Store interface {
	// Account returns the account with transactions most recent first. An
	// address with no history yields an empty, unsaved account.
	Account(ctx context.Context, address string) (*models.RewardAccount, error)
	// UpdateAccount runs fn as one atomic read-modify-write of the account,
	// creating it on first use. Transactions with a zero ID are new.
	UpdateAccount(ctx context.Context, address string, fn AccountMutation) (*models.RewardAccount, error)
	UpsertDonor(ctx context.Context, address string, amount decimal.Decimal, at time.Time) error
	// UpsertRaiser adds amount to the raiser total; countCampaign also bumps the campaign count.
	UpsertRaiser(ctx context.Context, address string, amount decimal.Decimal, countCampaign bool, at time.Time) error
	TopDonors(ctx context.Context, limit int) ([]models.DonorEntry, error)
	TopRaisers(ctx context.Context, limit int) ([]models.RaiserEntry, error)
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*models.RewardAccount
	donors   map[string]*models.DonorEntry
	raisers  map[string]*models.RaiserEntry
	nextID   uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*models.RewardAccount),
		donors:   make(map[string]*models.DonorEntry),
		raisers:  make(map[string]*models.RaiserEntry),
	}
}

func (s *MemoryStore) Account(ctx context.Context, address string) (*models.RewardAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account, ok := s.accounts[address]; ok {
		return cloneAccount(account), nil
	}
	return &models.RewardAccount{Address: address}, nil
}

func (s *MemoryStore) UpdateAccount(ctx context.Context, address string, fn AccountMutation) (*models.RewardAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := &models.RewardAccount{Address: address}
	if existing, ok := s.accounts[address]; ok {
		working = cloneAccount(existing)
	}

	if err := fn(working); err != nil {
		return nil, err
	}

	if working.ID == 0 {
		s.nextID++
		working.ID = s.nextID
		working.CreatedAt = time.Now()
	}
	working.UpdatedAt = time.Now()
	for i := range working.Transactions {
		if working.Transactions[i].ID == 0 {
			s.nextID++
			working.Transactions[i].ID = s.nextID
			working.Transactions[i].AccountID = working.ID
		}
	}

	s.accounts[address] = working
	return cloneAccount(working), nil
}

func (s *MemoryStore) UpsertDonor(ctx context.Context, address string, amount decimal.Decimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.donors[address]
	if !ok {
		entry = &models.DonorEntry{Address: address, TotalDonated: decimal.Zero}
		s.donors[address] = entry
	}
	entry.TotalDonated = entry.TotalDonated.Add(amount)
	entry.DonationCount++
	entry.LastDonationAt = at
	return nil
}

func (s *MemoryStore) UpsertRaiser(ctx context.Context, address string, amount decimal.Decimal, countCampaign bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.raisers[address]
	if !ok {
		entry = &models.RaiserEntry{Address: address, TotalRaised: decimal.Zero}
		s.raisers[address] = entry
	}
	entry.TotalRaised = entry.TotalRaised.Add(amount)
	if countCampaign {
		entry.CampaignCount++
		entry.LastCampaignAt = at
	}
	return nil
}

func (s *MemoryStore) TopDonors(ctx context.Context, limit int) ([]models.DonorEntry, error) {
	s.mu.Lock()
	entries := make([]models.DonorEntry, 0, len(s.donors))
	for _, entry := range s.donors {
		entries = append(entries, *entry)
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].TotalDonated.Cmp(entries[j].TotalDonated); c != 0 {
			return c > 0
		}
		return entries[i].Address < entries[j].Address
	})
	return truncate(entries, limit), nil
}

func (s *MemoryStore) TopRaisers(ctx context.Context, limit int) ([]models.RaiserEntry, error) {
	s.mu.Lock()
	entries := make([]models.RaiserEntry, 0, len(s.raisers))
	for _, entry := range s.raisers {
		entries = append(entries, *entry)
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].TotalRaised.Cmp(entries[j].TotalRaised); c != 0 {
			return c > 0
		}
		return entries[i].Address < entries[j].Address
	})
	return truncate(entries, limit), nil
}

func truncate[T any](entries []T, limit int) []T {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func cloneAccount(account *models.RewardAccount) *models.RewardAccount {
	clone := *account
	clone.Transactions = make([]models.PointsTransaction, len(account.Transactions))
	copy(clone.Transactions, account.Transactions)
	return &clone
}
