package blockchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yourusername/neoflow/campaign-service/internal/models"
)

// MockLedger simulates the crowdfunding contract in memory. It follows the
// contract rules closely enough for demo mode and tests.
type MockLedger struct {
	mu        sync.Mutex
	campaigns []*models.RawCampaign
	signer    string
	balance   *big.Int // nil means unlimited
	now       func() time.Time
	txCount   int
}

// NewMockLedger creates a ledger whose transactions are signed by signer.
func NewMockLedger(signer string) *MockLedger {
	return &MockLedger{signer: signer, now: time.Now}
}

// WithBalance caps the wei the signer can spend on contributions.
func (m *MockLedger) WithBalance(wei *big.Int) *MockLedger {
	m.mu.Lock()
	m.balance = new(big.Int).Set(wei)
	m.mu.Unlock()
	return m
}

// WithClock replaces the wall clock used for deadline checks.
func (m *MockLedger) WithClock(now func() time.Time) *MockLedger {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
	return m
}

// Signer returns the address used as campaign creator.
func (m *MockLedger) Signer() string {
	return m.signer
}

// Add inserts a campaign as if it had been read from the chain.
func (m *MockLedger) Add(raw *models.RawCampaign) {
	m.mu.Lock()
	m.campaigns = append(m.campaigns, raw)
	m.mu.Unlock()
}

func (m *MockLedger) CreateCampaign(ctx context.Context, target *big.Int, deadline time.Time, metadataRef string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if target == nil || target.Sign() <= 0 {
		return "", newContractError("createCampaign", fmt.Errorf("execution reverted: Target must be greater than 0"))
	}
	if !deadline.After(m.now()) {
		return "", newContractError("createCampaign", fmt.Errorf("execution reverted: Deadline must be in the future"))
	}

	id := big.NewInt(int64(len(m.campaigns) + 1))
	m.campaigns = append(m.campaigns, &models.RawCampaign{
		ID:           id,
		Creator:      m.signer,
		TargetAmount: new(big.Int).Set(target),
		RaisedAmount: big.NewInt(0),
		Deadline:     big.NewInt(deadline.Unix()),
		IsActive:     true,
		MetadataHash: metadataRef,
	})
	m.txCount++
	return id.String(), nil
}

func (m *MockLedger) Contribute(ctx context.Context, id string, amount *big.Int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	campaign, err := m.find(id)
	if err != nil {
		return "", err
	}
	if amount == nil || amount.Sign() <= 0 {
		return "", newContractError("fundCampaign", fmt.Errorf("execution reverted: Amount must be greater than 0"))
	}
	if m.balance != nil && m.balance.Cmp(amount) < 0 {
		return "", newContractError("fundCampaign", fmt.Errorf("insufficient funds for gas * price + value"))
	}
	if !campaign.IsActive {
		return "", newContractError("fundCampaign", fmt.Errorf("execution reverted: Campaign is not active"))
	}
	if m.now().Unix() > campaign.Deadline.Int64() {
		return "", newContractError("fundCampaign", fmt.Errorf("execution reverted: Campaign has ended"))
	}

	campaign.RaisedAmount = new(big.Int).Add(campaign.RaisedAmount, amount)
	if m.balance != nil {
		m.balance.Sub(m.balance, amount)
	}
	return m.txHash("fund", id), nil
}

func (m *MockLedger) Withdraw(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	campaign, err := m.find(id)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(campaign.Creator, m.signer) {
		return "", newContractError("withdrawFunds", fmt.Errorf("execution reverted: Only the creator can withdraw"))
	}
	if campaign.RaisedAmount.Sign() == 0 {
		return "", newContractError("withdrawFunds", fmt.Errorf("execution reverted: No funds to withdraw"))
	}

	campaign.IsActive = false
	return m.txHash("withdraw", id), nil
}

func (m *MockLedger) ListAllCampaigns(ctx context.Context) ([]*models.RawCampaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.RawCampaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		out = append(out, cloneRaw(c))
	}
	return out, nil
}

func (m *MockLedger) ListCampaignsByCreator(ctx context.Context, creator string) ([]*models.RawCampaign, error) {
	if !common.IsHexAddress(creator) {
		return nil, fmt.Errorf("invalid creator address %q", creator)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.RawCampaign
	for _, c := range m.campaigns {
		if strings.EqualFold(c.Creator, creator) {
			out = append(out, cloneRaw(c))
		}
	}
	return out, nil
}

func (m *MockLedger) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockLedger) find(id string) (*models.RawCampaign, error) {
	n, err := parseCampaignID(id)
	if err != nil {
		return nil, err
	}
	for _, c := range m.campaigns {
		if c != nil && c.ID != nil && c.ID.Cmp(n) == 0 {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
}

func (m *MockLedger) txHash(op, id string) string {
	m.txCount++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", op, id, m.txCount)))
	return "0x" + hex.EncodeToString(sum[:])
}

func cloneRaw(c *models.RawCampaign) *models.RawCampaign {
	if c == nil {
		return nil
	}
	clone := *c
	if c.RaisedAmount != nil {
		clone.RaisedAmount = new(big.Int).Set(c.RaisedAmount)
	}
	return &clone
}
