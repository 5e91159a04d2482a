package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/aggregator"
	"github.com/yourusername/neoflow/campaign-service/internal/blockchain"
	"github.com/yourusername/neoflow/campaign-service/internal/metrics"
	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/internal/providers"
	"github.com/yourusername/neoflow/campaign-service/internal/rewards"
	"github.com/yourusername/neoflow/campaign-service/internal/util"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

const (
	metadataVersion     = "1.0"
	writeRefreshTimeout = 30 * time.Second
)

// ErrInvalidRequest wraps every validation failure of a service call.
var ErrInvalidRequest = errors.New("invalid request")

// CampaignLedger is the crowdfunding contract as seen by the service.
type CampaignLedger interface {
	CreateCampaign(ctx context.Context, target *big.Int, deadline time.Time, metadataRef string) (string, error)
	Contribute(ctx context.Context, id string, amount *big.Int) (string, error)
	Withdraw(ctx context.Context, id string) (string, error)
	ListAllCampaigns(ctx context.Context) ([]*models.RawCampaign, error)
	ListCampaignsByCreator(ctx context.Context, creator string) ([]*models.RawCampaign, error)
	Signer() string
	HealthCheck(ctx context.Context) error
}

// RewardsStats reports storage level counters for the admin view.
type RewardsStats interface {
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

// CreateCampaignRequest describes a new campaign. Target is in ether.
type CreateCampaignRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Target      decimal.Decimal `json:"target"`
	Deadline    time.Time       `json:"deadline"`
}

// CreateCampaignResult is returned once the campaign is on chain.
type CreateCampaignResult struct {
	CampaignID  string               `json:"campaign_id"`
	MetadataRef string               `json:"metadata_hash"`
	Campaign    *models.CampaignView `json:"campaign,omitempty"`
}

// ContributionResult is returned once a contribution is mined. Award is nil
// when crediting NeoPoints failed after the transfer succeeded.
type ContributionResult struct {
	CampaignID string          `json:"campaign_id"`
	TxHash     string          `json:"tx_hash"`
	Amount     decimal.Decimal `json:"amount"`
	Award      *rewards.Award  `json:"award,omitempty"`
}

// LeaderboardKind selects one of the two leaderboards.
type LeaderboardKind string

const (
	LeaderboardDonors  LeaderboardKind = "donors"
	LeaderboardRaisers LeaderboardKind = "raisers"
)

// Leaderboard holds the entries of the requested kind.
type Leaderboard struct {
	Kind    LeaderboardKind      `json:"kind"`
	Donors  []models.DonorEntry  `json:"donors,omitempty"`
	Raisers []models.RaiserEntry `json:"raisers,omitempty"`
}

// CampaignService orchestrates the contract, IPFS, the campaign snapshot
// and the NeoPoints ledger.
type CampaignService struct {
	ledger    CampaignLedger
	content   providers.ContentStore
	campaigns *aggregator.CampaignAggregator
	rewards   *rewards.Ledger
	stats     RewardsStats
	now       func() time.Time
}

// NewCampaignService creates a new campaign service. stats may be nil.
func NewCampaignService(
	ledger CampaignLedger,
	content providers.ContentStore,
	campaigns *aggregator.CampaignAggregator,
	rewardsLedger *rewards.Ledger,
	stats RewardsStats,
) *CampaignService {
	return &CampaignService{
		ledger:    ledger,
		content:   content,
		campaigns: campaigns,
		rewards:   rewardsLedger,
		stats:     stats,
		now:       time.Now,
	}
}

// Refresh rebuilds the campaign snapshot
func (s *CampaignService) Refresh(ctx context.Context) error {
	if err := s.campaigns.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh campaigns: %w", err)
	}
	return nil
}

func (s *CampaignService) ensureLoaded(ctx context.Context) error {
	if loaded, _ := s.campaigns.Loaded(); loaded {
		return nil
	}
	return s.Refresh(ctx)
}

// refreshAfterWrite logs instead of failing: the write itself already succeeded.
// It outlives the request so a client hanging up does not leave a stale snapshot.
func (s *CampaignService) refreshAfterWrite(ctx context.Context, op string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeRefreshTimeout)
	defer cancel()

	if err := s.campaigns.Refresh(ctx); err != nil {
		logger.Error("Failed to refresh campaigns after "+op, zap.Error(err))
	}
}

// ListCampaigns returns every campaign, or only those with status when set.
func (s *CampaignService) ListCampaigns(ctx context.Context, status models.CampaignStatus) ([]models.CampaignView, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	list := s.campaigns.Campaigns(s.now())
	switch status {
	case "":
		return list.All, nil
	case models.StatusActive:
		return list.Active, nil
	case models.StatusSuccessful:
		return list.Successful, nil
	case models.StatusExpired:
		return list.Expired, nil
	case models.StatusInactive:
		return list.Inactive, nil
	}
	return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
}

// GetCampaign returns one campaign from the snapshot
func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*models.CampaignView, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	view, ok := s.campaigns.Campaign(id, s.now())
	if !ok {
		return nil, fmt.Errorf("%w: %s", blockchain.ErrCampaignNotFound, id)
	}
	return &view, nil
}

// ListCampaignsByCreator reads the campaigns of creator from the contract
func (s *CampaignService) ListCampaignsByCreator(ctx context.Context, creator string) ([]models.CampaignView, error) {
	if !util.IsValidAddress(creator) {
		return nil, fmt.Errorf("%w: invalid address %q", ErrInvalidRequest, creator)
	}
	views, err := s.campaigns.ByCreator(ctx, util.NormalizeAddress(creator), s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list creator campaigns: %w", err)
	}
	return views, nil
}

func (s *CampaignService) validate(req *CreateCampaignRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)

	switch {
	case req.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	case req.Description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidRequest)
	case req.Category == "":
		return fmt.Errorf("%w: category is required", ErrInvalidRequest)
	case !req.Target.IsPositive():
		return fmt.Errorf("%w: target must be greater than 0", ErrInvalidRequest)
	case !req.Deadline.After(s.now()):
		return fmt.Errorf("%w: deadline must be in the future", ErrInvalidRequest)
	}
	return nil
}

// CreateCampaign pins the campaign metadata and creates the campaign on chain
func (s *CampaignService) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*CreateCampaignResult, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	metadata := models.CampaignMetadata{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Image:       strings.TrimSpace(req.Image),
		Target:      req.Target.String(),
		Deadline:    req.Deadline.UTC().Format(time.RFC3339),
		UploadedAt:  s.now().UTC().Format(time.RFC3339),
		Version:     metadataVersion,
	}

	ref, err := s.content.PutJSON(ctx, metadata)
	if err != nil {
		logger.Error("Failed to pin campaign metadata", zap.Error(err))
		return nil, fmt.Errorf("failed to upload metadata: %w", err)
	}

	id, err := s.ledger.CreateCampaign(ctx, util.EtherToWei(req.Target), req.Deadline, ref)
	if err != nil {
		metrics.LedgerTransactions.WithLabelValues("create", "error").Inc()
		logger.Error("Failed to create campaign", zap.String("metadata", ref), zap.Error(err))
		return nil, err
	}
	metrics.LedgerTransactions.WithLabelValues("create", "ok").Inc()

	if creator := util.NormalizeAddress(s.ledger.Signer()); creator != "" {
		if err := s.rewards.RecordCampaignRaise(ctx, creator, decimal.Zero); err != nil {
			logger.Error("Failed to save raiser leaderboard entry",
				zap.String("creator", creator),
				zap.Error(err),
			)
		}
	}

	s.refreshAfterWrite(ctx, "create")

	logger.Info("Campaign created",
		zap.String("campaign_id", id),
		zap.String("metadata", ref),
	)

	result := &CreateCampaignResult{CampaignID: id, MetadataRef: ref}
	if view, ok := s.campaigns.Campaign(id, s.now()); ok {
		result.Campaign = &view
	}
	return result, nil
}

// UploadImage pins a campaign image and returns its content address and URL
func (s *CampaignService) UploadImage(ctx context.Context, name string, r io.Reader) (string, string, error) {
	if strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("%w: file name is required", ErrInvalidRequest)
	}
	cid, err := s.content.PutFile(ctx, name, r)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload image: %w", err)
	}
	return cid, s.content.URL(cid), nil
}

// Contribute sends amount ether to a campaign and credits the contributor
// with NeoPoints. Contract errors are returned as is and never retried.
func (s *CampaignService) Contribute(ctx context.Context, id, contributor string, amount decimal.Decimal) (*ContributionResult, error) {
	// the contract only sees whole wei
	amount = amount.Truncate(util.EtherDecimals)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrInvalidRequest)
	}
	if !util.IsValidAddress(contributor) {
		return nil, fmt.Errorf("%w: invalid contributor address %q", ErrInvalidRequest, contributor)
	}
	contributor = util.NormalizeAddress(contributor)

	view, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	txHash, err := s.ledger.Contribute(ctx, id, util.EtherToWei(amount))
	if err != nil {
		metrics.LedgerTransactions.WithLabelValues("contribute", "error").Inc()
		logger.Error("Failed to contribute",
			zap.String("campaign_id", id),
			zap.String("contributor", contributor),
			zap.Error(err),
		)
		return nil, err
	}
	metrics.LedgerTransactions.WithLabelValues("contribute", "ok").Inc()

	result := &ContributionResult{CampaignID: id, TxHash: txHash, Amount: amount}

	award, err := s.rewards.AwardPoints(ctx, contributor, amount, id)
	if err != nil {
		logger.Error("Failed to award NeoPoints",
			zap.String("contributor", contributor),
			zap.String("tx", txHash),
			zap.Error(err),
		)
	} else {
		result.Award = &award
	}

	if view.Creator != "" {
		if err := s.rewards.CreditRaiser(ctx, view.Creator, amount); err != nil {
			logger.Error("Failed to save raiser leaderboard entry",
				zap.String("creator", view.Creator),
				zap.Error(err),
			)
		}
	}

	s.refreshAfterWrite(ctx, "contribution")

	logger.Info("Contribution recorded",
		zap.String("campaign_id", id),
		zap.String("contributor", contributor),
		zap.String("amount", amount.String()),
		zap.String("tx", txHash),
	)
	return result, nil
}

// Withdraw releases the raised funds of a campaign to its creator
func (s *CampaignService) Withdraw(ctx context.Context, id string) (string, error) {
	txHash, err := s.ledger.Withdraw(ctx, id)
	if err != nil {
		metrics.LedgerTransactions.WithLabelValues("withdraw", "error").Inc()
		logger.Error("Failed to withdraw", zap.String("campaign_id", id), zap.Error(err))
		return "", err
	}
	metrics.LedgerTransactions.WithLabelValues("withdraw", "ok").Inc()

	s.refreshAfterWrite(ctx, "withdrawal")

	logger.Info("Funds withdrawn", zap.String("campaign_id", id), zap.String("tx", txHash))
	return txHash, nil
}

// RewardsSummary returns the NeoPoints summary of address
func (s *CampaignService) RewardsSummary(ctx context.Context, address string, recent int) (*rewards.Summary, error) {
	if !util.IsValidAddress(address) {
		return nil, fmt.Errorf("%w: invalid address %q", ErrInvalidRequest, address)
	}
	return s.rewards.Summary(ctx, util.NormalizeAddress(address), recent)
}

// Redeem spends points of address
func (s *CampaignService) Redeem(ctx context.Context, address string, points int64, description string) (*rewards.Summary, error) {
	if !util.IsValidAddress(address) {
		return nil, fmt.Errorf("%w: invalid address %q", ErrInvalidRequest, address)
	}
	address = util.NormalizeAddress(address)

	if _, err := s.rewards.Redeem(ctx, address, points, description); err != nil {
		return nil, err
	}
	return s.rewards.Summary(ctx, address, 0)
}

// RedeemItem spends the price of a catalog item
func (s *CampaignService) RedeemItem(ctx context.Context, address string, itemID int) (rewards.StoreItem, *rewards.Summary, error) {
	if !util.IsValidAddress(address) {
		return rewards.StoreItem{}, nil, fmt.Errorf("%w: invalid address %q", ErrInvalidRequest, address)
	}
	address = util.NormalizeAddress(address)

	item, _, err := s.rewards.RedeemItem(ctx, address, itemID)
	if err != nil {
		return item, nil, err
	}
	summary, err := s.rewards.Summary(ctx, address, 0)
	if err != nil {
		return item, nil, err
	}
	return item, summary, nil
}

// Leaderboard returns the top entries of kind
func (s *CampaignService) Leaderboard(ctx context.Context, kind LeaderboardKind, limit int) (*Leaderboard, error) {
	board := &Leaderboard{Kind: kind}
	var err error

	switch kind {
	case LeaderboardDonors:
		board.Donors, err = s.rewards.TopDonors(ctx, limit)
		if board.Donors == nil {
			board.Donors = []models.DonorEntry{}
		}
	case LeaderboardRaisers:
		board.Raisers, err = s.rewards.TopRaisers(ctx, limit)
		if board.Raisers == nil {
			board.Raisers = []models.RaiserEntry{}
		}
	default:
		return nil, fmt.Errorf("%w: unknown leaderboard %q", ErrInvalidRequest, kind)
	}
	if err != nil {
		return nil, err
	}
	return board, nil
}

// Tiers lists the NeoPoints tiers
func (s *CampaignService) Tiers() []rewards.TierInfo {
	return rewards.Tiers
}

// Catalog lists the redemption store
func (s *CampaignService) Catalog() []rewards.StoreItem {
	return rewards.Catalog()
}

// Stats retrieves service statistics
func (s *CampaignService) Stats(ctx context.Context) (map[string]interface{}, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		logger.Warn("Serving stats without a campaign snapshot", zap.Error(err))
	}

	stats := map[string]interface{}{
		"campaigns": s.campaigns.Stats(s.now()),
	}
	if _, refreshedAt := s.campaigns.Loaded(); !refreshedAt.IsZero() {
		stats["refreshed_at"] = refreshedAt
	}

	if s.stats != nil {
		rewardStats, err := s.stats.GetStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load rewards stats: %w", err)
		}
		stats["rewards"] = rewardStats
	}
	return stats, nil
}

// HealthCheck performs health checks on all components
func (s *CampaignService) HealthCheck(ctx context.Context) map[string]bool {
	health := make(map[string]bool)

	if err := s.ledger.HealthCheck(ctx); err != nil {
		logger.Error("Crowdfunding contract health check failed", zap.Error(err))
		health["blockchain_client"] = false
	} else {
		health["blockchain_client"] = true
	}

	if err := s.content.HealthCheck(ctx); err != nil {
		logger.Error("Content store health check failed", zap.Error(err))
		health["content_store"] = false
	} else {
		health["content_store"] = true
	}

	loaded, _ := s.campaigns.Loaded()
	health["campaign_snapshot"] = loaded

	return health
}
