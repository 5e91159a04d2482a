package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/aggregator"
	"github.com/yourusername/neoflow/campaign-service/internal/api/handlers"
	"github.com/yourusername/neoflow/campaign-service/internal/blockchain"
	"github.com/yourusername/neoflow/campaign-service/internal/cache"
	"github.com/yourusername/neoflow/campaign-service/internal/campaign"
	"github.com/yourusername/neoflow/campaign-service/internal/config"
	"github.com/yourusername/neoflow/campaign-service/internal/metrics"
	"github.com/yourusername/neoflow/campaign-service/internal/providers"
	"github.com/yourusername/neoflow/campaign-service/internal/repository"
	"github.com/yourusername/neoflow/campaign-service/internal/rewards"
	"github.com/yourusername/neoflow/campaign-service/internal/service"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

// demoCreator signs campaigns created against the in-memory ledger
const demoCreator = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

const cachePrefix = "neoflow:"

// Setup builds every component from cfg and registers the routes. The
// returned function releases connections and should run on shutdown.
func Setup(router *gin.Engine, cfg *config.Config) (*service.CampaignService, func()) {
	var closers []func()

	// Initialize database
	db, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	repo := repository.NewRewardsRepository(db)

	// Initialize components
	contentCache := initCache(cfg, &closers)
	content := providers.NewCachedContentStore(initContentStore(cfg), contentCache, cfg.MetadataCacheTTL)
	ledger := initLedger(cfg, &closers)

	campaigns := aggregator.NewCampaignAggregator(
		aggregator.NewOnChainAggregator(ledger, campaign.NewNormalizer()),
		aggregator.NewMetadataEnricher(content, cfg.MetadataFetchTimeout, cfg.MetadataConcurrency),
	)

	rewardsLedger := rewards.NewLedger(repo, rewards.WithObserver(func(award rewards.Award) {
		logger.Debug("Award committed",
			zap.String("address", award.Address),
			zap.String("tier", award.Tier),
		)
	}))

	campaignService := service.NewCampaignService(ledger, content, campaigns, rewardsLedger, repo)

	Register(router, campaignService, cfg.LeaderboardLimit)

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return campaignService, cleanup
}

// Register mounts the HTTP API of campaignService on router.
func Register(router *gin.Engine, campaignService *service.CampaignService, leaderboardLimit int) {
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	rewardsHandler := handlers.NewRewardsHandler(campaignService, leaderboardLimit)

	// Health check
	router.GET("/health", campaignHandler.HealthCheck)
	router.GET("/metrics", metrics.Handler())

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Campaign routes
		v1.GET("/campaigns", campaignHandler.GetCampaigns)
		v1.POST("/campaigns", campaignHandler.CreateCampaign)
		v1.POST("/campaigns/refresh", campaignHandler.RefreshCampaigns)
		v1.GET("/campaigns/:id", campaignHandler.GetCampaign)
		v1.POST("/campaigns/:id/contribute", campaignHandler.Contribute)
		v1.POST("/campaigns/:id/withdraw", campaignHandler.Withdraw)
		v1.GET("/creators/:address/campaigns", campaignHandler.GetCreatorCampaigns)
		v1.POST("/uploads/image", campaignHandler.UploadImage)

		// Rewards routes
		v1.GET("/rewards/tiers", rewardsHandler.GetTiers)
		v1.GET("/rewards/store", rewardsHandler.GetStore)
		v1.GET("/rewards/:address", rewardsHandler.GetRewards)
		v1.POST("/rewards/:address/redeem", rewardsHandler.Redeem)
		v1.POST("/rewards/:address/store/:itemId", rewardsHandler.RedeemItem)

		// Leaderboard routes
		v1.GET("/leaderboard/donors", rewardsHandler.GetDonorLeaderboard)
		v1.GET("/leaderboard/raisers", rewardsHandler.GetRaiserLeaderboard)

		// Admin routes
		admin := v1.Group("/admin")
		{
			admin.GET("/stats", campaignHandler.GetStats)
		}
	}
}

func initCache(cfg *config.Config, closers *[]func()) cache.Cache {
	if cfg.RedisURL == "" {
		logger.Info("No Redis URL configured, using in-memory content cache")
		return cache.NewInMemoryCache()
	}

	redisCache, err := cache.NewRedisCache(context.Background(), cfg.RedisURL, cachePrefix)
	if err != nil {
		logger.Error("Failed to connect to Redis, using in-memory content cache", zap.Error(err))
		return cache.NewInMemoryCache()
	}
	*closers = append(*closers, func() {
		if err := redisCache.Close(); err != nil {
			logger.Error("Failed to close Redis", zap.Error(err))
		}
	})

	logger.Info("Using Redis content cache")
	return redisCache
}

func initContentStore(cfg *config.Config) providers.ContentStore {
	if cfg.DemoMode() {
		logger.Warn("Pinata credentials not configured, IPFS uploads are simulated")
		return providers.NewMockContentStore(cfg.IPFSGateway)
	}
	return providers.NewPinataProvider(
		cfg.PinataBaseURL,
		cfg.IPFSGateway,
		cfg.PinataAPIKey,
		cfg.PinataSecretKey,
		cfg.MetadataFetchTimeout,
	)
}

func initLedger(cfg *config.Config, closers *[]func()) service.CampaignLedger {
	if cfg.UseMockData || cfg.EthereumRPC == "" || cfg.ContractAddress == "" {
		logger.Warn("Crowdfunding contract not configured, using in-memory ledger",
			zap.String("creator", demoCreator),
		)
		return blockchain.NewMockLedger(demoCreator)
	}

	client, err := blockchain.NewCrowdfundingClient(cfg.EthereumRPC, cfg.ContractAddress, cfg.PrivateKey)
	if err != nil {
		logger.Fatal("Failed to initialize crowdfunding client", zap.Error(err))
	}
	*closers = append(*closers, client.Close)

	if client.Signer() == "" {
		logger.Warn("No private key configured, contract writes are disabled")
	}
	return client
}
