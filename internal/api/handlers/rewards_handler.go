package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/neoflow/campaign-service/internal/rewards"
	"github.com/yourusername/neoflow/campaign-service/internal/service"
)

// RewardsHandler handles NeoPoints and leaderboard requests
type RewardsHandler struct {
	service          *service.CampaignService
	leaderboardLimit int
}

// NewRewardsHandler creates a new rewards handler. leaderboardLimit is the
// page size used when a request does not set one.
func NewRewardsHandler(service *service.CampaignService, leaderboardLimit int) *RewardsHandler {
	return &RewardsHandler{
		service:          service,
		leaderboardLimit: leaderboardLimit,
	}
}

// RedeemRequest represents a free form points redemption
type RedeemRequest struct {
	Points      int64  `json:"points" binding:"required"`
	Description string `json:"description"`
}

type StoreItemRequest struct {
	Address string `uri:"address" binding:"required"`
	ItemID  int    `uri:"itemId" binding:"required"`
}

type RedeemResponse struct {
	Success bool               `json:"success"`
	Item    *rewards.StoreItem `json:"item,omitempty"`
	Rewards *rewards.Summary   `json:"rewards"`
}

// GetTiers lists the NeoPoints tiers
// @Summary List tiers
// @Tags rewards
// @Produce json
// @Success 200 {array} rewards.TierInfo
// @Router /api/v1/rewards/tiers [get]
func (h *RewardsHandler) GetTiers(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Tiers())
}

// GetStore lists the redemption catalog
// @Summary List store items
// @Tags rewards
// @Produce json
// @Success 200 {array} rewards.StoreItem
// @Router /api/v1/rewards/store [get]
func (h *RewardsHandler) GetStore(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Catalog())
}

// GetRewards retrieves the NeoPoints summary of an address
// @Summary Get rewards
// @Tags rewards
// @Produce json
// @Param address path string true "Account address"
// @Param limit query int false "Recent transactions" default(10)
// @Success 200 {object} rewards.Summary
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/rewards/{address} [get]
func (h *RewardsHandler) GetRewards(c *gin.Context) {
	address, ok := bindAddress(c)
	if !ok {
		return
	}

	summary, err := h.service.RewardsSummary(c.Request.Context(), address, parseLimit(c, defaultLimit))
	if err != nil {
		writeError(c, "Failed to retrieve rewards", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Redeem spends NeoPoints
// @Summary Redeem points
// @Tags rewards
// @Accept json
// @Produce json
// @Param address path string true "Account address"
// @Param request body RedeemRequest true "Redemption"
// @Success 200 {object} RedeemResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/rewards/{address}/redeem [post]
func (h *RewardsHandler) Redeem(c *gin.Context) {
	address, ok := bindAddress(c)
	if !ok {
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	summary, err := h.service.Redeem(c.Request.Context(), address, req.Points, req.Description)
	if err != nil {
		writeError(c, "Redemption failed", err)
		return
	}

	c.JSON(http.StatusOK, RedeemResponse{Success: true, Rewards: summary})
}

// RedeemItem buys a catalog item with NeoPoints
// @Summary Redeem store item
// @Tags rewards
// @Produce json
// @Param address path string true "Account address"
// @Param itemId path int true "Store item id"
// @Success 200 {object} RedeemResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/rewards/{address}/store/{itemId} [post]
func (h *RewardsHandler) RedeemItem(c *gin.Context) {
	address, ok := bindAddress(c)
	if !ok {
		return
	}

	var req StoreItemRequest
	if err := c.ShouldBindUri(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, summary, err := h.service.RedeemItem(c.Request.Context(), address, req.ItemID)
	if err != nil {
		writeError(c, "Redemption failed", err)
		return
	}

	c.JSON(http.StatusOK, RedeemResponse{Success: true, Item: &item, Rewards: summary})
}

// GetDonorLeaderboard lists the top donors
// @Summary Donor leaderboard
// @Tags leaderboard
// @Produce json
// @Param limit query int false "Entries" default(10)
// @Success 200 {object} service.Leaderboard
// @Router /api/v1/leaderboard/donors [get]
func (h *RewardsHandler) GetDonorLeaderboard(c *gin.Context) {
	h.leaderboard(c, service.LeaderboardDonors)
}

// GetRaiserLeaderboard lists the top fundraisers
// @Summary Raiser leaderboard
// @Tags leaderboard
// @Produce json
// @Param limit query int false "Entries" default(10)
// @Success 200 {object} service.Leaderboard
// @Router /api/v1/leaderboard/raisers [get]
func (h *RewardsHandler) GetRaiserLeaderboard(c *gin.Context) {
	h.leaderboard(c, service.LeaderboardRaisers)
}

func (h *RewardsHandler) leaderboard(c *gin.Context, kind service.LeaderboardKind) {
	board, err := h.service.Leaderboard(c.Request.Context(), kind, parseLimit(c, h.leaderboardLimit))
	if err != nil {
		writeError(c, "Failed to retrieve leaderboard", err)
		return
	}
	c.JSON(http.StatusOK, board)
}
