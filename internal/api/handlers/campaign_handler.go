package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/campaign"
	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/internal/service"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

// CampaignHandler handles campaign API requests
type CampaignHandler struct {
	service *service.CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(service *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		service: service,
	}
}

// ContributeRequest represents a contribution to a campaign
type ContributeRequest struct {
	Contributor string          `json:"contributor" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

type CampaignListResponse struct {
	Status    string                `json:"status"`
	Count     int                   `json:"count"`
	Campaigns []models.CampaignView `json:"campaigns"`
}

type TransactionResponse struct {
	Success    bool   `json:"success"`
	CampaignID string `json:"campaign_id"`
	TxHash     string `json:"tx_hash"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Hash    string `json:"hash"`
	URL     string `json:"url"`
}

// GetCampaigns lists campaigns
// @Summary List campaigns
// @Description List all campaigns, optionally filtered by derived status
// @Tags campaigns
// @Produce json
// @Param status query string false "active, successful, expired or inactive"
// @Success 200 {object} CampaignListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	filter := c.Query("status")

	var status models.CampaignStatus
	if filter != "" && filter != "all" {
		parsed, ok := campaign.ParseStatus(filter)
		if !ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid status",
				Message: "status must be one of active, successful, expired, inactive",
			})
			return
		}
		status = parsed
	}

	campaigns, err := h.service.ListCampaigns(c.Request.Context(), status)
	if err != nil {
		writeError(c, "Failed to retrieve campaigns", err)
		return
	}

	label := string(status)
	if label == "" {
		label = "all"
	}
	c.JSON(http.StatusOK, CampaignListResponse{
		Status:    label,
		Count:     len(campaigns),
		Campaigns: campaigns,
	})
}

// GetCampaign retrieves one campaign
// @Summary Get campaign
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign id"
// @Success 200 {object} models.CampaignView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := bindCampaignID(c)
	if !ok {
		return
	}

	view, err := h.service.GetCampaign(c.Request.Context(), id)
	if err != nil {
		writeError(c, "Campaign not found", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetCreatorCampaigns lists the campaigns of one creator
// @Summary List creator campaigns
// @Tags campaigns
// @Produce json
// @Param address path string true "Creator address"
// @Success 200 {object} CampaignListResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/creators/{address}/campaigns [get]
func (h *CampaignHandler) GetCreatorCampaigns(c *gin.Context) {
	address, ok := bindAddress(c)
	if !ok {
		return
	}

	campaigns, err := h.service.ListCampaignsByCreator(c.Request.Context(), address)
	if err != nil {
		writeError(c, "Failed to retrieve creator campaigns", err)
		return
	}

	c.JSON(http.StatusOK, CampaignListResponse{
		Status:    "all",
		Count:     len(campaigns),
		Campaigns: campaigns,
	})
}

// CreateCampaign pins metadata and creates a campaign on chain
// @Summary Create campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Param request body service.CreateCampaignRequest true "Campaign"
// @Success 201 {object} service.CreateCampaignResult
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req service.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.CreateCampaign(c.Request.Context(), req)
	if err != nil {
		writeError(c, "Failed to create campaign", err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Contribute funds a campaign and awards NeoPoints
// @Summary Contribute to campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign id"
// @Param request body ContributeRequest true "Contribution"
// @Success 200 {object} service.ContributionResult
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/campaigns/{id}/contribute [post]
func (h *CampaignHandler) Contribute(c *gin.Context) {
	id, ok := bindCampaignID(c)
	if !ok {
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.Contribute(c.Request.Context(), id, req.Contributor, req.Amount)
	if err != nil {
		writeError(c, "Contribution failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Withdraw releases raised funds to the creator
// @Summary Withdraw funds
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign id"
// @Success 200 {object} TransactionResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/campaigns/{id}/withdraw [post]
func (h *CampaignHandler) Withdraw(c *gin.Context) {
	id, ok := bindCampaignID(c)
	if !ok {
		return
	}

	txHash, err := h.service.Withdraw(c.Request.Context(), id)
	if err != nil {
		writeError(c, "Withdrawal failed", err)
		return
	}

	c.JSON(http.StatusOK, TransactionResponse{
		Success:    true,
		CampaignID: id,
		TxHash:     txHash,
	})
}

// RefreshCampaigns rebuilds the campaign snapshot
// @Summary Refresh campaigns
// @Tags campaigns
// @Produce json
// @Success 200 {object} CampaignListResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/campaigns/refresh [post]
func (h *CampaignHandler) RefreshCampaigns(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		logger.Error("Failed to refresh campaigns", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Failed to refresh campaigns",
			Message: err.Error(),
		})
		return
	}

	campaigns, err := h.service.ListCampaigns(c.Request.Context(), "")
	if err != nil {
		writeError(c, "Failed to retrieve campaigns", err)
		return
	}

	c.JSON(http.StatusOK, CampaignListResponse{
		Status:    "all",
		Count:     len(campaigns),
		Campaigns: campaigns,
	})
}

// UploadImage pins a campaign image
// @Summary Upload campaign image
// @Tags campaigns
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/uploads/image [post]
func (h *CampaignHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()

	hash, url, err := h.service.UploadImage(c.Request.Context(), header.Filename, file)
	if err != nil {
		writeError(c, "Failed to upload image", err)
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Success: true,
		Hash:    hash,
		URL:     url,
	})
}

// GetStats retrieves service statistics
// @Summary Get service statistics
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/stats [get]
func (h *CampaignHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to retrieve statistics",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HealthCheck performs health checks
// @Summary Health check
// @Description Check health of all campaign service components
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *CampaignHandler) HealthCheck(c *gin.Context) {
	health := h.service.HealthCheck(c.Request.Context())

	allHealthy := true
	for _, v := range health {
		if !v {
			allHealthy = false
			break
		}
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, HealthResponse{
		Status:     map[bool]string{true: "healthy", false: "unhealthy"}[allHealthy],
		Components: health,
	})
}
