package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/blockchain"
	"github.com/yourusername/neoflow/campaign-service/internal/rewards"
	"github.com/yourusername/neoflow/campaign-service/internal/service"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Response types

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components"`
}

type AddressRequest struct {
	Address string `uri:"address" binding:"required"`
}

type CampaignIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

func badRequest(c *gin.Context, err error) {
	logger.Error("Invalid request", zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request",
		Message: err.Error(),
	})
}

// bindAddress binds the :address path parameter and rejects anything that
// is not a hex account address.
func bindAddress(c *gin.Context) (string, bool) {
	var req AddressRequest
	if err := c.ShouldBindUri(&req); err != nil {
		badRequest(c, err)
		return "", false
	}
	if !common.IsHexAddress(req.Address) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid address",
			Message: "address must be a 0x-prefixed 20 byte hex string",
		})
		return "", false
	}
	return req.Address, true
}

func bindCampaignID(c *gin.Context) (string, bool) {
	var req CampaignIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		badRequest(c, err)
		return "", false
	}
	return req.ID, true
}

func parseLimit(c *gin.Context, fallback int) int {
	if fallback < 1 || fallback > maxLimit {
		fallback = defaultLimit
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit < 1 || limit > maxLimit {
		return fallback
	}
	return limit
}

// statusFor maps service, contract and ledger errors onto HTTP statuses.
func statusFor(err error) int {
	var contractErr *blockchain.ContractError
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, blockchain.ErrInvalidCampaignID),
		errors.Is(err, rewards.ErrInvalidPoints),
		errors.Is(err, rewards.ErrInvalidAmount),
		errors.Is(err, rewards.ErrMissingAddress):
		return http.StatusBadRequest
	case errors.Is(err, blockchain.ErrCampaignNotFound),
		errors.Is(err, rewards.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, rewards.ErrInsufficientPoints):
		return http.StatusConflict
	case errors.Is(err, blockchain.ErrReadOnly):
		return http.StatusServiceUnavailable
	case errors.Is(err, blockchain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.As(err, &contractErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError responds with the status for err. Contract failures carry the
// parsed reason so clients can tell a revert from a wallet rejection.
func writeError(c *gin.Context, title string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(title, zap.Error(err))
	} else {
		logger.Warn(title, zap.Error(err))
	}

	message := err.Error()
	var contractErr *blockchain.ContractError
	if errors.As(err, &contractErr) {
		message = blockchain.ParseContractError(err)
	}

	c.JSON(status, ErrorResponse{
		Error:   title,
		Message: message,
	})
}
