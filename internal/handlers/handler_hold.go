package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/dto"
	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
)

type holdHandler struct {
	accountService portssvc.AccountFundsSvc
	holdService    portssvc.HoldSvcFacade
	sweepBatchSize int
}

func registerHoldRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, sweepBatchSize int) {
	h := &holdHandler{accountService: services.Account, holdService: services.Hold, sweepBatchSize: sweepBatchSize}

	rg.POST("/accounts/:accountID/holds", h.placeHold)
	rg.GET("/accounts/:accountID/holds", h.listHolds)

	holds := rg.Group("/holds")
	{
		holds.GET("/:holdID", h.getHold)
		holds.POST("/:holdID/release", h.releaseHold)
		holds.POST("/:holdID/forfeit", h.forfeitHold)
		holds.POST("/sweep", h.sweep)
	}
}

// placeHold godoc
// @Summary Reserve funds
// @Description Places a hold after checking available funds under the account lock
// @Tags holds
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   hold body dto.PlaceHoldRequest true "Hold"
// @Success 201 {object} dto.HoldResponse
// @Failure 422 {object} map[string]string "Insufficient available funds"
// @Security BearerAuth
// @Router /accounts/{accountID}/holds [post]
func (h *holdHandler) placeHold(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))
	var req dto.PlaceHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err, "request format")
		return
	}

	hold, err := h.accountService.Reserve(c.Request.Context(), req.ToParams(accountID))
	if err != nil {
		respondError(c, logger, err, "Failed to place hold")
		return
	}
	logger.Info("Hold placed", slog.String("hold_id", hold.HoldID))
	c.JSON(http.StatusCreated, dto.ToHoldResponse(hold))
}

// listHolds godoc
// @Summary List active holds of an account
// @Tags holds
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {array} dto.HoldResponse
// @Security BearerAuth
// @Router /accounts/{accountID}/holds [get]
func (h *holdHandler) listHolds(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))
	holds, err := h.holdService.ListActiveHolds(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to list holds")
		return
	}
	c.JSON(http.StatusOK, dto.ToHoldResponses(holds))
}

// getHold godoc
// @Summary Get a hold
// @Tags holds
// @Produce  json
// @Param   holdID path string true "Hold ID"
// @Success 200 {object} dto.HoldResponse
// @Failure 404 {object} map[string]string "Hold not found"
// @Security BearerAuth
// @Router /holds/{holdID} [get]
func (h *holdHandler) getHold(c *gin.Context) {
	holdID := c.Param("holdID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("hold_id", holdID))
	hold, err := h.holdService.GetHold(c.Request.Context(), holdID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve hold")
		return
	}
	c.JSON(http.StatusOK, dto.ToHoldResponse(hold))
}

// releaseHold godoc
// @Summary Release a hold
// @Description Releasing an already released hold is a no-op
// @Tags holds
// @Produce  json
// @Param   holdID path string true "Hold ID"
// @Success 200 {object} dto.HoldResponse
// @Failure 409 {object} map[string]string "Hold was forfeited"
// @Security BearerAuth
// @Router /holds/{holdID}/release [post]
func (h *holdHandler) releaseHold(c *gin.Context) {
	holdID := c.Param("holdID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("hold_id", holdID))
	hold, err := h.accountService.Release(c.Request.Context(), holdID)
	if err != nil {
		respondError(c, logger, err, "Failed to release hold")
		return
	}
	c.JSON(http.StatusOK, dto.ToHoldResponse(hold))
}

// forfeitHold godoc
// @Summary Forfeit a check hold
// @Description Reverses the provisional credit behind the hold, e.g. for a bounced check
// @Tags holds
// @Accept  json
// @Produce  json
// @Param   holdID path string true "Hold ID"
// @Param   body body dto.ForfeitHoldRequest true "Reason"
// @Success 200 {object} dto.HoldResponse
// @Security BearerAuth
// @Router /holds/{holdID}/forfeit [post]
func (h *holdHandler) forfeitHold(c *gin.Context) {
	holdID := c.Param("holdID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("hold_id", holdID))
	var req dto.ForfeitHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err, "request format")
		return
	}
	hold, err := h.holdService.ForfeitHold(c.Request.Context(), holdID, req.Reason)
	if err != nil {
		respondError(c, logger, err, "Failed to forfeit hold")
		return
	}
	logger.Info("Hold forfeited", slog.String("forfeit_group_id", hold.ForfeitGroupID))
	c.JSON(http.StatusOK, dto.ToHoldResponse(hold))
}

// sweep godoc
// @Summary Release expired holds
// @Tags holds
// @Accept  json
// @Produce  json
// @Param   body body dto.SweepHoldsRequest false "Batch size"
// @Success 200 {object} dto.SweepHoldsResponse
// @Security BearerAuth
// @Router /holds/sweep [post]
func (h *holdHandler) sweep(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SweepHoldsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, logger, err, "request format")
			return
		}
	}
	limit := req.Limit
	if limit == 0 {
		limit = h.sweepBatchSize
	}
	released, err := h.holdService.SweepExpired(c.Request.Context(), limit)
	if err != nil {
		respondError(c, logger, err, "Failed to sweep holds")
		return
	}
	logger.Info("Expired holds swept", slog.Int("released", released))
	c.JSON(http.StatusOK, dto.SweepHoldsResponse{Released: released})
}
