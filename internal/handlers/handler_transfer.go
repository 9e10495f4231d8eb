package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/dto"
	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
)

// PolicySource yields the transfer policy for one request.
type PolicySource func() domain.TransferPolicy

type transferHandler struct {
	transferService portssvc.TransferSvcFacade
	policy          PolicySource
}

func registerTransferRoutes(rg *gin.RouterGroup, transferService portssvc.TransferSvcFacade, policy PolicySource) {
	h := &transferHandler{transferService: transferService, policy: policy}

	transfers := rg.Group("/transfers")
	{
		transfers.POST("", h.submit)
		transfers.GET("/:transferID", h.status)
		transfers.POST("/:transferID/pin", h.verifyPin)
		transfers.POST("/:transferID/otp", h.verifyOtp)
		transfers.POST("/:transferID/otp/resend", h.resendOtp)
		transfers.POST("/:transferID/resume", h.resume)
		transfers.POST("/:transferID/cancel", h.cancel)
		transfers.POST("/:transferID/reverse", h.reverse)
	}
	rg.GET("/accounts/:accountID/transfers", h.listByAccount)
}

// respondTransfer answers a workflow step. A transfer returned next to a non-server error
// (wrong PIN, failed settlement) is included so the caller sees its new status.
func respondTransfer(c *gin.Context, logger *slog.Logger, t *domain.Transfer, err error, okStatus int, msg string) {
	if err == nil {
		logger.Info(msg, slog.String("transfer_id", t.TransferID), slog.String("status", string(t.Status)))
		c.JSON(okStatus, dto.ToTransferResponse(t))
		return
	}
	status := statusFor(err)
	if t == nil || status >= http.StatusInternalServerError {
		respondError(c, logger, err, "Failed to "+msg)
		return
	}
	logger.Warn("Transfer step rejected", slog.String("transfer_id", t.TransferID), slog.String("status", string(t.Status)), slog.String("error", err.Error()))
	body := errorBody(err)
	body["transfer"] = dto.ToTransferResponse(t)
	c.JSON(status, body)
}

// submit godoc
// @Summary Submit a transfer
// @Description Creates a PENDING transfer. Repeating a reference number returns the original transfer.
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transfer body dto.SubmitTransferRequest true "Transfer"
// @Success 201 {object} dto.TransferResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Unknown account"
// @Failure 422 {object} map[string]string "Business rule rejected the transfer"
// @Security BearerAuth
// @Router /transfers [post]
func (h *transferHandler) submit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SubmitTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err, "request format")
		return
	}
	logger = logger.With(slog.String("reference_number", req.ReferenceNumber), slog.String("type", req.Type))

	t, err := h.transferService.Submit(c.Request.Context(), req.ToDomain())
	respondTransfer(c, logger, t, err, http.StatusCreated, "submit transfer")
}

// status godoc
// @Summary Get a transfer
// @Tags transfers
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 404 {object} map[string]string "Transfer not found"
// @Security BearerAuth
// @Router /transfers/{transferID} [get]
func (h *transferHandler) status(c *gin.Context) {
	transferID := c.Param("transferID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("transfer_id", transferID))
	t, err := h.transferService.Status(c.Request.Context(), transferID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transfer")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransferResponse(t))
}

// verifyPin godoc
// @Summary Verify the owner's PIN
// @Description Moves the transfer to PIN_VERIFIED and issues an OTP
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Param   pin body dto.VerifyPinRequest true "PIN"
// @Success 200 {object} dto.TransferResponse
// @Failure 422 {object} map[string]string "Wrong PIN"
// @Failure 429 {object} map[string]string "Too many attempts, transfer failed"
// @Security BearerAuth
// @Router /transfers/{transferID}/pin [post]
func (h *transferHandler) verifyPin(c *gin.Context) {
	transferID := c.Param("transferID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("transfer_id", transferID))
	var req dto.VerifyPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid PIN payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be 4 to 6 digits"})
		return
	}

	t, err := h.transferService.VerifyPin(c.Request.Context(), transferID, req.Pin, h.policy())
	respondTransfer(c, logger, t, err, http.StatusOK, "verify PIN")
}

// resendOtp godoc
// @Summary Issue a fresh OTP
// @Tags transfers
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 409 {object} map[string]string "Transfer is not waiting for an OTP"
// @Security BearerAuth
// @Router /transfers/{transferID}/otp/resend [post]
func (h *transferHandler) resendOtp(c *gin.Context) {
	transferID := c.Param("transferID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("transfer_id", transferID))
	t, err := h.transferService.ResendOtp(c.Request.Context(), transferID, h.policy())
	respondTransfer(c, logger, t, err, http.StatusOK, "resend OTP")
}

// verifyOtp godoc
// @Summary Verify the OTP and settle
// @Description On success the transfer is COMPLETED. Business failures return the FAILED transfer.
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Param   otp body dto.VerifyOtpRequest true "OTP"
// @Success 200 {object} dto.TransferResponse
// @Failure 422 {object} map[string]string "Wrong or expired OTP, or settlement rejected"
// @Failure 429 {object} map[string]string "Too many attempts, transfer failed"
// @Security BearerAuth
// @Router /transfers/{transferID}/otp [post]
func (h *transferHandler) verifyOtp(c *gin.Context) {
	transferID := c.Param("transferID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("transfer_id", transferID))
	var req dto.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid OTP payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "OTP must be 6 digits"})
		return
	}

	t, err := h.transferService.VerifyOtp(c.Request.Context(), transferID, req.Code, h.policy())
	respondTransfer(c, logger, t, err, http.StatusOK, "verify OTP")
}

// resume godoc
// @Summary Re-drive a transfer stuck in PROCESSING
// @Tags transfers
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Security BearerAuth
// @Router /transfers/{transferID}/resume [post]
func (h *transferHandler) resume(c *gin.Context) {
	transferID := c.Param("transferID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("transfer_id", transferID))
	t, err := h.transferService.Resume(c.Request.Context(), transferID, h.policy())
	respondTransfer(c, logger, t, err, http.StatusOK, "resume transfer")
}

// cancel godoc
// @Summary Cancel a transfer before settlement
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Param   body body dto.ReasonRequest false "Reason"
// @Success 200 {object} dto.TransferResponse
// @Failure 409 {object} map[string]string "Transfer already settled"
// @Security BearerAuth
// @Router /transfers/{transferID}/cancel [post]
func (h *transferHandler) cancel(c *gin.Context) {
	h.withReason(c, "cancel transfer", h.transferService.Cancel)
}

// reverse godoc
// @Summary Reverse a completed transfer
// @Description Posts the mirror image of the settlement, fee included
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Param   body body dto.ReasonRequest false "Reason"
// @Success 200 {object} dto.TransferResponse
// @Failure 409 {object} map[string]string "Transfer is not completed"
// @Security BearerAuth
// @Router /transfers/{transferID}/reverse [post]
func (h *transferHandler) reverse(c *gin.Context) {
	h.withReason(c, "reverse transfer", h.transferService.Reverse)
}

func (h *transferHandler) withReason(c *gin.Context, msg string, fn func(ctx context.Context, transferID, reason string) (*domain.Transfer, error)) {
	transferID := c.Param("transferID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("transfer_id", transferID))
	var req dto.ReasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, logger, err, "request format")
			return
		}
	}
	t, err := fn(c.Request.Context(), transferID, req.Reason)
	respondTransfer(c, logger, t, err, http.StatusOK, msg)
}

// listByAccount godoc
// @Summary List transfers touching an account
// @Tags transfers
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   limit query int false "Max results" default(20)
// @Success 200 {array} dto.TransferResponse
// @Security BearerAuth
// @Router /accounts/{accountID}/transfers [get]
func (h *transferHandler) listByAccount(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))
	var params dto.ListTransfersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err, "query parameters")
		return
	}
	transfers, err := h.transferService.ListByAccount(c.Request.Context(), accountID, params.Limit)
	if err != nil {
		respondError(c, logger, err, "Failed to list transfers")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransferResponses(transfers))
}
