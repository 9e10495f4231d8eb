package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/dto"
	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
)

type ledgerHandler struct {
	ledgerService portssvc.LedgerReaderSvc
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerReaderSvc) {
	h := &ledgerHandler{ledgerService: ledgerService}

	rg.GET("/ledger/postings/:groupID", h.getPosting)
	rg.GET("/accounts/:accountID/entries", h.listEntries)
	rg.GET("/accounts/:accountID/reconciliation", h.reconcile)
}

// getPosting godoc
// @Summary Get a posting group
// @Tags ledger
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.PostingResponse
// @Failure 404 {object} map[string]string "Posting not found"
// @Security BearerAuth
// @Router /ledger/postings/{groupID} [get]
func (h *ledgerHandler) getPosting(c *gin.Context) {
	groupID := c.Param("groupID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("group_id", groupID))
	posting, err := h.ledgerService.GetPosting(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve posting")
		return
	}
	c.JSON(http.StatusOK, dto.ToPostingResponse(posting))
}

// listEntries godoc
// @Summary List ledger entries of an account
// @Description Newest first, paged with an opaque token
// @Tags ledger
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /accounts/{accountID}/entries [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err, "query parameters")
		return
	}

	entries, next, err := h.ledgerService.ListEntries(c.Request.Context(), accountID, params.Limit, params.NextToken)
	if err != nil {
		respondError(c, logger, err, "Failed to list entries")
		return
	}
	c.JSON(http.StatusOK, dto.ListEntriesResponse{Entries: dto.ToLedgerEntryResponses(entries), NextToken: next})
}

// reconcile godoc
// @Summary Recompute an account balance from its entries
// @Tags ledger
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} domain.Reconciliation
// @Security BearerAuth
// @Router /accounts/{accountID}/reconciliation [get]
func (h *ledgerHandler) reconcile(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))
	rec, err := h.ledgerService.Reconcile(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile account")
		return
	}
	if !rec.Consistent {
		logger.Error("Stored balance disagrees with entries", slog.Int64("stored", rec.StoredBalance), slog.Int64("entries", rec.EntryBalance))
	}
	c.JSON(http.StatusOK, rec)
}
