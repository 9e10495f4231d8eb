package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/dto"
	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService  portssvc.AccountSvcFacade
	ledgerService   portssvc.LedgerReaderSvc
	holdService     portssvc.HoldSvcFacade
	checkHoldPeriod time.Duration
}

type (
	statusChange func(ctx context.Context, accountID, actorID string) (*domain.Account, error)
	cashMove     func(ctx context.Context, movement domain.CashMovement) (*domain.Posting, error)
)

// newAccountHandler creates a new accountHandler.
func newAccountHandler(services *portssvc.ServiceContainer, checkHoldPeriod time.Duration) *accountHandler {
	return &accountHandler{
		accountService:  services.Account,
		ledgerService:   services.Ledger,
		holdService:     services.Hold,
		checkHoldPeriod: checkHoldPeriod,
	}
}

// registerAccountRoutes registers routes related to accounts and owners.
func registerAccountRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, checkHoldPeriod time.Duration) {
	h := newAccountHandler(services, checkHoldPeriod)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.openAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountID", h.getAccount)
		accounts.GET("/:accountID/balance", h.getBalance)
		accounts.POST("/:accountID/freeze", h.freeze)
		accounts.POST("/:accountID/unfreeze", h.unfreeze)
		accounts.POST("/:accountID/close", h.close)
		accounts.POST("/:accountID/deposits", h.deposit)
		accounts.POST("/:accountID/withdrawals", h.withdraw)
		accounts.POST("/:accountID/check-deposits", h.depositCheck)
	}
	rg.PUT("/owners/:ownerID/pin", h.setPin)
}

// actor returns the authenticated caller, answering 401 when there is none.
func actor(c *gin.Context, logger *slog.Logger) (string, bool) {
	actorID, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return actorID, ok
}

// openAccount godoc
// @Summary Open a customer account
// @Description Opens an ACTIVE account with a zero balance
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.OpenAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Account ID already taken"
// @Failure 500 {object} map[string]string "Failed to open account"
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) openAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err, "request format")
		return
	}
	actorID, ok := actor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("owner_id", req.OwnerID), slog.String("currency", req.Currency))
	acc, err := h.accountService.OpenAccount(c.Request.Context(), req.ToParams(actorID))
	if err != nil {
		respondError(c, logger, err, "Failed to open account")
		return
	}

	logger.Info("Account opened", slog.String("account_id", acc.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(acc))
}

// listAccounts godoc
// @Summary List accounts of an owner
// @Tags accounts
// @Produce  json
// @Param   ownerID query string true "Owner ID"
// @Success 200 {array} dto.AccountResponse
// @Failure 400 {object} map[string]string "Missing owner"
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err, "query parameters")
		return
	}

	accounts, err := h.accountService.ListAccountsByOwner(c.Request.Context(), params.OwnerID)
	if err != nil {
		respondError(c, logger, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ToListAccountResponse(accounts))
}

// getAccount godoc
// @Summary Get an account by ID
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/{accountID} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", c.Param("accountID")))
	acc, err := h.accountService.GetAccount(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// getBalance godoc
// @Summary Get raw and available balance
// @Description Available is the balance minus holds still in effect
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/{accountID}/balance [get]
func (h *accountHandler) getBalance(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	balance, err := h.accountService.Balance(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to read balance")
		return
	}
	available, err := h.accountService.CurrentAvailable(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to read available balance")
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountID:      accountID,
		Currency:       string(balance.Currency),
		BalanceMinor:   balance.Amount,
		AvailableMinor: available.Amount,
	})
}

// freeze godoc
// @Summary Freeze an account
// @Description A frozen account accepts credits but no debits
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 409 {object} map[string]string "Invalid status transition"
// @Security BearerAuth
// @Router /accounts/{accountID}/freeze [post]
func (h *accountHandler) freeze(c *gin.Context) {
	h.changeStatus(c, "freeze", h.accountService.Freeze)
}

// unfreeze godoc
// @Summary Unfreeze an account
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 409 {object} map[string]string "Invalid status transition"
// @Security BearerAuth
// @Router /accounts/{accountID}/unfreeze [post]
func (h *accountHandler) unfreeze(c *gin.Context) {
	h.changeStatus(c, "unfreeze", h.accountService.Unfreeze)
}

// close godoc
// @Summary Close an account
// @Description Closed accounts reject every posting and cannot be reopened
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 409 {object} map[string]string "Invalid status transition"
// @Security BearerAuth
// @Router /accounts/{accountID}/close [post]
func (h *accountHandler) close(c *gin.Context) {
	h.changeStatus(c, "close", h.accountService.Close)
}

func (h *accountHandler) changeStatus(c *gin.Context, action string, fn statusChange) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID), slog.String("action", action))
	actorID, ok := actor(c, logger)
	if !ok {
		return
	}
	acc, err := fn(c.Request.Context(), accountID, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to "+action+" account")
		return
	}
	logger.Info("Account status changed", slog.String("status", string(acc.Status)))
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// deposit godoc
// @Summary Deposit cash
// @Description Credits the account against the deposit clearing account. Repeating a reference replays the original posting.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   movement body dto.CashMovementRequest true "Deposit"
// @Success 201 {object} dto.PostingResponse
// @Success 200 {object} dto.PostingResponse "Replayed"
// @Failure 422 {object} map[string]string "Business rule rejected the deposit"
// @Security BearerAuth
// @Router /accounts/{accountID}/deposits [post]
func (h *accountHandler) deposit(c *gin.Context) {
	h.moveCash(c, "deposit", h.accountService.Deposit)
}

// withdraw godoc
// @Summary Withdraw cash
// @Description Debits the account, respecting holds. Repeating a reference replays the original posting.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   movement body dto.CashMovementRequest true "Withdrawal"
// @Success 201 {object} dto.PostingResponse
// @Success 200 {object} dto.PostingResponse "Replayed"
// @Failure 422 {object} map[string]string "Insufficient available funds"
// @Security BearerAuth
// @Router /accounts/{accountID}/withdrawals [post]
func (h *accountHandler) withdraw(c *gin.Context) {
	h.moveCash(c, "withdraw", h.accountService.Withdraw)
}

func (h *accountHandler) moveCash(c *gin.Context, action string, fn cashMove) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID), slog.String("action", action))
	var req dto.CashMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err, "request format")
		return
	}

	posting, err := fn(c.Request.Context(), req.ToDomain(accountID))
	if err != nil {
		respondError(c, logger, err, "Failed to "+action)
		return
	}
	status := http.StatusCreated
	if posting.Replayed {
		status = http.StatusOK
	}
	logger.Info("Cash movement posted", slog.String("group_id", posting.GroupID), slog.Bool("replayed", posting.Replayed))
	c.JSON(status, dto.ToPostingResponse(posting))
}

// depositCheck godoc
// @Summary Deposit a check
// @Description Credits the account provisionally and holds the amount until the check clears
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   movement body dto.CashMovementRequest true "Check deposit"
// @Success 201 {object} dto.HoldResponse
// @Security BearerAuth
// @Router /accounts/{accountID}/check-deposits [post]
func (h *accountHandler) depositCheck(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))
	var req dto.CashMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err, "request format")
		return
	}

	hold, err := h.holdService.DepositCheck(c.Request.Context(), req.ToDomain(accountID), h.checkHoldPeriod)
	if err != nil {
		respondError(c, logger, err, "Failed to deposit check")
		return
	}
	logger.Info("Check deposited", slog.String("hold_id", hold.HoldID))
	c.JSON(http.StatusCreated, dto.ToHoldResponse(hold))
}

// setPin godoc
// @Summary Set the transfer PIN of an owner
// @Tags owners
// @Accept  json
// @Param   ownerID path string true "Owner ID"
// @Param   pin body dto.SetPinRequest true "PIN"
// @Success 204
// @Failure 400 {object} map[string]string "PIN must be 4 to 6 digits"
// @Failure 403 {object} map[string]string "Only the owner may set their PIN"
// @Security BearerAuth
// @Router /owners/{ownerID}/pin [put]
func (h *accountHandler) setPin(c *gin.Context) {
	ownerID := c.Param("ownerID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("owner_id", ownerID))
	actorID, ok := actor(c, logger)
	if !ok {
		return
	}
	// a PIN authorises transfers, so staff cannot choose one for a customer
	if actorID != ownerID {
		respondError(c, logger, fmt.Errorf("%w: the PIN of %s can only be set by its owner", apperrors.ErrForbidden, ownerID), "Failed to set PIN")
		return
	}
	var req dto.SetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// the body holds a secret, so the binding error is not echoed
		logger.Warn("Invalid PIN payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be 4 to 6 digits"})
		return
	}
	if err := h.accountService.SetPin(c.Request.Context(), ownerID, req.Pin); err != nil {
		respondError(c, logger, err, "Failed to set PIN")
		return
	}
	logger.Info("PIN updated")
	c.Status(http.StatusNoContent)
}
