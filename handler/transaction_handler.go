package handler

import (
	"net/http"

	"go-ledger/common"
	"go-ledger/model"
	"go-ledger/service"
)

// TransactionHandler holds dependencies for transfer-related handlers.
type TransactionHandler struct {
	service *service.TransferService
}

// NewTransactionHandler creates a new TransactionHandler with its dependencies.
func NewTransactionHandler(s *service.TransferService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// CreateTransfer godoc
// @Summary      Transfer money between accounts
// @Description  Debits one account and credits another by the same amount in a single atomic unit of work.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transfer body model.TransferRequest true "Details of the transfer"
// @Success      201  {object}  model.Transaction
// @Failure      400  {object}  common.AppError "Invalid amount, same account or insufficient funds"
// @Failure      404  {object}  common.AppError "Debit or credit account not found"
// @Failure      409  {object}  common.AppError "Retries exhausted under contention"
// @Failure      500  {object}  common.AppError
// @Failure      504  {object}  common.AppError "Request deadline passed while retrying"
// @Router       /api/transfers [post]
func (h *TransactionHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.TransferRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	transaction, err := h.service.TransferFunds(r.Context(), req.DebitAccountID, req.CreditAccountID, req.Amount)
	if err != nil {
		return mapServiceError(err, "Could not process transfer")
	}

	common.WriteJSON(w, http.StatusCreated, transaction)
	return nil
}

// ListTransactionsForAccount godoc
// @Summary      List account transaction history
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "Account ID"
// @Success      200  {array}   model.Transaction
// @Failure      400  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts/{accountId}/transactions [get]
func (h *TransactionHandler) ListTransactionsForAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		return appErr
	}

	transactions, err := h.service.ListTransactions(r.Context(), accountID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve transactions")
	}

	common.WriteJSON(w, http.StatusOK, transactions)
	return nil
}
