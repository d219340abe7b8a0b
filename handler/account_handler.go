package handler

import (
	"net/http"
	"strconv"

	"go-ledger/common"
	"go-ledger/model"
	"go-ledger/service"
)

type AccountHandler struct {
	service *service.AccountService
}

func NewAccountHandler(service *service.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// CreateAccount godoc
// @Summary      Open an account
// @Description  Creates an account with a zero balance.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        account body model.CreateAccountRequest true "Account details"
// @Success      201  {object}  model.Account
// @Failure      400  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateAccountRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	account, err := h.service.CreateAccount(r.Context(), req.Name)
	if err != nil {
		return mapServiceError(err, "Could not create account")
	}

	common.WriteJSON(w, http.StatusCreated, account)
	return nil
}

// ListAccounts godoc
// @Summary      List account ids
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   integer
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	ids, err := h.service.ListAccountIDs(r.Context())
	if err != nil {
		return mapServiceError(err, "Could not retrieve accounts")
	}

	common.WriteJSON(w, http.StatusOK, ids)
	return nil
}

// GetBalance godoc
// @Summary      Get account balance
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "Account ID"
// @Success      200  {object}  model.Balance
// @Failure      400  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts/{accountId}/balance [get]
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		return appErr
	}

	balance, err := h.service.GetBalance(r.Context(), accountID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve balance")
	}

	common.WriteJSON(w, http.StatusOK, balance)
	return nil
}

func accountIDFromPath(r *http.Request) (int64, *common.AppError) {
	accountID, err := strconv.ParseInt(r.PathValue("accountId"), 10, 64)
	if err != nil || accountID <= 0 {
		return 0, common.NewAppError(http.StatusBadRequest, "Invalid account ID in URL path", err)
	}
	return accountID, nil
}
