// file: model/request.go

package model

// CreateAccountRequest defines the payload for opening a new account.
type CreateAccountRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// TransferRequest defines the payload for moving funds between two accounts.
// Amount is in minor currency units.
type TransferRequest struct {
	DebitAccountID  int64 `json:"debit_account_id" validate:"required,gt=0"`
	CreditAccountID int64 `json:"credit_account_id" validate:"required,gt=0,nefield=DebitAccountID"`
	Amount          int64 `json:"amount" validate:"required,gt=0"`
}
