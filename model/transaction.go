package model

import (
	"time"
)

// Transaction is an append-only record of one committed transfer.
type Transaction struct {
	ID              int64     `json:"transaction_id"`
	DebitAccountID  int64     `json:"debit_account_id"`
	CreditAccountID int64     `json:"credit_account_id"`
	Amount          int64     `json:"amount"`
	CreatedAt       time.Time `json:"created_at"`
}
