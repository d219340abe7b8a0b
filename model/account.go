package model

type Account struct {
	ID   int64  `json:"account_id"`
	Name string `json:"name"`
}

// Balance is the running balance of one account, in minor currency units.
type Balance struct {
	AccountID int64 `json:"account_id"`
	Balance   int64 `json:"balance"`
}
