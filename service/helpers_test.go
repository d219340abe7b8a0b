package service

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"go-ledger/db"
	"go-ledger/logger"
)

var (
	insertAccountSQL     = regexp.QuoteMeta(`INSERT INTO accounts (name) VALUES ($1) RETURNING account_id`)
	insertBalanceSQL     = regexp.QuoteMeta(`INSERT INTO balances (account_id, balance) VALUES ($1, 0)`)
	listAccountIDsSQL    = regexp.QuoteMeta(`SELECT account_id FROM accounts ORDER BY account_id`)
	accountExistsSQL     = regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM accounts WHERE account_id = $1)`)
	getBalanceSQL        = regexp.QuoteMeta(`SELECT account_id, balance FROM balances WHERE account_id = $1`) + `$`
	lockBalanceSQL       = regexp.QuoteMeta(`SELECT account_id, balance FROM balances WHERE account_id = $1 FOR UPDATE`)
	insertTransactionSQL = regexp.QuoteMeta(`INSERT INTO transactions (debit_account_id, credit_account_id, amount) VALUES ($1, $2, $3) RETURNING transaction_id, created_at`)
	updateBalanceSQL     = regexp.QuoteMeta(`UPDATE balances SET balance = $1 WHERE account_id = $2`)
)

func newMockManager(t *testing.T) (*db.Manager, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return db.NewManager(conn, logger.Discard()), mock
}

func balanceRow(accountID, balance int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"account_id", "balance"}).AddRow(accountID, balance)
}
