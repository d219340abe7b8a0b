package repository

import (
	"context"

	"github.com/sirupsen/logrus"

	"go-ledger/db"
	"go-ledger/model"
)

// ITransactionRepository defines the contract for transaction log operations.
type ITransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *db.Tx, transaction *model.Transaction) error
	GetTransactionsByAccountID(ctx context.Context, tx *db.Tx, accountID int64) ([]*model.Transaction, error)
}

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	log logrus.FieldLogger
}

func NewTransactionRepository(log logrus.FieldLogger) *TransactionRepository {
	return &TransactionRepository{log: log}
}

func (r *TransactionRepository) CreateTransaction(ctx context.Context, tx *db.Tx, transaction *model.Transaction) error {
	query := `INSERT INTO transactions (debit_account_id, credit_account_id, amount) VALUES ($1, $2, $3) RETURNING transaction_id, created_at`
	err := tx.QueryRowContext(ctx, query, transaction.DebitAccountID, transaction.CreditAccountID, transaction.Amount).
		Scan(&transaction.ID, &transaction.CreatedAt)
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"debit_account_id":  transaction.DebitAccountID,
			"credit_account_id": transaction.CreditAccountID,
			"amount":            transaction.Amount,
		}).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

// GetTransactionsByAccountID returns every transfer the account took part in, newest first.
func (r *TransactionRepository) GetTransactionsByAccountID(ctx context.Context, tx *db.Tx, accountID int64) ([]*model.Transaction, error) {
	query := `
		SELECT transaction_id, debit_account_id, credit_account_id, amount, created_at
		FROM transactions
		WHERE debit_account_id = $1 OR credit_account_id = $1
		ORDER BY transaction_id DESC`

	rows, err := tx.QueryContext(ctx, query, accountID)
	if err != nil {
		r.log.WithError(err).WithField("account_id", accountID).Error("Failed to execute query for transactions by account ID")
		return nil, err
	}
	defer rows.Close()

	transactions := []*model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.DebitAccountID, &t.CreditAccountID, &t.Amount, &t.CreatedAt); err != nil {
			r.log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}
