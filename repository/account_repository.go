package repository

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"go-ledger/db"
	"go-ledger/model"
)

// IAccountRepository defines the contract for account and balance database operations.
type IAccountRepository interface {
	CreateAccount(ctx context.Context, tx *db.Tx, account *model.Account) error
	CreateBalance(ctx context.Context, tx *db.Tx, accountID int64) error
	ListAccountIDs(ctx context.Context, tx *db.Tx) ([]int64, error)
	AccountExists(ctx context.Context, tx *db.Tx, accountID int64) (bool, error)
	GetBalance(ctx context.Context, tx *db.Tx, accountID int64) (*model.Balance, error)
	GetBalanceForUpdate(ctx context.Context, tx *db.Tx, accountID int64) (*model.Balance, error)
	UpdateBalance(ctx context.Context, tx *db.Tx, accountID int64, newBalance int64) error
}

// AccountRepository implements IAccountRepository.
type AccountRepository struct {
	log logrus.FieldLogger
}

func NewAccountRepository(log logrus.FieldLogger) *AccountRepository {
	return &AccountRepository{log: log}
}

// CreateAccount inserts a new account and fills in the generated identifier.
func (r *AccountRepository) CreateAccount(ctx context.Context, tx *db.Tx, account *model.Account) error {
	query := `INSERT INTO accounts (name) VALUES ($1) RETURNING account_id`
	if err := tx.QueryRowContext(ctx, query, account.Name).Scan(&account.ID); err != nil {
		r.log.WithError(err).WithField("name", account.Name).Error("Failed to execute create account query")
		return err
	}
	return nil
}

// CreateBalance adds the zero balance row for a freshly created account.
func (r *AccountRepository) CreateBalance(ctx context.Context, tx *db.Tx, accountID int64) error {
	query := `INSERT INTO balances (account_id, balance) VALUES ($1, 0)`
	if _, err := tx.ExecContext(ctx, query, accountID); err != nil {
		r.log.WithError(err).WithField("account_id", accountID).Error("Failed to execute create balance query")
		return err
	}
	return nil
}

func (r *AccountRepository) ListAccountIDs(ctx context.Context, tx *db.Tx) ([]int64, error) {
	query := `SELECT account_id FROM accounts ORDER BY account_id`
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		r.log.WithError(err).Error("Failed to execute query for account ids")
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			r.log.WithError(err).Error("Failed to scan account id row")
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *AccountRepository) AccountExists(ctx context.Context, tx *db.Tx, accountID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_id = $1)`
	if err := tx.QueryRowContext(ctx, query, accountID).Scan(&exists); err != nil {
		r.log.WithError(err).WithField("account_id", accountID).Error("Failed to execute account exists query")
		return false, err
	}
	return exists, nil
}

// GetBalance reads a balance without locking it. Returns sql.ErrNoRows if the
// account does not exist.
func (r *AccountRepository) GetBalance(ctx context.Context, tx *db.Tx, accountID int64) (*model.Balance, error) {
	query := `SELECT account_id, balance FROM balances WHERE account_id = $1`
	return r.scanBalance(tx.QueryRowContext(ctx, query, accountID), accountID)
}

// GetBalanceForUpdate reads a balance and holds an exclusive row lock on it
// until the surrounding transaction ends. Returns sql.ErrNoRows if the account
// does not exist.
func (r *AccountRepository) GetBalanceForUpdate(ctx context.Context, tx *db.Tx, accountID int64) (*model.Balance, error) {
	query := `SELECT account_id, balance FROM balances WHERE account_id = $1 FOR UPDATE`
	return r.scanBalance(tx.QueryRowContext(ctx, query, accountID), accountID)
}

func (r *AccountRepository) scanBalance(row *sql.Row, accountID int64) (*model.Balance, error) {
	balance := &model.Balance{}
	if err := row.Scan(&balance.AccountID, &balance.Balance); err != nil {
		log := r.log.WithField("account_id", accountID)
		if err == sql.ErrNoRows {
			log.Info("Balance not found")
		} else {
			log.WithError(err).Error("Failed to execute get balance query")
		}
		return nil, err
	}
	return balance, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *db.Tx, accountID int64, newBalance int64) error {
	query := `UPDATE balances SET balance = $1 WHERE account_id = $2`
	if _, err := tx.ExecContext(ctx, query, newBalance, accountID); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"account_id":  accountID,
			"new_balance": newBalance,
		}).Error("Failed to execute update balance query")
		return err
	}
	return nil
}
