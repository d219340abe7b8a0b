package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"go-ledger/db"
	"go-ledger/model"
	"go-ledger/repository"
)

// Transfer states, logged at debug level as a unit of work progresses.
const (
	statePending   = "pending"
	stateLocking   = "locking"
	stateMutating  = "mutating"
	stateCommitted = "committed"
)

type TransferOptions struct {
	Retry          RetryPolicy
	AllowOverdraft bool
}

// TransferService moves funds between accounts as double-entry transfers.
type TransferService struct {
	db              *db.Manager
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
	opts            TransferOptions
	log             logrus.FieldLogger
}

func NewTransferService(manager *db.Manager, accountRepo repository.IAccountRepository, transactionRepo repository.ITransactionRepository, opts TransferOptions, log logrus.FieldLogger) *TransferService {
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}
	return &TransferService{
		db:              manager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		opts:            opts,
		log:             log,
	}
}

// TransferFunds debits amount from debitID and credits it to creditID. The
// whole unit of work is retried on transient conflicts up to the configured
// attempt limit; each failed attempt is rolled back, so the balances and the
// transaction log change exactly once.
func (s *TransferService) TransferFunds(ctx context.Context, debitID, creditID, amount int64) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if debitID == creditID {
		return nil, ErrSameAccountTransfer
	}

	log := s.log.WithFields(logrus.Fields{
		"debit_account_id":  debitID,
		"credit_account_id": creditID,
		"amount":            amount,
	})

	var lastErr error
	for attempt := 1; attempt <= s.opts.Retry.MaxAttempts; attempt++ {
		attemptLog := log.WithField("attempt", attempt)
		attemptLog.WithField("state", statePending).Debug("Starting transfer attempt")

		transaction, err := s.transferOnce(ctx, attemptLog, debitID, creditID, amount)
		if err == nil {
			attemptLog.WithFields(logrus.Fields{
				"state":          stateCommitted,
				"transaction_id": transaction.ID,
			}).Info("Transfer completed successfully")
			return transaction, nil
		}
		if !IsTransientConflict(err) {
			return nil, err
		}

		lastErr = err
		if attempt == s.opts.Retry.MaxAttempts {
			break
		}

		delay := s.opts.Retry.backoff(attempt)
		attemptLog.WithError(err).WithField("backoff", delay).Warn("Transient conflict during transfer; retrying")
		if err := wait(ctx, delay); err != nil {
			attemptLog.WithError(err).Warn("Transfer aborted while waiting to retry")
			return nil, fmt.Errorf("transfer aborted during retry backoff: %w", err)
		}
	}

	log.WithError(lastErr).Error("Transfer abandoned after repeated conflicts")
	return nil, &ConflictExhaustedError{Attempts: s.opts.Retry.MaxAttempts, Err: lastErr}
}

func (s *TransferService) transferOnce(ctx context.Context, log logrus.FieldLogger, debitID, creditID, amount int64) (*model.Transaction, error) {
	transaction := &model.Transaction{
		DebitAccountID:  debitID,
		CreditAccountID: creditID,
		Amount:          amount,
	}

	err := s.db.WithTransaction(ctx, func(tx *db.Tx) error {
		log.WithField("state", stateLocking).Debug("Locking balances")
		debit, credit, err := s.lockPair(ctx, tx, debitID, creditID)
		if err != nil {
			return err
		}

		if !s.opts.AllowOverdraft && debit.Balance-amount < 0 {
			return ErrInsufficientFunds
		}

		log.WithField("state", stateMutating).Debug("Applying transfer")
		if err := s.transactionRepo.CreateTransaction(ctx, tx, transaction); err != nil {
			return err
		}
		if err := s.accountRepo.UpdateBalance(ctx, tx, debitID, debit.Balance-amount); err != nil {
			return err
		}
		return s.accountRepo.UpdateBalance(ctx, tx, creditID, credit.Balance+amount)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// lockPair locks both balance rows in ascending account id order, whichever
// side is being debited, so that two opposing transfers can never wait on
// each other.
func (s *TransferService) lockPair(ctx context.Context, tx *db.Tx, debitID, creditID int64) (debit, credit *model.Balance, err error) {
	firstID, secondID := debitID, creditID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := s.lock(ctx, tx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.lock(ctx, tx, secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.AccountID == debitID {
		return first, second, nil
	}
	return second, first, nil
}

func (s *TransferService) lock(ctx context.Context, tx *db.Tx, accountID int64) (*model.Balance, error) {
	balance, err := s.accountRepo.GetBalanceForUpdate(ctx, tx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &AccountNotFoundError{AccountID: accountID}
	}
	return balance, err
}

// ListTransactions returns the transfers an account took part in, newest first.
func (s *TransferService) ListTransactions(ctx context.Context, accountID int64) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := s.db.WithTransaction(ctx, func(tx *db.Tx) error {
		exists, err := s.accountRepo.AccountExists(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !exists {
			return &AccountNotFoundError{AccountID: accountID}
		}
		transactions, err = s.transactionRepo.GetTransactionsByAccountID(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}
