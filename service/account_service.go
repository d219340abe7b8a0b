// file: service/account_service.go

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"go-ledger/db"
	"go-ledger/model"
	"go-ledger/repository"
)

const (
	accountIDsCacheKey      = "ledger:account_ids"
	accountIDsGenerationKey = "ledger:account_ids:generation"
)

var validate = validator.New()

// cachedAccountIDs is the cached id list, stamped with the generation that
// was current when it was read from the database. An entry whose generation
// no longer matches the generation key is stale.
type cachedAccountIDs struct {
	Generation int64   `json:"generation"`
	IDs        []int64 `json:"ids"`
}

// AccountService creates accounts and reads them back. When a cache client is
// configured the account id list is served cache-aside.
type AccountService struct {
	db       *db.Manager
	repo     repository.IAccountRepository
	cache    ICacheClient
	cacheTTL time.Duration
	log      logrus.FieldLogger

	// bypassUntil holds a unix-nano deadline before which this process reads
	// account ids straight from the database. Set when a post-commit
	// invalidation could not reach the cache.
	bypassUntil atomic.Int64
	now         func() time.Time
}

type AccountOption func(*AccountService)

// WithCache enables caching of ListAccountIDs.
func WithCache(cache ICacheClient, ttl time.Duration) AccountOption {
	return func(s *AccountService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func NewAccountService(manager *db.Manager, repo repository.IAccountRepository, log logrus.FieldLogger, opts ...AccountOption) *AccountService {
	s := &AccountService{
		db:   manager,
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount inserts the account and its zero balance in one transaction.
// Either both rows exist afterwards or neither does. The name is stored as
// given; names that are blank after trimming are rejected.
func (s *AccountService) CreateAccount(ctx context.Context, name string) (*model.Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidAccountName
	}
	if err := validate.Var(name, "max=255"); err != nil {
		return nil, ErrInvalidAccountName
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, accountIDsCacheKey).Err(); err != nil {
			s.log.WithError(err).Warn("Failed to clear account id cache before insert")
		}
	}

	account := &model.Account{Name: name}
	err := s.db.WithTransaction(ctx, func(tx *db.Tx) error {
		if err := s.repo.CreateAccount(ctx, tx, account); err != nil {
			return err
		}
		return s.repo.CreateBalance(ctx, tx, account.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"name":       account.Name,
	}).Info("Account created")

	s.invalidateAccountIDs(ctx)

	return account, nil
}

// invalidateAccountIDs bumps the cache generation and drops the cached list.
// Without a generation bump a concurrent reader may still cache the old list,
// so if the bump fails this process stops reading the cache for one TTL.
func (s *AccountService) invalidateAccountIDs(ctx context.Context) {
	if s.cache == nil {
		return
	}

	incrErr := s.cache.Incr(ctx, accountIDsGenerationKey).Err()
	if err := s.cache.Del(ctx, accountIDsCacheKey).Err(); err != nil {
		s.log.WithError(err).Warn("Failed to clear account id cache after insert")
	}
	if incrErr == nil {
		return
	}

	s.log.WithError(incrErr).Warn("Failed to bump account id cache generation, bypassing cache")
	s.bypassUntil.Store(s.now().Add(s.cacheTTL).UnixNano())
}

func (s *AccountService) cacheUsable() bool {
	return s.cache != nil && s.now().UnixNano() >= s.bypassUntil.Load()
}

// generation returns the current cache generation. A missing key is generation 0.
func (s *AccountService) generation(ctx context.Context) (int64, error) {
	raw, err := s.cache.Get(ctx, accountIDsGenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// ListAccountIDs returns every account id in ascending order.
func (s *AccountService) ListAccountIDs(ctx context.Context) ([]int64, error) {
	useCache := s.cacheUsable()

	var gen int64
	if useCache {
		var err error
		gen, err = s.generation(ctx)
		if err != nil {
			s.log.WithError(err).Warn("Account id cache unavailable, reading from database")
			useCache = false
		}
	}

	if useCache {
		cached, err := s.cache.Get(ctx, accountIDsCacheKey).Result()
		switch {
		case err == nil:
			var entry cachedAccountIDs
			if err := json.Unmarshal([]byte(cached), &entry); err != nil {
				s.log.Warn("Discarding malformed account id cache entry")
			} else if entry.Generation == gen {
				return entry.IDs, nil
			}
		case !errors.Is(err, redis.Nil):
			s.log.WithError(err).Warn("Account id cache unavailable, reading from database")
			useCache = false
		}
	}

	var ids []int64
	err := s.db.WithTransaction(ctx, func(tx *db.Tx) error {
		var err error
		ids, err = s.repo.ListAccountIDs(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if useCache {
		s.fillAccountIDs(ctx, gen, ids)
	}

	return ids, nil
}

// fillAccountIDs caches ids read under generation gen, unless an account was
// created while they were being read.
func (s *AccountService) fillAccountIDs(ctx context.Context, gen int64, ids []int64) {
	current, err := s.generation(ctx)
	if err != nil || current != gen || !s.cacheUsable() {
		return
	}

	data, err := json.Marshal(cachedAccountIDs{Generation: gen, IDs: ids})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, accountIDsCacheKey, data, s.cacheTTL).Err(); err != nil {
		s.log.WithError(err).Warn("Failed to populate account id cache")
	}
}

// GetBalance returns the current committed balance of an account.
func (s *AccountService) GetBalance(ctx context.Context, accountID int64) (*model.Balance, error) {
	var balance *model.Balance
	err := s.db.WithTransaction(ctx, func(tx *db.Tx) error {
		var err error
		balance, err = s.repo.GetBalance(ctx, tx, accountID)
		if errors.Is(err, sql.ErrNoRows) {
			return &AccountNotFoundError{AccountID: accountID}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}
