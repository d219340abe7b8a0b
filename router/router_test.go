// file: router/router_test.go

package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-ledger/db"
	"go-ledger/handler"
	"go-ledger/logger"
	"go-ledger/model"
	"go-ledger/repository"
	"go-ledger/router"
	"go-ledger/service"
)

const testSecret = "test-secret"

var (
	insertAccountSQL = regexp.QuoteMeta(`INSERT INTO accounts (name) VALUES ($1) RETURNING account_id`)
	insertBalanceSQL = regexp.QuoteMeta(`INSERT INTO balances (account_id, balance) VALUES ($1, 0)`)
	lockBalanceSQL   = regexp.QuoteMeta(`SELECT account_id, balance FROM balances WHERE account_id = $1 FOR UPDATE`)
)

func newTestRouter(t *testing.T, jwtSecret string) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	conn, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	log := logger.Discard()
	manager := db.NewManager(conn, log)
	accountRepo := repository.NewAccountRepository(log)
	accounts := service.NewAccountService(manager, accountRepo, log)
	transfers := service.NewTransferService(manager, accountRepo, repository.NewTransactionRepository(log), service.TransferOptions{
		Retry:          service.RetryPolicy{MaxAttempts: 2},
		AllowOverdraft: true,
	}, log)

	r := router.NewRouter(router.Handlers{
		Health:      handler.NewHealthHandler(manager),
		Account:     handler.NewAccountHandler(accounts),
		Transaction: handler.NewTransactionHandler(transfers),
	}, jwtSecret, log)
	return r, dbMock
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func signToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()
	return signScopedToken(t, secret, model.LedgerScope, expiresIn)
}

func signScopedToken(t *testing.T, secret, scope string, expiresIn time.Duration) string {
	t.Helper()
	claims := &model.AppClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRouter(t, "")

	rr := do(r, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"API is healthy and running"}`, rr.Body.String())
}

func TestSwaggerDoc(t *testing.T) {
	r, _ := newTestRouter(t, "")

	rr := do(r, http.MethodGet, "/swagger/doc.json", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/api/transfers")
}

func TestCreateAccount(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, dbMock := newTestRouter(t, "")
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(insertAccountSQL).WithArgs("Alice").
			WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(int64(1)))
		dbMock.ExpectExec(insertBalanceSQL).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		rr := do(r, http.MethodPost, "/api/accounts", `{"name":"Alice"}`, "")

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t, `{"account_id":1,"name":"Alice"}`, rr.Body.String())
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("missing name", func(t *testing.T) {
		r, dbMock := newTestRouter(t, "")

		rr := do(r, http.MethodPost, "/api/accounts", `{}`, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("malformed body", func(t *testing.T) {
		r, _ := newTestRouter(t, "")

		rr := do(r, http.MethodPost, "/api/accounts", `{"name":`, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCreateTransfer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, dbMock := newTestRouter(t, "")
		now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockBalanceSQL).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance"}).AddRow(int64(1), int64(0)))
		dbMock.ExpectQuery(lockBalanceSQL).WithArgs(int64(2)).WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance"}).AddRow(int64(2), int64(0)))
		dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).WithArgs(int64(1), int64(2), int64(30)).
			WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "created_at"}).AddRow(int64(1), now))
		dbMock.ExpectExec(regexp.QuoteMeta(`UPDATE balances`)).WithArgs(int64(-30), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec(regexp.QuoteMeta(`UPDATE balances`)).WithArgs(int64(30), int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		rr := do(r, http.MethodPost, "/api/transfers", `{"debit_account_id":1,"credit_account_id":2,"amount":30}`, "")

		require.Equal(t, http.StatusCreated, rr.Code)
		var transaction model.Transaction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &transaction))
		assert.Equal(t, int64(1), transaction.ID)
		assert.Equal(t, int64(30), transaction.Amount)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("validation errors", func(t *testing.T) {
		r, dbMock := newTestRouter(t, "")

		for _, body := range []string{
			`{"debit_account_id":1,"credit_account_id":1,"amount":30}`,
			`{"debit_account_id":1,"credit_account_id":2,"amount":0}`,
			`{"debit_account_id":1,"credit_account_id":2,"amount":-5}`,
			`{"debit_account_id":1,"amount":5}`,
		} {
			rr := do(r, http.MethodPost, "/api/transfers", body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		}
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("account not found", func(t *testing.T) {
		r, dbMock := newTestRouter(t, "")
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockBalanceSQL).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance"}))
		dbMock.ExpectRollback()

		rr := do(r, http.MethodPost, "/api/transfers", `{"debit_account_id":1,"credit_account_id":2,"amount":30}`, "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("conflict exhausted", func(t *testing.T) {
		r, dbMock := newTestRouter(t, "")
		for i := 0; i < 2; i++ {
			dbMock.ExpectBegin()
			dbMock.ExpectQuery(lockBalanceSQL).WithArgs(int64(1)).WillReturnError(&pq.Error{Code: "40P01"})
			dbMock.ExpectRollback()
		}

		rr := do(r, http.MethodPost, "/api/transfers", `{"debit_account_id":2,"credit_account_id":1,"amount":30}`, "")

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestGetBalance_InvalidID(t *testing.T) {
	r, _ := newTestRouter(t, "")

	rr := do(r, http.MethodGet, "/api/accounts/abc/balance", "", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		r, _ := newTestRouter(t, testSecret)

		rr := do(r, http.MethodGet, "/api/accounts", "", "")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		r, _ := newTestRouter(t, testSecret)

		rr := do(r, http.MethodGet, "/api/accounts", "", signToken(t, "other-secret", time.Hour))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		r, _ := newTestRouter(t, testSecret)

		rr := do(r, http.MethodGet, "/api/accounts", "", signToken(t, testSecret, -time.Minute))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token without ledger scope", func(t *testing.T) {
		r, dbMock := newTestRouter(t, testSecret)

		rr := do(r, http.MethodGet, "/api/accounts", "", signScopedToken(t, testSecret, "", time.Hour))
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = do(r, http.MethodPost, "/api/transfers", `{"debit_account_id":1,"credit_account_id":2,"amount":30}`,
			signScopedToken(t, testSecret, "reporting", time.Hour))
		assert.Equal(t, http.StatusForbidden, rr.Code)

		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("valid token", func(t *testing.T) {
		r, dbMock := newTestRouter(t, testSecret)
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT account_id FROM accounts ORDER BY account_id`)).
			WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(int64(1)).AddRow(int64(2)))
		dbMock.ExpectCommit()

		rr := do(r, http.MethodGet, "/api/accounts", "", signToken(t, testSecret, time.Hour))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[1,2]`, rr.Body.String())
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("health stays public", func(t *testing.T) {
		r, _ := newTestRouter(t, testSecret)

		rr := do(r, http.MethodGet, "/health", "", "")

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
