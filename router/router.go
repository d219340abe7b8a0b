package router

import (
	"net/http"

	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"go-ledger/common"
	_ "go-ledger/docs"
	"go-ledger/handler"
)

type Handlers struct {
	Health      *handler.HealthHandler
	Account     *handler.AccountHandler
	Transaction *handler.TransactionHandler
}

// NewRouter wires every route. When jwtSecret is non-empty the /api routes
// require a bearer token.
func NewRouter(h Handlers, jwtSecret string, log logrus.FieldLogger) http.Handler {
	wrap := func(fn func(http.ResponseWriter, *http.Request) *common.AppError) http.Handler {
		return handler.ErrorHandlingMiddleware(log, fn)
	}

	api := http.NewServeMux()
	api.Handle("POST /api/accounts", wrap(h.Account.CreateAccount))
	api.Handle("GET /api/accounts", wrap(h.Account.ListAccounts))
	api.Handle("GET /api/accounts/{accountId}/balance", wrap(h.Account.GetBalance))
	api.Handle("GET /api/accounts/{accountId}/transactions", wrap(h.Transaction.ListTransactionsForAccount))
	api.Handle("POST /api/transfers", wrap(h.Transaction.CreateTransfer))

	var apiHandler http.Handler = api
	if jwtSecret != "" {
		apiHandler = handler.AuthMiddleware(jwtSecret, log)(api)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health", wrap(h.Health.HealthCheck))
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	mux.Handle("/api/", apiHandler)

	return mux
}
