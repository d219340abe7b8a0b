// File: app/app.go
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"go-ledger/config"
	"go-ledger/db"
	"go-ledger/handler"
	"go-ledger/repository"
	"go-ledger/router"
	"go-ledger/service"
)

// App holds every wired layer of the ledger.
type App struct {
	Config    *config.Config
	Log       logrus.FieldLogger
	DB        *db.Manager
	Redis     *redis.Client
	Accounts  *service.AccountService
	Transfers *service.TransferService
	Router    http.Handler
}

// New connects to the database (and Redis, when configured) and wires the
// repositories, services and handlers together.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	manager, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	rdb, err := db.ConnectRedis(ctx, cfg.Redis, log)
	if err != nil {
		manager.Close()
		return nil, err
	}

	a := Wire(cfg, manager, rdb, log)
	a.Redis = rdb
	return a, nil
}

// Wire builds the application on top of an existing connection manager.
// rdb may be nil, in which case account listing is not cached.
func Wire(cfg *config.Config, manager *db.Manager, rdb *redis.Client, log logrus.FieldLogger) *App {
	accountRepo := repository.NewAccountRepository(log)
	transactionRepo := repository.NewTransactionRepository(log)

	var accountOpts []service.AccountOption
	if rdb != nil {
		accountOpts = append(accountOpts, service.WithCache(rdb, cfg.Redis.TTL))
	}
	accounts := service.NewAccountService(manager, accountRepo, log, accountOpts...)
	transfers := service.NewTransferService(manager, accountRepo, transactionRepo, service.TransferOptions{
		Retry:          service.RetryPolicyFromConfig(cfg.Retry),
		AllowOverdraft: cfg.Ledger.AllowOverdraft,
	}, log)

	r := router.NewRouter(router.Handlers{
		Health:      handler.NewHealthHandler(manager),
		Account:     handler.NewAccountHandler(accounts),
		Transaction: handler.NewTransactionHandler(transfers),
	}, cfg.Auth.JWTSecret, log)

	return &App{
		Config:    cfg,
		Log:       log,
		DB:        manager,
		Accounts:  accounts,
		Transfers: transfers,
		Router:    r,
	}
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Log.WithError(err).Warn("Failed to close database pool")
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	port := a.Config.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.Log.Info("Server exited properly")
	return nil
}
