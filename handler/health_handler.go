package handler

import (
	"context"
	"net/http"
	"time"

	"go-ledger/common"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck godoc
// @Summary      Show the status of server
// @Description  Reports whether the API can reach the database.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  common.AppError
// @Router       /health [get]
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) *common.AppError {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return common.NewAppError(http.StatusServiceUnavailable, "Database unreachable", err)
	}

	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "API is healthy and running"})
	return nil
}
