package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openpublisher/openpublisher/internal/shared/logger"
	"github.com/openpublisher/openpublisher/internal/shared/utils"
)

const healthProbeTimeout = 3 * time.Second

// DatabasePinger is satisfied by *sql.DB.
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

type LedgerProbe interface {
	IsReachable(ctx context.Context) bool
}

type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Ledger   string `json:"ledger"`
}

type HealthHandler struct {
	db     DatabasePinger
	ledger LedgerProbe
	logger logger.Interface
}

func NewHealthHandler(db DatabasePinger, ledger LedgerProbe, logger logger.Interface) *HealthHandler {
	return &HealthHandler{
		db:     db,
		ledger: ledger,
		logger: logger,
	}
}

// HealthCheck handles GET /health. It answers 503 when either dependency is
// down.
// @Summary Health check
// @Description Report database and ledger reachability
// @Tags health
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()

	status := HealthStatus{Status: "ok", Database: "up", Ledger: "up"}

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warnw("health check: database unreachable", "error", err)
		status.Database = "down"
		status.Status = "degraded"
	}
	if !h.ledger.IsReachable(ctx) {
		h.logger.Warnw("health check: ledger unreachable")
		status.Ledger = "down"
		status.Status = "degraded"
	}

	if status.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
			Result:  utils.ResultError,
			Message: "Service degraded",
			Data:    status,
			Error:   &utils.ErrorInfo{Type: "unavailable"},
		})
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", status)
}
