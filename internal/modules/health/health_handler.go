// Package health exposes liveness and diagnostic endpoints. These carry no
// business logic; the admin variants additionally verify database
// connectivity and report pool statistics.
package health

import (
	"net/http"
	"time"

	"courier-dispatch/internal/config"
	"courier-dispatch/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// Handler serves the health endpoints.
type Handler struct {
	cfg *config.Config
	db  *pgxpool.Pool
}

// NewHandler creates a new health handler.
func NewHandler(cfg *config.Config, db *pgxpool.Pool) *Handler {
	return &Handler{cfg: cfg, db: db}
}

// Liveness handles GET /health.
func (h *Handler) Liveness(c echo.Context) error {
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

// ConfigStatus handles GET /health/config. Booleans only, never secrets.
func (h *Handler) ConfigStatus(c echo.Context) error {
	return utils.RespondWithJSON(c, http.StatusOK, map[string]any{
		"environment":  h.cfg.Environment,
		"demo_mode":    h.cfg.DemoModeEnabled,
		"rate_limit":   h.cfg.RateLimitEnabled,
		"master_login": h.cfg.MasterLoginEnabled,
		"integrations": h.cfg.Integrations(),
	})
}

// AdminStatus handles GET /api/admin/health.
func (h *Handler) AdminStatus(c echo.Context) error {
	return utils.RespondWithJSON(c, http.StatusOK, map[string]any{
		"status":       "ok",
		"time":         time.Now().UTC().Format(time.RFC3339),
		"environment":  h.cfg.Environment,
		"integrations": h.cfg.Integrations(),
	})
}

// AdminDatabase handles GET /api/admin/health/database. Runs a trivial query
// and reports connection-pool statistics.
func (h *Handler) AdminDatabase(c echo.Context) error {
	var one int
	if err := h.db.QueryRow(c.Request().Context(), "SELECT 1").Scan(&one); err != nil {
		return utils.RespondWithJSON(c, http.StatusServiceUnavailable, map[string]any{
			"status": "unreachable",
			"error":  err.Error(),
		})
	}

	stat := h.db.Stat()
	return utils.RespondWithJSON(c, http.StatusOK, map[string]any{
		"status":             "ok",
		"total_conns":        stat.TotalConns(),
		"idle_conns":         stat.IdleConns(),
		"acquired_conns":     stat.AcquiredConns(),
		"max_conns":          stat.MaxConns(),
		"new_conns_count":    stat.NewConnsCount(),
		"acquire_count":      stat.AcquireCount(),
		"canceled_acquires":  stat.CanceledAcquireCount(),
		"empty_acquire_wait": stat.EmptyAcquireCount(),
	})
}
