package events

import (
	"errors"
	"net/http"
	"time"

	"courier-dispatch/internal/models"
	"courier-dispatch/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler exposes the admin audit log and the inbound automation webhook.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new event handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// ListLogs handles GET /api/admin/logs?eventType&orderId&dateFrom&dateTo.
func (h *Handler) ListLogs(c echo.Context) error {
	q := models.LogQuery{
		EventType: c.QueryParam("eventType"),
		OrderID:   c.QueryParam("orderId"),
		Limit:     200,
	}
	if v := c.QueryParam("dateFrom"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return utils.RespondWithError(c, http.StatusBadRequest, "dateFrom must be RFC3339")
		}
		q.DateFrom = t
	}
	if v := c.QueryParam("dateTo"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return utils.RespondWithError(c, http.StatusBadRequest, "dateTo must be RFC3339")
		}
		q.DateTo = t
	}

	logs, err := h.svc.ListLogs(c.Request().Context(), q)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"events": logs})
}

// InboundAutomation handles POST /api/webhooks/automation. Retried
// deliveries with a previously seen eventId are acknowledged without
// creating a second row.
func (h *Handler) InboundAutomation(c echo.Context) error {
	var req models.InboundWebhookRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	err := h.svc.RecordInbound(c.Request().Context(), req, models.SourceAutomation)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return utils.RespondWithJSON(c, http.StatusOK, map[string]bool{"duplicate": true})
		}
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, map[string]bool{"recorded": true})
}
