package dispatch

import (
	"net/http"
	"strconv"

	"courier-dispatch/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler exposes the suggestion engine over HTTP.
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new dispatch handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// GetSuggestions handles GET /api/dispatch/suggestions. The strategy and
// cursor are client-threaded query params; an absent cursor starts the
// round-robin rotation at the head of the available list.
func (h *Handler) GetSuggestions(c echo.Context) error {
	strategy := c.QueryParam("strategy")
	if strategy == "" {
		strategy = StrategyWorkload
	}
	if !ValidStrategy(strategy) {
		return utils.RespondWithError(c, http.StatusBadRequest, "unknown strategy: "+strategy)
	}

	cursor := -1
	if raw := c.QueryParam("cursor"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return utils.RespondWithError(c, http.StatusBadRequest, "cursor must be an integer")
		}
		cursor = n
	}

	resp, err := h.service.Suggest(c.Request().Context(), c.QueryParam("orderId"), strategy, cursor)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, resp)
}
