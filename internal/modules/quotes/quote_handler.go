package quotes

import (
	"net/http"

	"courier-dispatch/internal/models"
	"courier-dispatch/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for quotes and checkout.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new quote handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// CreateQuote handles POST /api/quote.
func (h *Handler) CreateQuote(c echo.Context) error {
	var req models.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	resp, err := h.svc.CreateQuote(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusCreated, resp)
}

// CreateCheckout handles POST /api/checkout.
func (h *Handler) CreateCheckout(c echo.Context) error {
	var req models.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	demoMode, _ := c.Get("demoMode").(bool)
	resp, err := h.svc.CreateCheckout(c.Request().Context(), req.QuoteID, demoMode)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, resp)
}

// GetQuote handles GET /api/quote/:quoteId.
func (h *Handler) GetQuote(c echo.Context) error {
	quote, err := h.svc.GetQuote(c.Request().Context(), c.Param("quoteId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, quote)
}
