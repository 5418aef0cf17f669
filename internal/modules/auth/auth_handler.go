package auth

import (
	"net/http"

	"courier-dispatch/internal/models"
	"courier-dispatch/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the master test login.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new auth handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// MasterLogin handles POST /api/auth/master-login.
func (h *Handler) MasterLogin(c echo.Context) error {
	var req models.MasterLoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	resp, err := h.svc.MasterLogin(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, resp)
}
