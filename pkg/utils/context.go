package utils

import (
	"net/http"
	"strconv"

	"courier-dispatch/internal/models"

	"github.com/labstack/echo/v4"
)

// ExtractUserInfo pulls the authenticated user's id and role out of the echo
// context, where the JWT middleware placed them.
func ExtractUserInfo(c echo.Context) (userID string, role string, err error) {
	id, ok := c.Get("userID").(string)
	if !ok || id == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, models.ErrorResponse{Message: "authentication required"})
	}
	r, _ := c.Get("userRole").(string)
	return id, r, nil
}

// GetPageLimit parses pagination query parameters with sane defaults.
func GetPageLimit(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
