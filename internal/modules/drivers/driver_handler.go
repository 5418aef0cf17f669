package drivers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"courier-dispatch/internal/models"
	"courier-dispatch/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for drivers and their locations.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new driver handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// ListDrivers handles GET /api/drivers.
func (h *Handler) ListDrivers(c echo.Context) error {
	roster, err := h.svc.ListDrivers(c.Request().Context())
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list drivers")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"drivers": roster})
}

// CreateDriver handles POST /api/drivers.
func (h *Handler) CreateDriver(c echo.Context) error {
	var req models.CreateDriverRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	driver, err := h.svc.CreateDriver(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, driver)
}

// SavePushSubscription handles POST /api/drivers/push-subscription.
func (h *Handler) SavePushSubscription(c echo.Context) error {
	var req models.PushSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	if err := h.svc.SavePushSubscription(c.Request().Context(), req); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]bool{"success": true})
}

// ReportLocation handles POST /api/drivers/location.
func (h *Handler) ReportLocation(c echo.Context) error {
	var req models.LocationUpdateRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	loc, err := h.svc.ReportLocation(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, loc)
}

// GetLocation handles GET /api/drivers/location?driverId&orderId.
func (h *Handler) GetLocation(c echo.Context) error {
	driverID := c.QueryParam("driverId")
	if driverID == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "driverId is required")
	}

	loc, err := h.svc.CurrentLocation(c.Request().Context(), driverID, c.QueryParam("orderId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, loc)
}

// upgrader is used to upgrade HTTP connections to WebSocket connections.
var upgrader = websocket.Upgrader{}

// trackInterval is how often the tracking stream polls for a fresh location.
const trackInterval = 5 * time.Second

// TrackOrder handles GET /ws/orders/:orderId/track. It streams the assigned
// driver's latest location until the client disconnects.
func (h *Handler) TrackOrder(c echo.Context) error {
	orderID := c.Param("orderId")

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Drain reads so close frames from the client end the stream.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(trackInterval)
	defer ticker.Stop()

	var lastID string
	for {
		loc, err := h.svc.OrderLocation(ctx, orderID)
		switch {
		case err == nil:
			if loc.ID != lastID {
				if err := conn.WriteJSON(loc); err != nil {
					return nil
				}
				lastID = loc.ID
			}
		case errors.Is(err, models.ErrNotFound):
			// No driver or no location yet; keep polling.
		default:
			c.Logger().Errorf("tracking poll failed for order %s: %v", orderID, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
