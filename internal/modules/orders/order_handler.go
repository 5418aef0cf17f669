package orders

import (
	"encoding/json"
	"io"
	"net/http"

	"courier-dispatch/internal/models"
	"courier-dispatch/pkg/payments"
	"courier-dispatch/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc      ServiceInterface
	payments payments.ClientInterface
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface, paymentsClient payments.ClientInterface) *Handler {
	return &Handler{svc: svc, payments: paymentsClient}
}

// GetOrder handles GET /api/orders/:orderId.
func (h *Handler) GetOrder(c echo.Context) error {
	order, err := h.svc.GetOrder(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, order)
}

// ListOrders handles GET /api/orders.
func (h *Handler) ListOrders(c echo.Context) error {
	page, limit := utils.GetPageLimit(c)
	orders, total, err := h.svc.ListOrders(c.Request().Context(), page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve orders")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

// AssignDriver handles POST /api/orders/assign (flat body form).
func (h *Handler) AssignDriver(c echo.Context) error {
	var req models.AssignDriverRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	return h.assign(c, req.OrderID, req.DriverID)
}

// AssignDriverByPath handles POST /api/orders/:orderId/assign. Same
// operation as AssignDriver, keyed by route instead of body.
func (h *Handler) AssignDriverByPath(c echo.Context) error {
	var req models.AssignDriverByPathRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	return h.assign(c, c.Param("orderId"), req.DriverID)
}

func (h *Handler) assign(c echo.Context, orderID, driverID string) error {
	actor, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	order, err := h.svc.AssignDriver(c.Request().Context(), orderID, driverID, actor)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/orders/:orderId/status.
func (h *Handler) UpdateStatus(c echo.Context) error {
	actor, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.GetValidator().FieldErrors(req); fields != nil {
		return utils.RespondWithFieldErrors(c, fields)
	}

	order, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("orderId"), req, actor)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, order)
}

// CancelOrder handles POST /api/orders/:orderId/cancel.
func (h *Handler) CancelOrder(c echo.Context) error {
	actor, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	order, err := h.svc.CancelOrder(c.Request().Context(), c.Param("orderId"), actor)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, order)
}

// PaymentWebhook handles POST /api/webhooks/payments. On a completed
// checkout session it creates the operational order; retried deliveries of
// the same session are acknowledged idempotently.
func (h *Handler) PaymentWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Unable to read payload")
	}

	event, err := h.payments.VerifyWebhook(body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid webhook signature")
	}

	if event.Type != "checkout.session.completed" {
		// Unhandled event types are acknowledged so the provider stops retrying.
		return c.NoContent(http.StatusOK)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Malformed session payload")
	}
	if session.ClientReferenceID == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "Session has no quote reference")
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	order, err := h.svc.ConfirmPayment(c.Request().Context(), session.ClientReferenceID, session.ID, paymentIntentID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"orderId": order.ID})
}
