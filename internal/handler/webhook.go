package handler

import (
	"errors"
	"io"
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

const signatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	fulfillmentService service.FulfillmentService
}

func NewWebhookHandler(fulfillmentService service.FulfillmentService) *WebhookHandler {
	return &WebhookHandler{
		fulfillmentService: fulfillmentService,
	}
}

func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	signature := c.Request().Header.Get(signatureHeader)

	// without a signature the body is never read
	var payload []byte
	if signature != "" {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return httpErr
			}
			return service.NewError(service.KindInvalidPayload, "Unable to read request body", err)
		}
		payload = body
	}

	if err := h.fulfillmentService.HandleWebhook(ctx, payload, signature); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.WebhookAck{Received: true})
}

func (h *WebhookHandler) Probe(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":    true,
		"route": "stripe/webhook",
	})
}
