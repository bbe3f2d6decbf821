package handler

import (
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService   service.OrderService
	productService service.ProductService
	statusService  service.StatusService
}

func NewOrderHandler(orderService service.OrderService, productService service.ProductService, statusService service.StatusService) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		productService: productService,
		statusService:  statusService,
	}
}

// GetBySession serves the success page, which polls until the webhook lands.
func (h *OrderHandler) GetBySession(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.orderService.GetBySession(ctx, c.Param("sessionID"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.productService.FindByIDs(ctx, c.QueryParam("ids"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ProductsResponse{Products: products})
}

func (h *OrderHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.statusService.Check(c.Request().Context()))
}
