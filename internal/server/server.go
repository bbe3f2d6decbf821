package server

import (
	"context"
	"net/http"
	"storefront/internal/handler"
	appmiddleware "storefront/internal/middleware"
	"storefront/internal/ratelimit"
	"storefront/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// provider notifications are small; anything larger is not ours
const webhookBodyLimit = "64K"

type Services struct {
	Checkout    service.CheckoutService
	Fulfillment service.FulfillmentService
	Order       service.OrderService
	Product     service.ProductService
	Status      service.StatusService
}

type Server struct {
	echo            *echo.Echo
	log             *zap.Logger
	limiter         *ratelimit.Limiter
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	orderHandler    *handler.OrderHandler
}

func NewServer(services Services, limiter *ratelimit.Limiter, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		log:             log,
		limiter:         limiter,
		checkoutHandler: handler.NewCheckoutHandler(services.Checkout),
		webhookHandler:  handler.NewWebhookHandler(services.Fulfillment),
		orderHandler:    handler.NewOrderHandler(services.Order, services.Product, services.Status),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	api.GET("/status", s.orderHandler.Status)

	// -------- checkout --------
	api.POST("/checkout", s.checkoutHandler.CreateSession, appmiddleware.RateLimit(s.limiter, s.log))
	api.GET("/products", s.orderHandler.GetProducts)
	api.GET("/orders/session/:sessionID", s.orderHandler.GetBySession)

	// -------- stripe webhooks --------
	stripe := api.Group("/stripe")
	stripe.POST("/webhook", s.webhookHandler.StripeWebhook, middleware.BodyLimit(webhookBodyLimit))
	stripe.GET("/webhook", s.webhookHandler.Probe)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
