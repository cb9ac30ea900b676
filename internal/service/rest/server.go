package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"orders/internal/domain"
	"orders/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Server публикует HTTP API заказов поверх доменного репозитория.
// Все транспортные статусы назначаются здесь, ядро о HTTP не знает.
type Server struct {
	addr    string
	echo    *echo.Echo
	repo    domain.OrderRepository
	metrics *metrics.OrderMetrics
	logger  *log.Entry
}

// NewServer собирает маршруты API и служебные эндпоинты.
// healthHandler и метрики опциональны: в тестах их можно не передавать.
func NewServer(addr string, repo domain.OrderRepository, m *metrics.OrderMetrics, healthHandler http.Handler, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.WithField("component", "rest")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		addr:    addr,
		echo:    e,
		repo:    repo,
		metrics: m,
		logger:  logger,
	}

	e.Use(s.requestLogger)

	if healthHandler != nil {
		e.GET("/health", echo.WrapHandler(healthHandler))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/order", s.CreateOrder)
	e.GET("/order/list", s.ListOrders)
	e.GET("/order/:orderId", s.GetOrder)
	e.PUT("/order/:orderId", s.UpdateOrder)
	e.DELETE("/order/:orderId", s.DeleteOrder)

	return s
}

// ServeHTTP позволяет гонять сервер через httptest без открытия порта.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run запускает сервер и останавливает его по отмене контекста.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.echo.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Warn("failed to shutdown HTTP server gracefully")
		}
	}()

	s.logger.WithField("addr", s.addr).Info("HTTP сервер запущен")

	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger прокидывает request id и пишет одну строку на запрос.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		start := time.Now()
		err := next(c)

		s.logger.WithFields(log.Fields{
			"request_id":  requestID,
			"method":      c.Request().Method,
			"path":        c.Request().URL.Path,
			"status":      c.Response().Status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request handled")

		return err
	}
}
