package health

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/aptos-capability/internal/metrics"
)

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

type Server struct {
	port     int
	checkers map[string]Checker
}

func New(port int) *Server {
	return &Server{
		port:     port,
		checkers: make(map[string]Checker),
	}
}

// WithChecker adds a readiness check served on /readyz.
func (s *Server) WithChecker(name string, c Checker) *Server {
	s.checkers[name] = c
	return s
}

func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(metrics.HTTPMiddleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", s.ready)
	return e
}

func (s *Server) ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.checkers {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"failed": failed,
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, logger *logrus.Logger) error {
	e := s.Handler()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	logger.Infof("health server listening on :%d", s.port)
	err := e.Start(":" + strconv.Itoa(s.port))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
