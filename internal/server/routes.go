package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/api/blocks/:block", s.BlockHandler)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// BlockHandler reads a register block from the heater and returns its
// decoded values keyed by "category.key".
func (s *Server) BlockHandler(c echo.Context) error {
	name := c.Param("block")
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ReadBlockRequest{Block: name}, 15*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	}
	response, ok := res.(domain.ReadBlockResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	if response.HasResponseError() {
		if errors.Is(response.GetResponseError(), askoheat_modbus.ErrUnknownBlock) {
			return echo.NewHTTPError(http.StatusNotFound, response.GetResponseError().Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, response.GetResponseError().Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"block":  response.Block.Block,
		"values": response.Block.Flatten(),
	})
}
