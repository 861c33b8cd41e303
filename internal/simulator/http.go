package simulator

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes serves the device's emergency mode endpoints.
func (s *Simulator) RegisterRoutes(e *echo.Echo) {
	e.GET("/on", func(c echo.Context) error {
		return s.emergencyHandler(c, true)
	})
	e.GET("/off", func(c echo.Context) error {
		return s.emergencyHandler(c, false)
	})
}

func (s *Simulator) emergencyHandler(c echo.Context, on bool) error {
	if err := s.Emergency(on); err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if s.EmergencyState() {
		return c.String(http.StatusOK, "ON")
	}
	return c.String(http.StatusOK, "OFF")
}
