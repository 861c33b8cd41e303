package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/simulator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Serves a fake heater on Modbus TCP plus its emergency mode HTTP endpoints.
func main() {

	viper.SetDefault("modbus_host", "0.0.0.0")
	viper.SetDefault("modbus_port", 5020)
	viper.SetDefault("http_port", 8081)
	viper.SetDefault("unit_id", 1)
	viper.SetDefault("fixture", "")
	viper.SetEnvPrefix("askoheat_sim")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	logger := zap.Must(zap.NewDevelopment())
	defer logger.Sync()

	var (
		fixture *simulator.Fixture
		err     error
	)
	if path := viper.GetString("fixture"); path != "" {
		fixture, err = simulator.LoadFixture(path)
	} else {
		fixture, err = simulator.ParseFixture([]byte(simulator.DefaultFixture))
	}
	if err != nil {
		logger.Fatal("cannot load fixture", zap.Error(err))
	}

	unitId := uint8(viper.GetUint("unit_id"))
	if fixture.UnitId != 0 {
		unitId = fixture.UnitId
	}

	sim := simulator.New(unitId, logger)
	if err := sim.Apply(fixture); err != nil {
		logger.Fatal("cannot apply fixture", zap.Error(err))
	}
	if err := sim.Start(viper.GetString("modbus_host"), viper.GetUint("modbus_port")); err != nil {
		logger.Fatal("cannot start modbus server", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	sim.RegisterRoutes(e)

	go func() {
		err := e.Start(fmt.Sprintf(":%d", viper.GetUint("http_port")))
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := sim.Stop(); err != nil {
		logger.Error("modbus shutdown", zap.Error(err))
	}
}
