package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	adactor "github.com/berfenger/askoheat2mqtt/internal/adapter/actor"
	"github.com/berfenger/askoheat2mqtt/internal/adapter/rest"
	"github.com/berfenger/askoheat2mqtt/internal/config"
	"github.com/berfenger/askoheat2mqtt/internal/core/actor"
	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/core/port"
	"github.com/berfenger/askoheat2mqtt/internal/metrics"
	"github.com/berfenger/askoheat2mqtt/internal/server"
	"github.com/berfenger/askoheat2mqtt/internal/util/actorutil"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	m := metrics.New()

	// init Modbus actor provider
	modbusProv, err := modbusActorProvider(cfg, m, logger)
	if err != nil {
		panic(err)
	}

	var emergencySwitch port.EmergencySwitch
	if cfg.EmergencyConfig.Enable {
		emergencySwitch = rest.NewHTTPEmergencySwitch(cfg.AskoheatModbusTcp.Host,
			time.Duration(cfg.EmergencyConfig.TimeoutMillis)*time.Millisecond, logger)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, modbusProv, mqttActorProvider(cfg, logger), emergencySwitch, logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		panic(err)
	}

	server := server.NewServer(*cfg, ctx, pid, m)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => ASKOHEAT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("ASKOHEAT_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("askoheat")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func modbusActorProvider(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (actor.ModbusActorProvider, error) {

	timeout := time.Duration(cfg.AskoheatModbusTcp.TimeoutMillis) * time.Millisecond

	reader, err := askoheat_modbus.CreateAskoheatModbusReader(cfg.AskoheatModbusTcp.Host,
		cfg.AskoheatModbusTcp.Port, uint8(cfg.AskoheatModbusTcp.UnitId), timeout,
		logger, m.ModbusInstrument())

	if err != nil {
		return nil, err
	}

	return func() *adactor.ModbusActor {
		return adactor.NewModbusActor(reader, m, timeout, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("askoheat_modbus_tcp.host", "askoheat.local")
	viper.SetDefault("askoheat_modbus_tcp.port", 502)
	viper.SetDefault("askoheat_modbus_tcp.unit_id", 1)
	viper.SetDefault("askoheat_modbus_tcp.timeout_millis", 2000)
	viper.SetDefault("mqtt.host", "localhost")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.base_topic", "askoheat")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("poll.ema_interval_millis", 5000)
	viper.SetDefault("poll.data_interval_millis", 60000)
	viper.SetDefault("poll.config_cron", "0 0 * * * *")
	viper.SetDefault("poll.parameter_cron", "0 0 0 * * *")
	viper.SetDefault("feed_in.enable", false)
	viper.SetDefault("feed_in.power_topic", "")
	viper.SetDefault("feed_in.invert_power", false)
	viper.SetDefault("feed_in.buffer_watt", 0)
	viper.SetDefault("emergency.enable", true)
	viper.SetDefault("emergency.timeout_millis", 3000)
	viper.SetDefault("devices.legio_protection", false)
	viper.SetDefault("devices.analog_input", false)
	viper.SetDefault("devices.modbus_master", false)
	viper.SetDefault("devices.heat_pump", false)
	viper.SetDefault("metrics_enable", true)
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
