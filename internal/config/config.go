package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel          zapcore.Level
	AskoheatModbusTcp AskoheatModbusTCPConfig `mapstructure:"askoheat_modbus_tcp"`
	MQTT              MQTTConfig              `mapstructure:"mqtt"`

	PollConfig      PollConfig      `mapstructure:"poll"`
	FeedInConfig    FeedInConfig    `mapstructure:"feed_in"`
	EmergencyConfig EmergencyConfig `mapstructure:"emergency"`
	DevicesConfig   DevicesConfig   `mapstructure:"devices"`
	MetricsEnable   bool            `mapstructure:"metrics_enable"`
	Port            uint            `mapstructure:"port"`
	HttpLog         bool            `mapstructure:"http_log"`
}

type AskoheatModbusTCPConfig struct {
	Host          string
	Port          uint
	UnitId        uint   `mapstructure:"unit_id"`
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
}

type PollConfig struct {
	EMAIntervalMillis  uint32 `mapstructure:"ema_interval_millis"`
	DataIntervalMillis uint32 `mapstructure:"data_interval_millis"`
	ConfigCron         string `mapstructure:"config_cron"`
	ParameterCron      string `mapstructure:"parameter_cron"`
}

type FeedInConfig struct {
	Enable      bool
	PowerTopic  string `mapstructure:"power_topic"`
	InvertPower bool   `mapstructure:"invert_power"`
	BufferWatt  int32  `mapstructure:"buffer_watt"`
}

type EmergencyConfig struct {
	Enable        bool
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
}

// Optional sub devices of the heater. Water heater control unit and energy
// manager are always present.
type DevicesConfig struct {
	LegioProtection bool `mapstructure:"legio_protection"`
	AnalogInput     bool `mapstructure:"analog_input"`
	ModbusMaster    bool `mapstructure:"modbus_master"`
	HeatPump        bool `mapstructure:"heat_pump"`
}

func (d DevicesConfig) Optional() []askoheat_modbus.DeviceKey {
	var keys []askoheat_modbus.DeviceKey
	if d.LegioProtection {
		keys = append(keys, askoheat_modbus.DeviceLegioProtection)
	}
	if d.AnalogInput {
		keys = append(keys, askoheat_modbus.DeviceAnalogInput)
	}
	if d.ModbusMaster {
		keys = append(keys, askoheat_modbus.DeviceModbusMaster)
	}
	if d.HeatPump {
		keys = append(keys, askoheat_modbus.DeviceHeatPump)
	}
	return keys
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks bounds and normalizes the MQTT topics in place.
func Validate(cfg *Config) error {

	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	if cfg.AskoheatModbusTcp.Host == "" {
		return errors.New("config param askoheat_modbus_tcp.host is required")
	}
	if cfg.AskoheatModbusTcp.UnitId > 255 {
		return errors.New("config param askoheat_modbus_tcp.unit_id should be <= 255")
	}
	if cfg.AskoheatModbusTcp.TimeoutMillis == 0 {
		return errors.New("config param askoheat_modbus_tcp.timeout_millis should be > 0")
	}
	if cfg.PollConfig.EMAIntervalMillis < 1000 {
		return errors.New("config param poll.ema_interval_millis should be >= 1000")
	}
	if cfg.PollConfig.DataIntervalMillis < 5000 {
		return errors.New("config param poll.data_interval_millis should be >= 5000")
	}
	if _, err := quartz.NewCronTrigger(cfg.PollConfig.ConfigCron); err != nil {
		return fmt.Errorf("config param poll.config_cron is not a valid cron expression: %w", err)
	}
	if _, err := quartz.NewCronTrigger(cfg.PollConfig.ParameterCron); err != nil {
		return fmt.Errorf("config param poll.parameter_cron is not a valid cron expression: %w", err)
	}
	if cfg.FeedInConfig.Enable && cfg.FeedInConfig.PowerTopic == "" {
		return errors.New("config param feed_in.power_topic is required when feed_in.enable is set")
	}
	if cfg.FeedInConfig.BufferWatt < -30000 || cfg.FeedInConfig.BufferWatt > 30000 {
		return errors.New("config param feed_in.buffer_watt should be within -30000..30000")
	}
	if cfg.EmergencyConfig.Enable && cfg.EmergencyConfig.TimeoutMillis == 0 {
		return errors.New("config param emergency.timeout_millis should be > 0")
	}

	return nil
}
