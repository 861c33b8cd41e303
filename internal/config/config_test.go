package config

import (
	"testing"

	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		AskoheatModbusTcp: AskoheatModbusTCPConfig{
			Host:          "askoheat.local",
			Port:          502,
			UnitId:        1,
			TimeoutMillis: 2000,
		},
		MQTT: MQTTConfig{
			BaseTopic:        "Askoheat",
			HADiscoveryTopic: "homeassistant",
		},
		PollConfig: PollConfig{
			EMAIntervalMillis:  5000,
			DataIntervalMillis: 60000,
			ConfigCron:         "0 0 * * * *",
			ParameterCron:      "0 0 0 * * *",
		},
		EmergencyConfig: EmergencyConfig{
			Enable:        true,
			TimeoutMillis: 3000,
		},
	}
}

func TestCheckMQTTTopic(t *testing.T) {

	assert := assert.New(t)

	topic, err := CheckMQTTTopic("Askoheat_1")
	assert.NoError(err)
	assert.Equal("askoheat_1", topic)

	for _, bad := range []string{"", "askoheat/1", "my topic", "ñ"} {
		_, err := CheckMQTTTopic(bad)
		assert.Error(err, bad)
	}
}

func TestValidateNormalizesTopics(t *testing.T) {

	assert := assert.New(t)

	cfg := validConfig()
	assert.NoError(Validate(&cfg))
	assert.Equal("askoheat", cfg.MQTT.BaseTopic)
}

func TestValidateBounds(t *testing.T) {

	assert := assert.New(t)

	cases := map[string]func(cfg *Config){
		"no host":            func(cfg *Config) { cfg.AskoheatModbusTcp.Host = "" },
		"unit id":            func(cfg *Config) { cfg.AskoheatModbusTcp.UnitId = 256 },
		"timeout":            func(cfg *Config) { cfg.AskoheatModbusTcp.TimeoutMillis = 0 },
		"ema interval":       func(cfg *Config) { cfg.PollConfig.EMAIntervalMillis = 999 },
		"data interval":      func(cfg *Config) { cfg.PollConfig.DataIntervalMillis = 1000 },
		"config cron":        func(cfg *Config) { cfg.PollConfig.ConfigCron = "every hour" },
		"parameter cron":     func(cfg *Config) { cfg.PollConfig.ParameterCron = "" },
		"feed-in topic":      func(cfg *Config) { cfg.FeedInConfig.Enable = true },
		"feed-in buffer":     func(cfg *Config) { cfg.FeedInConfig.BufferWatt = 40000 },
		"emergency timeout":  func(cfg *Config) { cfg.EmergencyConfig.TimeoutMillis = 0 },
		"base topic":         func(cfg *Config) { cfg.MQTT.BaseTopic = "a/b" },
		"ha discovery topic": func(cfg *Config) { cfg.MQTT.HADiscoveryTopic = "" },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		assert.Error(Validate(&cfg), name)
	}

	cfg := validConfig()
	cfg.FeedInConfig.Enable = true
	cfg.FeedInConfig.PowerTopic = "home/grid/power"
	assert.NoError(Validate(&cfg))
}

func TestDevicesOptional(t *testing.T) {

	assert := assert.New(t)

	assert.Empty(DevicesConfig{}.Optional())
	assert.Equal([]askoheat_modbus.DeviceKey{askoheat_modbus.DeviceLegioProtection, askoheat_modbus.DeviceHeatPump},
		DevicesConfig{LegioProtection: true, HeatPump: true}.Optional())
}
