package util

import (
	"github.com/berfenger/askoheat2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		AskoheatModbusTcp: config.AskoheatModbusTCPConfig{
			Host:          "-.-.-.-",
			Port:          502,
			UnitId:        1,
			TimeoutMillis: 1000,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "askoheat",
		},
		PollConfig: config.PollConfig{
			EMAIntervalMillis:  1000,
			DataIntervalMillis: 5000,
			ConfigCron:         "0 0 * * * *",
			ParameterCron:      "0 0 0 * * *",
		},
		FeedInConfig: config.FeedInConfig{
			Enable:     true,
			PowerTopic: "home/grid/power",
			BufferWatt: 100,
		},
		EmergencyConfig: config.EmergencyConfig{
			Enable:        true,
			TimeoutMillis: 1000,
		},
		MetricsEnable: true,
		Port:          8080,
	}
}
