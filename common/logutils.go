package common

import (
	"os"

	"github.com/sirupsen/logrus"
)

const defaultServiceName = "waypoint"

func init() {
	logger := logrus.StandardLogger()
	logger.Out = os.Stdout
	logger.Formatter = &logrus.TextFormatter{}
	logger.AddHook(&DefaultFieldsHook{ServiceName: GetServiceName()})
	if os.Getenv("GIN_MODE") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}
}

// GetServiceName SERVICE_NAME, defaults to waypoint
func GetServiceName() string {
	if name := os.Getenv("SERVICE_NAME"); name != "" {
		return name
	}
	return defaultServiceName
}

type DefaultFieldsHook struct {
	ServiceName string
}

func (hook *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *DefaultFieldsHook) Fire(e *logrus.Entry) error {
	e.Data["serviceName"] = hook.ServiceName
	return nil
}
