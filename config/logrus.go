package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(resolveLogLevel(os.Getenv("LOG_LEVEL")))
	logg.SetOutput(os.Stdout)
}

// resolveLogLevel parses LOG_LEVEL. The default is info so job progress lines
// are visible without configuration; unknown values also fall back to info.
func resolveLogLevel(value string) logrus.Level {
	value = strings.TrimSpace(value)
	if value == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(value)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	if data != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Error(err.Error())
	} else {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
		}).Error(err.Error())
	}
}
