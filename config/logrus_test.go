package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestResolveLogLevel(t *testing.T) {
	cases := []struct {
		value string
		want  logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"  ", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"ERROR", logrus.ErrorLevel},
		{"verbose", logrus.InfoLevel},
	}
	for _, c := range cases {
		if got := resolveLogLevel(c.value); got != c.want {
			t.Errorf("resolveLogLevel(%q) = %s, want %s", c.value, got, c.want)
		}
	}
}
