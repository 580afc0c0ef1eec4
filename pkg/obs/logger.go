package obs

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logrus entry tagged with the service name. Outside dev the
// output is JSON so it can be shipped as is.
func NewLogger(service, env string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if env == "" || env == "dev" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.InfoLevel)
	}
	return l.WithField("service", service)
}
