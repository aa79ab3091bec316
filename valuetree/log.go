package valuetree

import "github.com/sirupsen/logrus"

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for decode and sync diagnostics.
func SetLogger(l logrus.FieldLogger) {
	logger = l
}
