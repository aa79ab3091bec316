package wire

import "github.com/sirupsen/logrus"

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for stream corruption diagnostics.
func SetLogger(l logrus.FieldLogger) {
	logger = l
}
