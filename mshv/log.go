//go:build linux

package mshv

import "github.com/sirupsen/logrus"

var mshvLog = logrus.WithField("source", "mshv")

// SetLogger sets up a logger for this pkg. The fields of the default logger
// are kept.
func SetLogger(logger *logrus.Entry) {
	fields := mshvLog.Data

	mshvLog = logger.WithFields(fields)
}
