//go:build debug
// +build debug

package debug

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

const Enabled = true

var logger = newLogger().WithField("pkg", "spinguard")

// newLogger keeps debug output off the process-wide logrus logger.
func newLogger() *log.Logger {
	l := log.New()
	l.Level = log.DebugLevel
	return l
}

func Log(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}
