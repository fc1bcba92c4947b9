package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

// InitLogger configures both loggers. Safe to call more than once (tests call it from TestMain).
func InitLogger() {
	configure(InfoLogger, os.Stdout, logrus.InfoLevel)
	configure(ErrorLogger, os.Stderr, logrus.ErrorLevel)
}

// SetLogLevel adjusts the info logger, e.g. "debug" in development.
func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		ErrorLogger.Warnf("unknown log level %q, keeping %s", level, InfoLogger.GetLevel())
		return
	}
	InfoLogger.SetLevel(lvl)
}

func configure(l *logrus.Logger, out io.Writer, level logrus.Level) {
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(level)
}
