package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// Unit tests do not go through main, so the logger must be usable before
// InitLogger is called explicitly.
func init() {
	InitLogger("info")
}

// InitLogger (re)builds the process-wide logger at the given level. Unknown
// levels fall back to info.
func InitLogger(level string) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	Log = logger.WithFields(logrus.Fields{"service": "oatext"})
}
