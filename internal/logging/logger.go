package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// Init configures the process logger. When file is non-empty, output
// goes through a rotating file; otherwise stdout. Safe to call more
// than once (tests); only the first call wins.
func Init(env, file string) *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		if file != "" {
			logger.SetOutput(&lumberjack.Logger{
				Filename:   file,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			})
		}
		if env == "production" {
			logger.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}
		logger.SetLevel(logrus.InfoLevel)
	})
	return logger
}

// L returns the configured logger, initializing a plain stdout logger
// when Init has not run (tests, tools).
func L() *logrus.Logger {
	if logger == nil {
		return Init("development", "")
	}
	return logger
}
