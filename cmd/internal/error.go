package internal

import (
	"os"

	"github.com/go-logr/logr"
)

func checkError(logger logr.Logger, err error, msg string, keysAndValues ...interface{}) {
	if err != nil {
		logger.Error(err, msg, keysAndValues...)
		os.Exit(1)
	}
}
