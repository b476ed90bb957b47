package logging

import (
	"context"
	"errors"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
	"k8s.io/klog/v2/textlogger"
)

const (
	// JSONFormat represents JSON logging mode.
	JSONFormat = "json"
	// TextFormat represents text logging mode.
	// Default logging mode is TextFormat.
	TextFormat = "text"
)

// Timestamp formats supported by the JSON logger.
const (
	DefaultTime = "default"
	ISO8601     = "iso8601"
	RFC3339     = "rfc3339"
	MILLIS      = "millis"
	NANOS       = "nanos"
	EPOCH       = "epoch"
	RFC3339NANO = "rfc3339nano"
)

var globalLogger atomic.Pointer[logr.Logger]

func init() {
	logger := logr.Discard()
	globalLogger.Store(&logger)
}

// Setup configures the logger with the supplied log format and verbosity.
// It returns an error if the JSON logger could not be initialized or passed logFormat is not recognized.
func Setup(logFormat string, timestampFormat string, verbosity int) error {
	return SetupWithOutput(os.Stderr, logFormat, timestampFormat, verbosity)
}

// SetupWithOutput is Setup writing to the given output.
func SetupWithOutput(out io.Writer, logFormat string, timestampFormat string, verbosity int) error {
	var logger logr.Logger
	switch logFormat {
	case TextFormat, "":
		config := textlogger.NewConfig(
			textlogger.Verbosity(verbosity),
			textlogger.Output(out),
		)
		logger = textlogger.NewLogger(config)
	case JSONFormat:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(resolveTimestampFormat(timestampFormat))
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(out),
			zap.NewAtomicLevelAt(zapcore.Level(-verbosity)),
		)
		logger = zapr.NewLogger(zap.New(core))
	default:
		return errors.New("log format not recognized, pass `text` for text mode or `json` to enable JSON logging")
	}
	klog.SetLogger(logger)
	globalLogger.Store(&logger)
	return nil
}

func resolveTimestampFormat(format string) string {
	switch format {
	case ISO8601, RFC3339:
		return time.RFC3339
	case MILLIS:
		return time.StampMilli
	case NANOS:
		return time.StampNano
	case EPOCH:
		return time.UnixDate
	case RFC3339NANO:
		return time.RFC3339Nano
	default:
		return time.RFC3339
	}
}

// GlobalLogger returns a logr.Logger as configured in main.
func GlobalLogger() logr.Logger {
	return *globalLogger.Load()
}

// WithName returns a new logr.Logger instance with the specified name element added to the Logger's name.
func WithName(name string) logr.Logger {
	return GlobalLogger().WithName(name)
}

// WithValues returns a new logr.Logger instance with additional key/value pairs.
func WithValues(keysAndValues ...interface{}) logr.Logger {
	return GlobalLogger().WithValues(keysAndValues...)
}

// V returns a new logr.Logger instance for a specific verbosity level.
func V(level int) logr.Logger {
	return GlobalLogger().V(level)
}

// Info logs a non-error message with the given key/value pairs.
func Info(msg string, keysAndValues ...interface{}) {
	GlobalLogger().Info(msg, keysAndValues...)
}

// Error logs an error, with the given message and key/value pairs.
func Error(err error, msg string, keysAndValues ...interface{}) {
	GlobalLogger().Error(err, msg, keysAndValues...)
}

// FromContext returns a logger with predefined values from a context.Context.
// The global logger is returned when the context carries none.
func FromContext(ctx context.Context, keysAndValues ...interface{}) logr.Logger {
	logger, err := logr.FromContext(ctx)
	if err != nil {
		logger = GlobalLogger()
	}
	return logger.WithValues(keysAndValues...)
}

// IntoContext takes a context and sets the logger as one of its values.
// Use FromContext function to retrieve the logger.
func IntoContext(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

// Background calls IntoContext with the global logger and a Background context.
func Background() context.Context {
	return IntoContext(context.Background(), GlobalLogger())
}

type writerAdapter struct {
	io.Writer
	logger logr.Logger
}

func (a writerAdapter) Write(p []byte) (int, error) {
	a.logger.Info(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// StdLogger returns a standard library logger writing through the given logger.
func StdLogger(logger logr.Logger, prefix string) *stdlog.Logger {
	return stdlog.New(writerAdapter{logger: logger}, prefix, stdlog.LstdFlags)
}
