package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Context key for storing logger
type contextKey string

const loggerContextKey contextKey = "aks-assessment-logger"

// ParseLogLevel converts string log level to logrus.Level with validation
func ParseLogLevel(level string) (logrus.Level, error) {
	normalizedLevel := strings.ToLower(strings.TrimSpace(level))

	switch normalizedLevel {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("invalid log level '%s'. Valid levels are: debug, info, warning, error", level)
	}
}

// SetupLogger creates a console logger at the given level and stores it in the
// returned context. The run transcript file is attached later, once the
// timestamped run directory exists.
func SetupLogger(ctx context.Context, level string) context.Context {
	logger := logrus.New()

	logLevel, err := ParseLogLevel(level)
	if err != nil {
		// Log the error but continue with default level
		fmt.Printf("Warning: %v. Using 'info' level as default.\n", err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	logger.SetReportCaller(true)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := filepath.Base(f.File)
			return fmt.Sprintf("[%s:%d]", filename, f.Line), ""
		},
	})

	return context.WithValue(ctx, loggerContextKey, logger)
}

// AttachFile duplicates the logger's output into the given transcript file,
// keeping console output intact. The returned closer flushes the file at the
// end of the run.
func AttachFile(logger *logrus.Logger, path string) (io.Closer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	return file, nil
}

// GetLoggerFromContext retrieves the logger from context
func GetLoggerFromContext(ctx context.Context) *logrus.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*logrus.Logger); ok {
		return logger
	}
	// Fallback to default logger if not found in context
	return logrus.New()
}

// GetCurrentLogLevel returns the current log level as a string
func GetCurrentLogLevel(ctx context.Context) string {
	logger := GetLoggerFromContext(ctx)
	switch logger.GetLevel() {
	case logrus.DebugLevel:
		return "debug"
	case logrus.InfoLevel:
		return "info"
	case logrus.WarnLevel:
		return "warning"
	case logrus.ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}
