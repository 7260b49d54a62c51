package contextkeys

import (
	"context"

	"rentals-service/internal/core/port"
)

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// ContextWithLogger помещает логгер в контекст
func ContextWithLogger(ctx context.Context, logger port.LoggerPort) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext извлекает логгер из контекста, иначе возвращает логгер-заглушку.
func LoggerFromContext(ctx context.Context) port.LoggerPort {
	if logger, ok := ctx.Value(loggerKey).(port.LoggerPort); ok {
		return logger
	}
	return NoopLogger{}
}

// NoopLogger ничего не пишет.
type NoopLogger struct{}

func (NoopLogger) Info(msg string, fields port.Fields)             {}
func (NoopLogger) Warn(msg string, fields port.Fields)             {}
func (NoopLogger) Error(msg string, err error, fields port.Fields) {}
func (NoopLogger) Debug(msg string, fields port.Fields)            {}
func (n NoopLogger) WithFields(fields port.Fields) port.LoggerPort { return n }
