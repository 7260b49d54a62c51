package logger_adapter

import (
	"fmt"

	"rentals-service/internal/core/port"
	"rentals-service/pkg/rabbitmq/rabbitmq_common"
)

// RabbitMQLoggerBridge адаптирует LoggerPort к логгеру пакетов pkg/rabbitmq
// (пары ключ-значение вместо port.Fields).
type RabbitMQLoggerBridge struct {
	logger port.LoggerPort
}

var _ rabbitmq_common.Logger = (*RabbitMQLoggerBridge)(nil)

func NewRabbitMQLoggerBridge(logger port.LoggerPort) *RabbitMQLoggerBridge {
	return &RabbitMQLoggerBridge{logger: logger}
}

func kvToFields(keysAndValues []interface{}) port.Fields {
	fields := make(port.Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fields[key] = keysAndValues[i+1]
		} else {
			fields[key] = "(missing)"
		}
	}
	return fields
}

func (b *RabbitMQLoggerBridge) Debug(msg string, keysAndValues ...interface{}) {
	b.logger.Debug(msg, kvToFields(keysAndValues))
}

func (b *RabbitMQLoggerBridge) Info(msg string, keysAndValues ...interface{}) {
	b.logger.Info(msg, kvToFields(keysAndValues))
}

func (b *RabbitMQLoggerBridge) Warn(msg string, keysAndValues ...interface{}) {
	b.logger.Warn(msg, kvToFields(keysAndValues))
}

func (b *RabbitMQLoggerBridge) Error(err error, msg string, keysAndValues ...interface{}) {
	b.logger.Error(msg, err, kvToFields(keysAndValues))
}
