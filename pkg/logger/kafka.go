package logger

import (
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaLogger — адаптер внутренних логов kafka-go (Logger/ErrorLogger в ReaderConfig).
// Сообщения клиента пишутся отдельной записью с action=kafka_client.
func KafkaLogger(z *ZapLogger) kafka.Logger {
	return kafka.LoggerFunc(func(msg string, args ...interface{}) {
		z.base.Debug(fmt.Sprintf(msg, args...), zap.String("action", "kafka_client"))
	})
}

// KafkaErrorLogger — ошибки, о которых kafka-go сообщает асинхронно (join/commit/fetch).
// На состояние консьюмера не влияют, только логируются.
func KafkaErrorLogger(z *ZapLogger) kafka.Logger {
	return kafka.LoggerFunc(func(msg string, args ...interface{}) {
		z.base.Warn(fmt.Sprintf(msg, args...), zap.String("action", "kafka_client_error"))
	})
}
