package ports

import "context"

// MessageConsumer — фоновый потребитель сообщений.
type MessageConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
