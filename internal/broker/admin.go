package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/segmentio/kafka-go"
)

// Admin — административное соединение с кластером.
// CreateTopics возвращает ошибку по каждому топику, включая TopicAlreadyExists.
type Admin interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// adminConn — создание топиков через kafka.Client (per-topic коды ошибок сохраняются,
// в отличие от (*kafka.Conn).CreateTopics) и метаданные через соединение с контроллером.
// Дедлайн ставится на каждую операцию, чтобы зависший брокер не блокировал попытку.
type adminConn struct {
	conn      *kafka.Conn
	client    *kafka.Client
	transport *kafka.Transport
	timeout   time.Duration
}

func newAdminConn(conn *kafka.Conn, dialer *kafka.Dialer, timeout time.Duration) *adminConn {
	transport := &kafka.Transport{
		Dial:        (&net.Dialer{Timeout: dialer.Timeout}).DialContext,
		DialTimeout: dialer.Timeout,
		ClientID:    "cdc-provisioner",
	}
	return &adminConn{
		conn:      conn,
		client:    &kafka.Client{Addr: conn.RemoteAddr(), Timeout: timeout, Transport: transport},
		transport: transport,
		timeout:   timeout,
	}
}

func (a *adminConn) CreateTopics(topics ...kafka.TopicConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	res, err := a.client.CreateTopics(ctx, &kafka.CreateTopicsRequest{Topics: topics})
	if err != nil {
		return err
	}
	return topicErrors(topics, res.Errors)
}

func (a *adminConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	_ = a.conn.SetDeadline(time.Now().Add(a.timeout))
	return a.conn.ReadPartitions(topics...)
}

func (a *adminConn) Close() error {
	a.transport.CloseIdleConnections()
	return a.conn.Close()
}

// topicErrors — ошибки ответа CreateTopics в порядке запроса; nil, если все топики созданы.
func topicErrors(topics []kafka.TopicConfig, byTopic map[string]error) error {
	var errs []error
	for _, t := range topics {
		if err := byTopic[t.Topic]; err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Topic, err))
		}
	}
	return errors.Join(errs...)
}
