package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Gunvolt24/cdc_ingest/pkg/kafkax"
	"github.com/segmentio/kafka-go"
)

// ErrNoBrokers — пустой список адресов.
var ErrNoBrokers = errors.New("no broker addresses configured")

// Connection — адресация кластера и низкоуровневые connect/disconnect.
// Список брокеров фиксируется при создании.
type Connection struct {
	brokers   []string
	dialer    *kafka.Dialer
	opTimeout time.Duration
}

// NewConnection — нормализует адреса (kafkax.ParseBrokers) и настраивает dialer.
func NewConnection(brokers []string, dialTimeout time.Duration) (*Connection, error) {
	addrs := kafkax.ParseBrokers(brokers)
	if len(addrs) == 0 {
		return nil, ErrNoBrokers
	}
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	return &Connection{
		brokers:   addrs,
		dialer:    &kafka.Dialer{Timeout: dialTimeout, DualStack: true},
		opTimeout: dialTimeout,
	}, nil
}

// Brokers — копия списка адресов.
func (c *Connection) Brokers() []string {
	return append([]string(nil), c.brokers...)
}

// Dial — соединение с первым доступным брокером (в порядке конфигурации).
func (c *Connection) Dial(ctx context.Context) (*kafka.Conn, error) {
	var errs []error
	for _, addr := range c.brokers {
		conn, err := c.dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", addr, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("dial brokers: %w", errors.Join(errs...))
}

// DialController — соединение с контроллером кластера (для админ-операций).
func (c *Connection) DialController(ctx context.Context) (*kafka.Conn, error) {
	conn, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ctrl, err := conn.Controller()
	if err != nil {
		return nil, fmt.Errorf("find controller: %w", err)
	}
	addr := net.JoinHostPort(ctrl.Host, strconv.Itoa(ctrl.Port))

	admin, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial controller %s: %w", addr, err)
	}
	return admin, nil
}

// DialAdmin — новое административное соединение; вызывающий обязан закрыть его.
func (c *Connection) DialAdmin(ctx context.Context) (Admin, error) {
	conn, err := c.DialController(ctx)
	if err != nil {
		return nil, err
	}
	return newAdminConn(conn, c.dialer, c.opTimeout), nil
}

// ReadPartitions — метаданные партиций топика через любой доступный брокер.
func (c *Connection) ReadPartitions(ctx context.Context, topic string) ([]kafka.Partition, error) {
	conn, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else {
		_ = conn.SetDeadline(time.Now().Add(c.opTimeout))
	}
	return conn.ReadPartitions(topic)
}
