package nats

import (
	"errors"
	"sync"

	"github.com/nats-io/nats.go"
)

var ErrNotConnected = errors.New("nats is not configured")

// Client обёртка над соединением Nats, которая помнит своих подписчиков,
// чтобы корректно отписаться при завершении
type Client struct {
	mu   sync.Mutex
	conn *nats.Conn
	subs []*nats.Subscription
}

// New подключается к серверу Nats. При пустом url клиент остаётся без соединения,
// публикация в нём возвращает ErrNotConnected.
func New(url string, opts ...nats.Option) (*Client, error) {
	if url == "" {
		return &Client{}, nil
	}
	opts = append([]nats.Option{nats.Name("sto")}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Connected() bool {
	return c != nil && c.conn != nil
}

func (c *Client) Publish(subject string, data []byte) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.conn.Publish(subject, data)
}

func (c *Client) Subscribe(subject string, handler nats.MsgHandler) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

// Close отписывает всех подписчиков и закрывает соединение
func (c *Client) Close() error {
	if !c.Connected() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	c.subs = nil
	c.conn.Close()
	return errors.Join(errs...)
}
