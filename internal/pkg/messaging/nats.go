package messaging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS is a messaging implementation backed by NATS core subjects.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains subscriptions and closes the NATS connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	subs := slices.Clone(n.subs)
	n.mu.Unlock()

	var closeErr error
	for _, sub := range subs {
		closeErr = errors.Join(closeErr, sub.Drain())
	}
	closeErr = errors.Join(closeErr, n.conn.Drain())
	n.conn.Close()

	return closeErr
}

func (n *NATS) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	nmsg := nats.NewMsg(topic)
	nmsg.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key != "" {
			nmsg.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}

	return nil
}

// Consume subscribes to the subject, joining the queue group when one is
// given, and blocks until ctx is done.
func (n *NATS) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validate(topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	raw := make(chan *nats.Msg, 64*co.concurrency)
	var (
		sub *nats.Subscription
		err error
	)
	if co.group != "" {
		sub, err = n.conn.ChanQueueSubscribe(topic, co.group, raw)
	} else {
		sub, err = n.conn.ChanSubscribe(topic, raw)
	}
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return errors.Join(ErrClosed, sub.Unsubscribe())
	}
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	in := make(chan Message)
	go func() {
		defer close(in)
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-raw:
				select {
				case in <- &natsMessage{msg: m}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	dispatch(ctx, DriverNATS, in, handler, co)

	n.mu.Lock()
	n.subs = slices.DeleteFunc(n.subs, func(s *nats.Subscription) bool { return s == sub })
	closed := n.closed
	n.mu.Unlock()
	if !closed {
		if uerr := sub.Unsubscribe(); uerr != nil {
			return errors.Join(ctx.Err(), uerr)
		}
	}

	return ctx.Err()
}

type natsMessage struct {
	msg *nats.Msg
}

func (m *natsMessage) Topic() string { return m.msg.Subject }
func (m *natsMessage) Key() []byte   { return nil }
func (m *natsMessage) Body() []byte  { return m.msg.Data }

func (m *natsMessage) Headers() []Header {
	var headers []Header
	for k, values := range m.msg.Header {
		for _, v := range values {
			headers = append(headers, Header{Key: k, Value: []byte(v)})
		}
	}
	return headers
}

// Ack and Nack are no-ops on core NATS, which has no redelivery.
func (m *natsMessage) Ack(context.Context) error  { return nil }
func (m *natsMessage) Nack(context.Context) error { return nil }
