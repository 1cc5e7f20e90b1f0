package messaging

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("messaging: client closed")

var (
	ErrTopicRequired   = errors.New("messaging: topic is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Messaging publishes and consumes messages.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher sends messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer receives messages from a topic. Consume blocks until ctx is done
// or the client is closed.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one message. With auto ack on, a nil error acks the
// message and a non-nil error nacks it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	Key     []byte
	Body    []byte
	Headers []Header
}

// Header is a message header. Keys may repeat.
type Header struct {
	Key   string
	Value []byte
}

// Message is a received message.
type Message interface {
	Topic() string
	Key() []byte
	Body() []byte
	Headers() []Header
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

// HeaderValue returns the first header named key, compared case-insensitively.
func HeaderValue(msg Message, key string) string {
	for _, h := range msg.Headers() {
		if strings.EqualFold(h.Key, key) {
			return string(h.Value)
		}
	}
	return ""
}

func validate(topic string, handler Handler) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}
