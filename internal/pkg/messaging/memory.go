package messaging

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

const memoryBuffer = 64

type memoryMessage struct {
	topic string
	msg   OutgoingMessage
}

func (m *memoryMessage) Topic() string              { return m.topic }
func (m *memoryMessage) Key() []byte                { return m.msg.Key }
func (m *memoryMessage) Body() []byte               { return m.msg.Body }
func (m *memoryMessage) Headers() []Header          { return m.msg.Headers }
func (m *memoryMessage) Ack(context.Context) error  { return nil }
func (m *memoryMessage) Nack(context.Context) error { return nil }

type memorySub struct {
	group string
	ch    chan Message
}

// Memory delivers messages between goroutines of one process. Messages
// published while no consumer is subscribed are dropped.
type Memory struct {
	mu     sync.Mutex
	subs   map[string][]*memorySub
	next   map[string]int
	closed bool
	done   chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		subs: make(map[string][]*memorySub),
		next: make(map[string]int),
		done: make(chan struct{}),
	}
}

// Publish hands msg to one subscriber of every group on topic. Subscribers
// without a group each get a copy. Publish never blocks: a subscriber whose
// buffer is full loses the message and a warning is logged.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}

	targets, err := m.targets(topic)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		slog.DebugContext(ctx, "memory messaging dropped message without subscribers", "topic", topic)
		return nil
	}

	for _, sub := range targets {
		select {
		case sub.ch <- &memoryMessage{topic: topic, msg: msg}:
		default:
			slog.WarnContext(ctx, "memory messaging dropped message, subscriber buffer full",
				"topic", topic, "group", sub.group, "buffer", memoryBuffer)
		}
	}

	return nil
}

func (m *Memory) targets(topic string) ([]*memorySub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	var out []*memorySub
	groups := map[string][]*memorySub{}
	for _, sub := range m.subs[topic] {
		if sub.group == "" {
			out = append(out, sub)
			continue
		}
		groups[sub.group] = append(groups[sub.group], sub)
	}

	for group, members := range groups {
		k := topic + "\x00" + group
		out = append(out, members[m.next[k]%len(members)])
		m.next[k]++
	}

	return out, nil
}

// Consume subscribes to topic and blocks until ctx is done or the client is
// closed.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validate(topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)
	sub := &memorySub{group: co.group, ch: make(chan Message, memoryBuffer)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.subs[topic] = append(m.subs[topic], sub)
	m.mu.Unlock()

	in := make(chan Message)
	go func() {
		defer close(in)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.done:
				return
			case msg := <-sub.ch:
				select {
				case in <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	dispatch(ctx, DriverMemory, in, handler, co)

	m.mu.Lock()
	m.subs[topic] = slices.DeleteFunc(m.subs[topic], func(s *memorySub) bool { return s == sub })
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}
