package messaging

import (
	"context"
	"sync"
	"time"
)

// MemoryClient is an in-process bus. Published messages are kept for
// inspection and delivered to Consume; Inject feeds messages from other topics.
type MemoryClient struct {
	topic string
	queue chan Message

	mu        sync.Mutex
	published []Message
	offset    int64
}

// NewMemoryClient builds a bus whose Publish targets topic.
func NewMemoryClient(topic string) *MemoryClient {
	return &MemoryClient{topic: topic, queue: make(chan Message, 256)}
}

func (m *MemoryClient) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		msg.Topic = m.topic
	}
	msg = m.record(msg)
	select {
	case m.queue <- msg:
	default:
		// consumers are not keeping up; the copy in published still counts
	}
	return nil
}

// Inject enqueues a message as if it arrived on msg.Topic.
func (m *MemoryClient) Inject(ctx context.Context, msg Message) error {
	msg = m.stamp(msg)
	select {
	case m.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MemoryClient) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.queue:
			// failures are dropped; there is no broker to redeliver from
			_ = handler(ctx, msg)
		}
	}
}

func (m *MemoryClient) Topic() string { return m.topic }

// Published returns a copy of everything sent through Publish.
func (m *MemoryClient) Published() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.published...)
}

func (m *MemoryClient) record(msg Message) Message {
	msg = m.stamp(msg)
	m.mu.Lock()
	m.published = append(m.published, msg)
	m.mu.Unlock()
	return msg
}

func (m *MemoryClient) stamp(msg Message) Message {
	m.mu.Lock()
	m.offset++
	msg.Offset = m.offset
	m.mu.Unlock()
	if msg.Time.IsZero() {
		msg.Time = time.Now().UTC()
	}
	return msg
}
