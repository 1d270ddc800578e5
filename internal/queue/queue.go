package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	TypeCheckIn      = "checkin"
	TypeSessionEnded = "session_ended"
)

// Message is an attendance event.
type Message struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Body      []byte `json:"body,omitempty"`
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory is a channel-backed queue for a single process.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for the dispatcher; it closes when ctx ends.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisPubSub fans messages out to every subscribed process.
type RedisPubSub struct {
	client  *redis.Client
	channel string
}

// NewRedisPubSub builds a bus on a Redis pub/sub channel.
func NewRedisPubSub(client *redis.Client, channel string) *RedisPubSub {
	if channel == "" {
		channel = "attendance:events"
	}
	return &RedisPubSub{client: client, channel: channel}
}

// Publish sends a message to current subscribers.
func (q *RedisPubSub) Publish(ctx context.Context, msg Message) error {
	payload, err := serialize(msg)
	if err != nil {
		return err
	}
	return q.client.Publish(ctx, q.channel, payload).Err()
}

// Consume subscribes and streams decoded messages until ctx ends.
func (q *RedisPubSub) Consume(ctx context.Context) (<-chan Message, error) {
	sub := q.client.Subscribe(ctx, q.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	in := sub.Channel()
	out := make(chan Message)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case raw, ok := <-in:
				if !ok {
					return
				}
				msg, err := deserialize(raw.Payload)
				if err != nil {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func serialize(msg Message) (string, error) {
	b, err := json.Marshal(msg)
	return string(b), err
}

func deserialize(s string) (Message, error) {
	var msg Message
	err := json.Unmarshal([]byte(s), &msg)
	return msg, err
}
