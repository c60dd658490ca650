package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"dailyquest-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultChannelPrefix = "dailyquest:messages"
	subscriberBuffer     = 16
)

// MessageBus relays stored group messages between instances over Redis pub/sub,
// one channel per group.
type MessageBus struct {
	client *redis.Client
	prefix string
}

func NewMessageBus(client *redis.Client, prefix string) *MessageBus {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &MessageBus{client: client, prefix: prefix}
}

func (b *MessageBus) channel(groupID int64) string {
	return b.prefix + ":" + strconv.FormatInt(groupID, 10)
}

func (b *MessageBus) Publish(ctx context.Context, msg domain.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(msg.GroupID), payload).Err(); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription. The channel is
// closed after cancel is called or ctx ends.
func (b *MessageBus) Subscribe(ctx context.Context, groupID int64) (<-chan domain.Message, func(), error) {
	ps := b.client.Subscribe(ctx, b.channel(groupID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan domain.Message, subscriberBuffer)
	done := make(chan struct{})
	in := ps.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}
				var msg domain.Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					continue
				}
				deliver(out, msg)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
	return out, cancel, nil
}

// deliver drops the oldest buffered message when the reader falls behind.
func deliver(out chan domain.Message, msg domain.Message) {
	select {
	case out <- msg:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- msg:
	default:
	}
}
