package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	// GroupID пустой: читаем только новые сообщения и ничего не коммитим.
	GroupID  string
	MaxBytes int
}

// Consumer delivers records.synced payloads. Without a group it starts at the
// tail of the topic, since only the newest snapshot is of interest.
type Consumer struct {
	r      messageReader
	commit bool

	consumed   atomic.Int64
	lastOffset atomic.Int64
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 << 20
	}
	rc := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		MaxBytes:          cfg.MaxBytes,
	}
	if cfg.GroupID != "" {
		rc.GroupTopics = []string{cfg.Topic}
	} else {
		rc.Topic = cfg.Topic
		rc.StartOffset = kafka.LastOffset
	}
	return newConsumer(kafka.NewReader(rc), cfg.GroupID != "")
}

func newConsumer(r messageReader, commit bool) *Consumer {
	c := &Consumer{r: r, commit: commit}
	c.lastOffset.Store(-1)
	return c
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consumed returns how many messages were handled and the offset of the last one
// (-1 before the first).
func (c *Consumer) Consumed() (int64, int64) {
	return c.consumed.Load(), c.lastOffset.Load()
}

// Consume hands messages to handler one by one. It returns ctx.Err() once ctx is
// done, otherwise the first fetch, handler or commit failure.
func (c *Consumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "fetch message")
		}
		if err := handler(msg.Key, msg.Value); err != nil {
			// без commit: сообщение придёт снова после рестарта
			return errors.Wrapf(err, "handle %s[%d]@%d", msg.Topic, msg.Partition, msg.Offset)
		}
		c.consumed.Add(1)
		c.lastOffset.Store(msg.Offset)
		if !c.commit {
			continue
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrapf(err, "commit %s[%d]@%d", msg.Topic, msg.Partition, msg.Offset)
		}
	}
}
