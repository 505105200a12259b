package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	err       error
	commitErr error
	i         int
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if r.i < len(r.msgs) {
		m := r.msgs[r.i]
		r.i++
		return m, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	return kafka.Message{}, errors.New("eof")
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func synced(offset int64, mode string) kafka.Message {
	return kafka.Message{
		Topic:  "records.synced",
		Offset: offset,
		Key:    []byte(mode),
		Value:  []byte(`{"mode":"` + mode + `"}`),
	}
}

func TestConsumer_DeliversAndCommits(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{synced(7, "live"), synced(8, "mock")}, err: errors.New("broker gone")}
	c := newConsumer(fr, true)

	var keys []string
	err := c.Consume(context.Background(), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	require.ErrorContains(t, err, "fetch message")
	require.Equal(t, []string{"live", "mock"}, keys)
	require.Equal(t, []int64{7, 8}, fr.committed)

	n, last := c.Consumed()
	require.Equal(t, int64(2), n)
	require.Equal(t, int64(8), last)
}

func TestConsumer_WithoutGroupSkipsCommit(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{synced(3, "live")}, commitErr: errors.New("not a group reader")}
	c := newConsumer(fr, false)

	err := c.Consume(context.Background(), func(k, v []byte) error { return nil })
	require.ErrorContains(t, err, "eof")
	require.Empty(t, fr.committed)
}

func TestConsumer_HandlerErrorNamesOffset(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{synced(42, "live")}}
	c := newConsumer(fr, true)

	want := errors.New("store closed")
	err := c.Consume(context.Background(), func(k, v []byte) error { return want })
	require.ErrorIs(t, err, want)
	require.ErrorContains(t, err, "records.synced[0]@42")
	require.Empty(t, fr.committed)

	n, last := c.Consumed()
	require.Zero(t, n)
	require.Equal(t, int64(-1), last)
}

func TestConsumer_CommitError(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{synced(1, "live")}, commitErr: errors.New("rebalance")}
	c := newConsumer(fr, true)

	err := c.Consume(context.Background(), func(k, v []byte) error { return nil })
	require.ErrorContains(t, err, "commit records.synced[0]@1")
}

func TestConsumer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newConsumer(&fakeReader{}, true)
	err := c.Consume(ctx, func(k, v []byte) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewConsumer_Close(t *testing.T) {
	c := NewConsumer(ConsumerConfig{Brokers: []string{"localhost:0"}, Topic: "records.synced", GroupID: "desk-api"})
	require.NotNil(t, c)
	require.True(t, c.commit)
	require.NoError(t, c.Close())

	tail := NewConsumer(ConsumerConfig{Brokers: []string{"localhost:0"}, Topic: "records.synced"})
	require.False(t, tail.commit)
	require.NoError(t, tail.Close())
}
