package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutt-telemetry/mutt/pkg/models"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	q := NewMessageQueue(4)

	msg := models.NewMessage(models.MessageTypeSyslog, "10.0.0.1", "link down")
	require.True(t, q.TryEnqueue(msg))
	assert.Equal(t, 1, q.Depth())

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Same(t, msg, got)
	assert.Equal(t, 0, q.Depth())
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewMessageQueue(2)

	require.True(t, q.TryEnqueue(models.NewMessage(models.MessageTypeSyslog, "10.0.0.1", "one")))
	require.True(t, q.TryEnqueue(models.NewMessage(models.MessageTypeSyslog, "10.0.0.1", "two")))

	assert.False(t, q.TryEnqueue(models.NewMessage(models.MessageTypeSyslog, "10.0.0.1", "three")))
	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, 2, q.Depth())
}

func TestQueueDequeueHonorsContext(t *testing.T) {
	q := NewMessageQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueDefaultSize(t *testing.T) {
	q := NewMessageQueue(0)
	assert.Equal(t, DefaultQueueSize, cap(q.ch))

	q = NewMessageQueue(-5)
	assert.Equal(t, DefaultQueueSize, cap(q.ch))
}
