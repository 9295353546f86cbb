package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

const (
	// DefaultQueueSize bounds the queue when no size is configured.
	DefaultQueueSize = 10000

	depthWarnThreshold = 100
	depthWarnInterval  = 5 * time.Second
)

// MessageQueue is the bounded handoff between the listeners and the
// processor. Enqueues never block: when the queue is full the message is
// dropped and counted, so a stalled store cannot back-pressure the UDP
// read loops into kernel buffer overflows.
type MessageQueue struct {
	ch      chan *models.Message
	dropped atomic.Uint64
	metrics Metrics

	mu         sync.Mutex
	lastWarnAt time.Time
}

// NewMessageQueue returns a queue holding at most size messages.
// Non-positive sizes fall back to DefaultQueueSize.
func NewMessageQueue(size int) *MessageQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &MessageQueue{ch: make(chan *models.Message, size)}
}

// SetMetrics wires queue instrumentation. Call before the listeners start.
func (q *MessageQueue) SetMetrics(m Metrics) {
	q.metrics = m
}

// TryEnqueue adds msg without blocking and reports whether it was
// accepted. A full queue drops the message.
func (q *MessageQueue) TryEnqueue(msg *models.Message) bool {
	select {
	case q.ch <- msg:
		q.observeDepth()
		return true
	default:
		q.dropped.Add(1)
		if q.metrics != nil {
			q.metrics.RecordQueueDrop()
		}
		logger.Warn("Message queue full, dropping message",
			"source_ip", msg.SourceIP,
			"type", string(msg.Type),
			"dropped_total", q.dropped.Load())
		return false
	}
}

// Dequeue blocks until a message is available or ctx is done.
func (q *MessageQueue) Dequeue(ctx context.Context) (*models.Message, error) {
	select {
	case msg := <-q.ch:
		if q.metrics != nil {
			q.metrics.SetQueueDepth(len(q.ch))
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Depth returns the number of queued messages.
func (q *MessageQueue) Depth() int {
	return len(q.ch)
}

// Dropped returns the number of messages rejected by TryEnqueue.
func (q *MessageQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// observeDepth warns when the queue is backing up, at most once per
// depthWarnInterval so a sustained burst does not flood the log.
func (q *MessageQueue) observeDepth() {
	depth := len(q.ch)
	if q.metrics != nil {
		q.metrics.SetQueueDepth(depth)
	}
	if depth <= depthWarnThreshold {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if time.Since(q.lastWarnAt) < depthWarnInterval {
		return
	}
	q.lastWarnAt = time.Now()
	logger.Warn("Message queue depth high", "depth", depth, "capacity", cap(q.ch))
}
