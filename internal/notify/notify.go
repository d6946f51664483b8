// Package notify delivers user-facing toast messages. Delivery is
// fire-and-forget: a sink never reports failure back to the pipeline.
package notify

import (
	"sync"
	"time"

	"busbooking/internal/domain"

	"go.uber.org/zap"
)

// Sink receives notifications.
type Sink interface {
	Notify(kind domain.NotificationKind, message string)
}

// Message is one queued toast.
type Message struct {
	Kind    domain.NotificationKind `json:"kind"`
	Message string                  `json:"message"`
	At      time.Time               `json:"at"`
}

// LogSink writes notifications to a zap logger.
type LogSink struct {
	Log       *zap.Logger
	SessionID string
}

func (s LogSink) Notify(kind domain.NotificationKind, message string) {
	if s.Log == nil {
		return
	}
	s.Log.Info("notification",
		zap.String("kind", string(kind)),
		zap.String("session_id", s.SessionID),
		zap.String("message", message),
	)
}

// Queue buffers notifications until the UI drains them. Oldest messages are
// dropped once Limit is reached.
type Queue struct {
	Limit int

	mu   sync.Mutex
	msgs []Message
}

const defaultQueueLimit = 50

func NewQueue() *Queue {
	return &Queue{Limit: defaultQueueLimit}
}

func (q *Queue) Notify(kind domain.NotificationKind, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, Message{Kind: kind, Message: message, At: time.Now()})
	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueueLimit
	}
	if over := len(q.msgs) - limit; over > 0 {
		q.msgs = append([]Message(nil), q.msgs[over:]...)
	}
}

// Drain returns and removes every queued message.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.msgs
	q.msgs = nil
	if out == nil {
		out = []Message{}
	}
	return out
}

// Peek returns the queued messages without removing them.
func (q *Queue) Peek() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Message(nil), q.msgs...)
}

// Multi fans a notification out to several sinks.
type Multi []Sink

func (m Multi) Notify(kind domain.NotificationKind, message string) {
	for _, s := range m {
		if s != nil {
			s.Notify(kind, message)
		}
	}
}
