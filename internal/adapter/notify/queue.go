// Package notify implements the outbound notification queue. Ledger
// operations enqueue a task and return immediately; a consumer goroutine
// delivers tasks to the configured sink and logs failures. A delivery
// failure never reaches the operation that triggered it.
package notify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shakiltousif/investment-crm-backend-sub000/internal/domain"
)

const defaultBufferSize = 256

// Task is one queued notification.
type Task struct {
	UserID  uuid.UUID
	Kind    domain.NotificationKind
	Payload map[string]string
}

// Sink delivers one notification to the outside world (email gateway, push
// service). Returning an error marks the task as failed; the queue logs it
// and moves on.
type Sink func(task Task) error

// Queue implements domain.NotificationDispatcher with a buffered channel and
// a single consumer goroutine.
type Queue struct {
	tasks chan Task
	sink  Sink
	log   zerolog.Logger

	wg     sync.WaitGroup
	closed sync.Once
}

// NewQueue creates a notification queue and starts its consumer. bufferSize
// <= 0 falls back to the default.
func NewQueue(sink Sink, bufferSize int, log zerolog.Logger) *Queue {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	q := &Queue{
		tasks: make(chan Task, bufferSize),
		sink:  sink,
		log:   log.With().Str("component", "notify").Logger(),
	}

	q.wg.Add(1)
	go q.consume()

	return q
}

// Notify enqueues a notification without blocking. When the buffer is full
// the task is dropped and logged; the caller is never held up.
func (q *Queue) Notify(userID uuid.UUID, kind domain.NotificationKind, payload map[string]string) {
	task := Task{UserID: userID, Kind: kind, Payload: payload}

	select {
	case q.tasks <- task:
	default:
		q.log.Warn().
			Str("user_id", userID.String()).
			Str("kind", string(kind)).
			Msg("Notification queue full, task dropped")
	}
}

// Close stops accepting tasks and waits for the consumer to drain the queue.
func (q *Queue) Close() {
	q.closed.Do(func() {
		close(q.tasks)
	})
	q.wg.Wait()
}

func (q *Queue) consume() {
	defer q.wg.Done()

	for task := range q.tasks {
		if err := q.sink(task); err != nil {
			q.log.Error().
				Err(err).
				Str("user_id", task.UserID.String()).
				Str("kind", string(task.Kind)).
				Msg("Notification delivery failed")
			continue
		}
		q.log.Debug().
			Str("user_id", task.UserID.String()).
			Str("kind", string(task.Kind)).
			Msg("Notification delivered")
	}
}

// LogSink returns a sink that only logs deliveries. Used until a real
// gateway is wired in.
func LogSink(log zerolog.Logger) Sink {
	l := log.With().Str("component", "notify-sink").Logger()
	return func(task Task) error {
		l.Info().
			Str("user_id", task.UserID.String()).
			Str("kind", string(task.Kind)).
			Interface("payload", task.Payload).
			Msg("Notification")
		return nil
	}
}
