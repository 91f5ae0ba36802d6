package tasks

import (
	"context"
	"errors"
	"time"
)

// ErrQueueNotConfigured is returned when a request names no queue, or no target for queues that post.
var ErrQueueNotConfigured = errors.New("task queue is not configured")

// Request describes one delayed POST.
type Request struct {
	// Queue is the queue identifier within the configured location.
	Queue string
	// TargetURL receives the POST when the task fires.
	TargetURL string
	// Body is the JSON body of the POST.
	Body []byte
	// ScheduleTime is when the task fires.
	ScheduleTime time.Time
}

// validate checks the queue name and, when requireTarget is set, the callback URL.
func (r *Request) validate(requireTarget bool) error {
	if r.Queue == "" || (requireTarget && r.TargetURL == "") {
		return ErrQueueNotConfigured
	}

	return nil
}

// Queue enqueues delayed callbacks. Implementations return the created task name.
type Queue interface {
	Enqueue(ctx context.Context, req *Request) (string, error)
}
