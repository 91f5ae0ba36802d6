package tasks

import (
	"context"

	"github.com/google/uuid"

	"github.com/oshokin/famcal-notifier/internal/logger"
)

// LogQueue records requests in the log instead of scheduling them.
type LogQueue struct{}

// NewLogQueue creates a LogQueue.
func NewLogQueue() *LogQueue {
	return &LogQueue{}
}

// Enqueue logs the request and returns a synthetic task name. Nothing is posted,
// so an empty target is accepted.
func (LogQueue) Enqueue(ctx context.Context, req *Request) (string, error) {
	if err := req.validate(false); err != nil {
		return "", err
	}

	name := "log/" + req.Queue + "/" + uuid.NewString()

	logger.InfoKV(ctx, "task scheduled",
		"task", name,
		"target", req.TargetURL,
		"schedule_time", req.ScheduleTime,
		"body", string(req.Body),
	)

	return name, nil
}

var (
	_ Queue = (*CloudTasksQueue)(nil)
	_ Queue = LogQueue{}
)
