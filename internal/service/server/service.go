package server

import (
	"context"
	"fmt"

	"github.com/oshokin/famcal-notifier/internal/config"
	"github.com/oshokin/famcal-notifier/internal/domain/notification"
	"github.com/oshokin/famcal-notifier/internal/gateway/push"
	"github.com/oshokin/famcal-notifier/internal/gateway/tasks"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/repository/store"
	"github.com/oshokin/famcal-notifier/internal/service/dispatcher"
)

// components holds the collaborators built from settings and the cleanup they need.
type components struct {
	// store is the entity store backend.
	store store.Store
	// sender delivers push payloads.
	sender push.Sender
	// queue schedules escalation callbacks.
	queue tasks.Queue
	// service is the dispatcher wired with the above.
	service *dispatcher.Service
	// closers release clients in reverse order of creation.
	closers []func() error
}

// buildComponents opens the configured store, push transport and task queue.
// Everything opened so far is released when a later step fails.
func buildComponents(ctx context.Context, settings *config.Config) (_ *components, err error) {
	deps := new(components)

	defer func() {
		if err != nil {
			deps.close(ctx)
		}
	}()

	deps.store, err = store.Open(ctx, store.Options{
		Driver:          settings.Store.Driver,
		ProjectID:       settings.Store.ProjectID,
		CredentialsFile: settings.Store.CredentialsFile,
		DSN:             settings.Store.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	deps.closers = append(deps.closers, deps.store.Close)

	deps.sender, err = newSender(ctx, &settings.Push)
	if err != nil {
		return nil, err
	}

	deps.queue, err = newQueue(ctx, &settings.Tasks, deps)
	if err != nil {
		return nil, err
	}

	deps.service = dispatcher.New(
		deps.store,
		deps.sender,
		deps.queue,
		notification.NewComposer(settings.Location()),
		dispatcher.Options{
			HorizonDays:      settings.Escalation.HorizonDays,
			EscalationDelay:  settings.Escalation.Delay,
			Queue:            settings.Tasks.Queue,
			TargetURL:        settings.Tasks.TargetURL,
			SweepConcurrency: settings.Sweep.Concurrency,
		},
	)

	return deps, nil
}

func newSender(ctx context.Context, settings *config.Push) (push.Sender, error) {
	switch settings.Driver {
	case config.DriverFCM:
		sender, err := push.NewFCMSender(ctx, settings.ProjectID, settings.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("create FCM sender: %w", err)
		}

		return sender, nil
	case config.DriverLog:
		return push.NewLogSender(), nil
	default:
		return nil, fmt.Errorf("%w: push %q", config.ErrUnknownDriver, settings.Driver)
	}
}

func newQueue(ctx context.Context, settings *config.Tasks, deps *components) (tasks.Queue, error) {
	switch settings.Driver {
	case config.DriverCloudTasks:
		queue, err := tasks.NewCloudTasksQueue(
			ctx,
			settings.ProjectID,
			settings.Location,
			settings.CredentialsFile,
			settings.CallbackSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("create cloud tasks queue: %w", err)
		}

		deps.closers = append(deps.closers, queue.Close)

		return queue, nil
	case config.DriverLog:
		return tasks.NewLogQueue(), nil
	default:
		return nil, fmt.Errorf("%w: tasks %q", config.ErrUnknownDriver, settings.Driver)
	}
}

// close releases clients, logging failures.
func (c *components) close(ctx context.Context) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			logger.WarnKV(ctx, "Failed to release client", "error", err)
		}
	}

	c.closers = nil
}
