package dispatcher

import (
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/notification"
	"github.com/oshokin/famcal-notifier/internal/gateway/push"
	"github.com/oshokin/famcal-notifier/internal/gateway/tasks"
	"github.com/oshokin/famcal-notifier/internal/repository/store"
)

// Defaults applied by New to zero Options fields.
const (
	DefaultHorizonDays      = 7
	DefaultEscalationDelay  = 24 * time.Hour
	DefaultQueue            = "unassigned-alerts"
	DefaultSweepConcurrency = 4
)

// Repository is the slice of the entity store the dispatcher needs.
type Repository interface {
	store.Reader
	store.DestinationWriter
}

// Options tunes escalation and sweep behavior.
type Options struct {
	// HorizonDays is the furthest an event may be for an escalation to be scheduled.
	HorizonDays int
	// EscalationDelay is how long after the triggering write the alert fires.
	EscalationDelay time.Duration
	// Queue names the delayed task queue.
	Queue string
	// TargetURL is the callback the fired task posts to.
	TargetURL string
	// SweepConcurrency bounds how many families the daily sweep visits at once.
	SweepConcurrency int
}

func (o Options) withDefaults() Options {
	if o.HorizonDays <= 0 {
		o.HorizonDays = DefaultHorizonDays
	}

	if o.EscalationDelay <= 0 {
		o.EscalationDelay = DefaultEscalationDelay
	}

	if o.Queue == "" {
		o.Queue = DefaultQueue
	}

	if o.SweepConcurrency <= 0 {
		o.SweepConcurrency = DefaultSweepConcurrency
	}

	return o
}

// Service handles event writes, confirmations, fired escalation tasks and the daily sweep.
type Service struct {
	// repo reads entities and prunes destinations.
	repo Repository
	// sender delivers composed payloads.
	sender push.Sender
	// queue schedules escalation callbacks.
	queue tasks.Queue
	// composer renders payloads.
	composer *notification.Composer
	// opts holds escalation and sweep tuning.
	opts Options
}

// New wires the dispatcher with its collaborators.
func New(
	repo Repository,
	sender push.Sender,
	queue tasks.Queue,
	composer *notification.Composer,
	opts Options,
) *Service {
	if composer == nil {
		composer = notification.NewComposer(time.UTC)
	}

	return &Service{
		repo:     repo,
		sender:   sender,
		queue:    queue,
		composer: composer,
		opts:     opts.withDefaults(),
	}
}
