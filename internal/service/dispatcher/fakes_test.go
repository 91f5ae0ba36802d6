package dispatcher

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/domain/notification"
	"github.com/oshokin/famcal-notifier/internal/gateway/push"
	"github.com/oshokin/famcal-notifier/internal/gateway/tasks"
	"github.com/oshokin/famcal-notifier/internal/repository/store"
)

var (
	errBackend = errors.New("backend unavailable")
	errPush    = errors.New("push provider unavailable")
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	mu sync.Mutex
	// users, families, children and events are keyed by id ("family/id" for nested records).
	users    map[string]*calendar.User
	families map[string]*calendar.Family
	children map[string]*calendar.Child
	events   map[string]*calendar.Event
	// removed records RemoveDestinations calls per user.
	removed map[string][]string
	// errListFamilies fails ListFamilies.
	errListFamilies error
	// errEvents fails ListEventsBetween for the given family.
	errEvents map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:     make(map[string]*calendar.User),
		families:  make(map[string]*calendar.Family),
		children:  make(map[string]*calendar.Child),
		events:    make(map[string]*calendar.Event),
		removed:   make(map[string][]string),
		errEvents: make(map[string]error),
	}
}

// addUser registers a user with one device "<id>-phone" holding token "tok-<id>".
func (r *fakeRepo) addUser(id string, prefs calendar.Preferences) *calendar.User {
	user := &calendar.User{
		ID:          id,
		DisplayName: "name-" + id,
		Destinations: map[string]calendar.Destination{
			id + "-phone": {Token: "tok-" + id},
		},
		Preferences: prefs,
	}

	r.users[id] = user

	return user
}

func (r *fakeRepo) GetUser(_ context.Context, userID string) (*calendar.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}

	return user.Clone(), nil
}

func (r *fakeRepo) GetFamily(_ context.Context, familyID string) (*calendar.Family, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	family, ok := r.families[familyID]
	if !ok {
		return nil, store.ErrNotFound
	}

	return family.Clone(), nil
}

func (r *fakeRepo) GetChild(_ context.Context, familyID, childID string) (*calendar.Child, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	child, ok := r.children[familyID+"/"+childID]
	if !ok {
		return nil, store.ErrNotFound
	}

	cloned := *child

	return &cloned, nil
}

func (r *fakeRepo) GetEvent(_ context.Context, familyID, eventID string) (*calendar.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[familyID+"/"+eventID]
	if !ok {
		return nil, store.ErrNotFound
	}

	return event.Clone(), nil
}

func (r *fakeRepo) ListFamilies(context.Context) ([]*calendar.Family, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.errListFamilies != nil {
		return nil, r.errListFamilies
	}

	families := make([]*calendar.Family, 0, len(r.families))
	for _, family := range r.families {
		families = append(families, family.Clone())
	}

	return families, nil
}

func (r *fakeRepo) ListEventsBetween(
	_ context.Context,
	familyID string,
	from, to time.Time,
) ([]*calendar.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.errEvents[familyID]; err != nil {
		return nil, err
	}

	var events []*calendar.Event

	for _, event := range r.events {
		if event.FamilyID == familyID && !event.StartDate.Before(from) && event.StartDate.Before(to) {
			events = append(events, event.Clone())
		}
	}

	return events, nil
}

func (r *fakeRepo) RemoveDestinations(_ context.Context, userID string, deviceIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removed[userID] = append(r.removed[userID], deviceIDs...)

	if user, ok := r.users[userID]; ok {
		for _, deviceID := range deviceIDs {
			delete(user.Destinations, deviceID)
		}
	}

	return nil
}

// sendCall is one recorded Send.
type sendCall struct {
	destinations []string
	payload      *notification.Payload
}

// fakeSender records sends and fails or rejects chosen tokens.
type fakeSender struct {
	mu    sync.Mutex
	calls []sendCall
	// invalid tokens are reported as invalid destinations.
	invalid map[string]bool
	// failFor fails the whole call when it contains the token.
	failFor map[string]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		invalid: make(map[string]bool),
		failFor: make(map[string]error),
	}
}

func (f *fakeSender) Send(
	_ context.Context,
	destinations []string,
	payload *notification.Payload,
) (*push.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, sendCall{destinations: slices.Clone(destinations), payload: payload})

	for _, dest := range destinations {
		if err := f.failFor[dest]; err != nil {
			return nil, err
		}
	}

	report := new(push.Report)

	for _, dest := range destinations {
		res := push.Result{Destination: dest, Outcome: push.OutcomeDelivered}
		if f.invalid[dest] {
			res.Outcome = push.OutcomeInvalidDestination
			report.FailureCount++
		} else {
			report.SuccessCount++
		}

		report.Results = append(report.Results, res)
	}

	return report, nil
}

// to returns the payloads sent to a destination, in order.
func (f *fakeSender) to(destination string) []*notification.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()

	var payloads []*notification.Payload

	for _, call := range f.calls {
		if slices.Contains(call.destinations, destination) {
			payloads = append(payloads, call.payload)
		}
	}

	return payloads
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

// fakeQueue records enqueued requests.
type fakeQueue struct {
	mu       sync.Mutex
	requests []*tasks.Request
	err      error
}

func (q *fakeQueue) Enqueue(_ context.Context, req *tasks.Request) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return "", q.err
	}

	q.requests = append(q.requests, req)

	return "task-1", nil
}

const testTargetURL = "https://notifier.example/v1/tasks/unassigned-alert"

func newTestService(repo *fakeRepo, sender *fakeSender, queue *fakeQueue) *Service {
	return New(repo, sender, queue, notification.NewComposer(time.UTC), Options{TargetURL: testTargetURL})
}
