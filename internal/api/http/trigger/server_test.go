package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/famcal-notifier/internal/domain/assignment"
	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/gateway/tasks"
	"github.com/oshokin/famcal-notifier/internal/service/dispatcher"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "callback-secret"

var errSweep = errors.New("list families failed")

// fakeService records the decoded triggers.
type fakeService struct {
	before, after *calendar.Event
	familyID      string
	entityID      string
	confirmation  *calendar.Confirmation
	task          dispatcher.EscalationTask
	sweepErr      error
}

func (f *fakeService) HandleEventWrite(
	_ context.Context,
	familyID, eventID string,
	before, after *calendar.Event,
) assignment.Scenario {
	f.familyID, f.entityID, f.before, f.after = familyID, eventID, before, after

	return assignment.Classify(before, after)
}

func (f *fakeService) HandleConfirmation(
	_ context.Context,
	familyID, confirmationID string,
	conf *calendar.Confirmation,
) int {
	f.familyID, f.entityID, f.confirmation = familyID, confirmationID, conf

	return 2
}

func (f *fakeService) HandleUnassignedAlert(_ context.Context, task dispatcher.EscalationTask) dispatcher.AlertOutcome {
	f.task = task

	return dispatcher.AlertSent
}

func (f *fakeService) RunSweep(context.Context) (dispatcher.SweepStats, error) {
	return dispatcher.SweepStats{Families: 3, Alerted: 1, Skipped: 2}, f.sweepErr
}

func do(t *testing.T, handler http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	for key, values := range header {
		req.Header[key] = values
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

// TestEventWrite decodes both snapshots and returns the scenario.
func TestEventWrite(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	handler := NewServer(svc, testSecret).Handler()

	rec := do(t, handler, http.MethodPost, "/v1/events/write", `{
		"family_id": "fam-1",
		"event_id": "ev-1",
		"before": {"child_id": "c1", "role": "pickUp", "start_date": "2024-05-01", "responsible_member_id": "U1"},
		"after": {"child_id": "c1", "role": "pickUp", "start_date": "2024-05-01T00:00:00Z", "responsible_member_id": "U2",
			"start_time": "15:30", "place": "School", "created_by": "U1"}
	}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "reassigned", decodeBody(t, rec)["scenario"])
	require.NotEmpty(t, rec.Header().Get(invocationHeader))

	require.Equal(t, "fam-1", svc.familyID)
	require.Equal(t, "ev-1", svc.entityID)
	require.Equal(t, "U1", svc.before.ResponsibleMemberID)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), svc.after.StartDate)
	require.Equal(t, calendar.RolePickUp, svc.after.Role)
	require.Equal(t, "fam-1", svc.after.FamilyID)
}

// TestEventWrite_CreateAndDelete accept an absent side.
func TestEventWrite_CreateAndDelete(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	handler := NewServer(svc, testSecret).Handler()

	rec := do(t, handler, http.MethodPost, "/v1/events/write",
		`{"family_id":"fam-1","event_id":"ev-1","after":{"role":"dropOff","start_date":"2024-05-01"}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "unassigned_new", decodeBody(t, rec)["scenario"])
	require.Nil(t, svc.before)

	rec = do(t, handler, http.MethodPost, "/v1/events/write",
		`{"family_id":"fam-1","event_id":"ev-1","before":{"role":"dropOff","start_date":"2024-05-01"}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "deleted", decodeBody(t, rec)["scenario"])
	require.Nil(t, svc.after)
}

// TestEventWrite_Malformed rejects bad input with 400.
func TestEventWrite_Malformed(t *testing.T) {
	t.Parallel()

	handler := NewServer(new(fakeService), testSecret).Handler()

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{`},
		{name: "missing ids", body: `{"after":{"role":"pickUp","start_date":"2024-05-01"}}`},
		{name: "unknown role", body: `{"family_id":"f","event_id":"e","after":{"role":"carry","start_date":"2024-05-01"}}`},
		{name: "bad date", body: `{"family_id":"f","event_id":"e","after":{"role":"pickUp","start_date":"tomorrow"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, handler, http.MethodPost, "/v1/events/write", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// TestConfirmation decodes the record and reports the fan-out size.
func TestConfirmation(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	handler := NewServer(svc, testSecret).Handler()

	rec := do(t, handler, http.MethodPost, "/v1/confirmations", `{
		"family_id": "fam-1",
		"confirmation_id": "conf-1",
		"confirmation": {"event_id": "ev-1", "child_id": "c1", "role": "dropOff", "place": "School",
			"confirmed_by_id": "U1", "confirmed_at": "2024-05-01T08:05:00Z"}
	}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 2, decodeBody(t, rec)["notified"], 0)
	require.Equal(t, "conf-1", svc.entityID)
	require.Equal(t, "U1", svc.confirmation.ConfirmedByID)
	require.Equal(t, calendar.RoleDropOff, svc.confirmation.Role)

	rec = do(t, handler, http.MethodPost, "/v1/confirmations", `{"family_id":"fam-1","confirmation_id":"conf-1"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestUnassignedAlert requires a valid callback token.
func TestUnassignedAlert(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	server := NewServer(svc, testSecret)

	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	server.now = func() time.Time { return now }

	handler := server.Handler()

	const body = `{"familyId":"fam-1","eventId":"ev-1"}`

	rec := do(t, handler, http.MethodPost, "/v1/tasks/unassigned-alert", body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := tasks.SignCallbackToken("other", now.Add(-24*time.Hour), now)
	require.NoError(t, err)

	rec = do(t, handler, http.MethodPost, "/v1/tasks/unassigned-alert", body,
		http.Header{"Authorization": {"Bearer " + forged}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, svc.task.EventID)

	token, err := tasks.SignCallbackToken(testSecret, now.Add(-24*time.Hour), now)
	require.NoError(t, err)

	auth := http.Header{"Authorization": {"Bearer " + token}}

	rec = do(t, handler, http.MethodPost, "/v1/tasks/unassigned-alert", body, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "sent", decodeBody(t, rec)["outcome"])
	require.Equal(t, dispatcher.EscalationTask{FamilyID: "fam-1", EventID: "ev-1"}, svc.task)

	rec = do(t, handler, http.MethodPost, "/v1/tasks/unassigned-alert", `{"familyId":"fam-1"}`, auth)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestSweep reports stats and maps a listing failure to 500.
func TestSweep(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	handler := NewServer(svc, testSecret).Handler()

	rec := do(t, handler, http.MethodPost, "/v1/sweep", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 1, decodeBody(t, rec)["alerted"], 0)

	svc.sweepErr = errSweep

	rec = do(t, handler, http.MethodPost, "/v1/sweep", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

// TestHealthAndMetrics exposes the operational endpoints.
func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	handler := NewServer(new(fakeService), testSecret).Handler()

	rec := do(t, handler, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = do(t, handler, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

// TestRecovery converts panics into 500.
func TestRecovery(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(Recovery(), RequestLogger())
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	rec := do(t, router, http.MethodGet, "/panic", "", http.Header{invocationHeader: {"inv-1"}})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
