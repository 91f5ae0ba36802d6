package push

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/famcal-notifier/internal/domain/notification"
)

var (
	errUnregistered = errors.New("unregistered")
	errUnavailable  = errors.New("unavailable")
)

// fakeMulticast answers every token through a per-token error table.
type fakeMulticast struct {
	calls    []*messaging.MulticastMessage
	failWith map[string]error
	err      error
}

func (f *fakeMulticast) SendEachForMulticast(
	_ context.Context,
	msg *messaging.MulticastMessage,
) (*messaging.BatchResponse, error) {
	f.calls = append(f.calls, msg)

	if f.err != nil {
		return nil, f.err
	}

	resp := new(messaging.BatchResponse)

	for _, token := range msg.Tokens {
		if err, ok := f.failWith[token]; ok {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: err})

			continue
		}

		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: "m-" + token})
	}

	return resp, nil
}

func testClassify(err error) Outcome {
	if errors.Is(err, errUnregistered) {
		return OutcomeInvalidDestination
	}

	return OutcomeTransient
}

func visiblePayload() *notification.Payload {
	return &notification.Payload{
		Kind:  notification.KindAssigned,
		Title: "title",
		Body:  "body",
		Data:  map[string]string{notification.KeyType: notification.TypeEventAssigned},
		Hints: notification.Hints{
			Class:          notification.ClassVisible,
			Sound:          notification.DefaultSound,
			Badge:          1,
			AndroidChannel: notification.ChannelAssignments,
		},
	}
}

// TestFCMSender_Send classifies each destination and aligns results by position.
func TestFCMSender_Send(t *testing.T) {
	t.Parallel()

	client := &fakeMulticast{failWith: map[string]error{
		"t2": errUnregistered,
		"t3": errUnavailable,
	}}

	sender := newFCMSender(client)
	sender.classify = testClassify

	report, err := sender.Send(context.Background(), []string{"t1", "t2", "t3"}, visiblePayload())
	require.NoError(t, err)
	require.Len(t, client.calls, 1)
	require.Equal(t, 1, report.SuccessCount)
	require.Equal(t, 2, report.FailureCount)
	require.Equal(t, []string{"t2"}, report.InvalidDestinations())
	require.Equal(t, OutcomeTransient, report.Results[2].Outcome)
	require.ErrorIs(t, report.Results[2].Err, errUnavailable)
}

// TestFCMSender_Batches splits large destination sets.
func TestFCMSender_Batches(t *testing.T) {
	t.Parallel()

	client := &fakeMulticast{failWith: map[string]error{"t4": errUnregistered}}

	sender := newFCMSender(client)
	sender.classify = testClassify
	sender.batchSize = 2

	report, err := sender.Send(context.Background(), []string{"t1", "t2", "t3", "t4", "t5"}, visiblePayload())
	require.NoError(t, err)
	require.Len(t, client.calls, 3)
	require.Equal(t, []string{"t5"}, client.calls[2].Tokens)
	require.Len(t, report.Results, 5)
	require.Equal(t, []string{"t4"}, report.InvalidDestinations())
}

// TestFCMSender_EmptyAndFailure covers the no-op and whole-request failure paths.
func TestFCMSender_EmptyAndFailure(t *testing.T) {
	t.Parallel()

	client := &fakeMulticast{err: errUnavailable}
	sender := newFCMSender(client)

	report, err := sender.Send(context.Background(), nil, visiblePayload())
	require.NoError(t, err)
	require.Empty(t, report.Results)
	require.Empty(t, client.calls)

	_, err = sender.Send(context.Background(), []string{"t1"}, visiblePayload())
	require.ErrorIs(t, err, errUnavailable)
}

// TestBuildMessage_Visible carries alert text, sound, badge and channel.
func TestBuildMessage_Visible(t *testing.T) {
	t.Parallel()

	payload := visiblePayload()
	payload.Hints.HighPriority = true

	msg := buildMessage([]string{"t1"}, payload)

	require.Equal(t, &messaging.Notification{Title: "title", Body: "body"}, msg.Notification)
	require.Equal(t, payload.Data, msg.Data)
	require.Equal(t, "10", msg.APNS.Headers["apns-priority"])
	require.Equal(t, "default", msg.APNS.Payload.Aps.Sound)
	require.NotNil(t, msg.APNS.Payload.Aps.Badge)
	require.Equal(t, 1, *msg.APNS.Payload.Aps.Badge)
	require.False(t, msg.APNS.Payload.Aps.ContentAvailable)
	require.Equal(t, "high", msg.Android.Priority)
	require.Equal(t, notification.ChannelAssignments, msg.Android.Notification.ChannelID)
}

// TestBuildMessage_Silent sends a background update with no alert.
func TestBuildMessage_Silent(t *testing.T) {
	t.Parallel()

	payload := &notification.Payload{
		Kind:  notification.KindCalendarRemoval,
		Data:  map[string]string{notification.KeyType: notification.TypeCalendarRemoval},
		Hints: notification.Hints{Class: notification.ClassSilent, HighPriority: true},
	}

	msg := buildMessage([]string{"t1"}, payload)

	require.Nil(t, msg.Notification)
	require.Equal(t, "5", msg.APNS.Headers["apns-priority"])
	require.Equal(t, "background", msg.APNS.Headers["apns-push-type"])
	require.True(t, msg.APNS.Payload.Aps.ContentAvailable)
	require.Empty(t, msg.APNS.Payload.Aps.Sound)
	require.Nil(t, msg.APNS.Payload.Aps.Badge)
	require.Equal(t, true, msg.APNS.Payload.CustomData["silent"])
	require.Nil(t, msg.Android.Notification)
}

// TestLogSender_Send reports every destination as delivered.
func TestLogSender_Send(t *testing.T) {
	t.Parallel()

	report, err := NewLogSender().Send(context.Background(), []string{"a", "b"}, visiblePayload())
	require.NoError(t, err)
	require.Equal(t, 2, report.SuccessCount)
	require.Empty(t, report.InvalidDestinations())

	require.Equal(t, "invalid_destination", OutcomeInvalidDestination.String())
	require.Nil(t, (*Report)(nil).InvalidDestinations())
}
