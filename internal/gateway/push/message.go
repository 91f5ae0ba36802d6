package push

import (
	"firebase.google.com/go/v4/messaging"

	"github.com/oshokin/famcal-notifier/internal/domain/notification"
)

// APNs header values.
const (
	apnsPriorityHeader = "apns-priority"
	apnsPushTypeHeader = "apns-push-type"

	apnsPriorityImmediate  = "10"
	apnsPriorityBackground = "5"
	apnsPushTypeAlert      = "alert"
	apnsPushTypeBackground = "background"
)

// Android delivery priorities.
const (
	androidPriorityHigh   = "high"
	androidPriorityNormal = "normal"
)

// silentDataKey marks background messages for the iOS client.
const silentDataKey = "silent"

// buildMessage maps a payload onto an FCM multicast message.
func buildMessage(tokens []string, payload *notification.Payload) *messaging.MulticastMessage {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   payload.Data,
	}

	if payload.Silent() {
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{
				apnsPriorityHeader: apnsPriorityBackground,
				apnsPushTypeHeader: apnsPushTypeBackground,
			},
			Payload: &messaging.APNSPayload{
				Aps:        &messaging.Aps{ContentAvailable: true},
				CustomData: map[string]any{silentDataKey: true},
			},
		}
		msg.Android = &messaging.AndroidConfig{Priority: androidPriorityHigh}

		return msg
	}

	hints := payload.Hints

	msg.Notification = &messaging.Notification{
		Title: payload.Title,
		Body:  payload.Body,
	}

	aps := &messaging.Aps{Sound: hints.Sound}
	if hints.Badge > 0 {
		badge := hints.Badge
		aps.Badge = &badge
	}

	msg.APNS = &messaging.APNSConfig{
		Headers: map[string]string{
			apnsPriorityHeader: apnsPriorityImmediate,
			apnsPushTypeHeader: apnsPushTypeAlert,
		},
		Payload: &messaging.APNSPayload{Aps: aps},
	}

	priority := androidPriorityNormal
	if hints.HighPriority {
		priority = androidPriorityHigh
	}

	msg.Android = &messaging.AndroidConfig{
		Priority: priority,
		Notification: &messaging.AndroidNotification{
			ChannelID: hints.AndroidChannel,
			Sound:     hints.Sound,
		},
	}

	return msg
}
