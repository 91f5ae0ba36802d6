package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/oshokin/famcal-notifier/internal/domain/notification"
)

// MaxBatchSize is the largest token list FCM accepts per multicast call.
const MaxBatchSize = 500

// ErrMismatchedResponses is returned when FCM answers with a different number of
// results than tokens sent.
var ErrMismatchedResponses = errors.New("fcm returned mismatched responses")

// multicastClient is the part of *messaging.Client the sender uses.
type multicastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMSender delivers payloads through Firebase Cloud Messaging.
type FCMSender struct {
	client    multicastClient
	classify  func(err error) Outcome
	batchSize int
}

// NewFCMSender creates a sender backed by the Firebase Admin SDK.
func NewFCMSender(ctx context.Context, projectID, credentialsFile string) (*FCMSender, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	return dialFCM(ctx, projectID, opts...)
}

func dialFCM(ctx context.Context, projectID string, opts ...option.ClientOption) (*FCMSender, error) {
	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("create messaging client: %w", err)
	}

	return newFCMSender(client), nil
}

func newFCMSender(client multicastClient) *FCMSender {
	return &FCMSender{
		client:    client,
		classify:  classifyFCMError,
		batchSize: MaxBatchSize,
	}
}

// Send delivers the payload in batches of at most MaxBatchSize tokens.
func (s *FCMSender) Send(
	ctx context.Context,
	destinations []string,
	payload *notification.Payload,
) (*Report, error) {
	report := new(Report)

	for start := 0; start < len(destinations); start += s.batchSize {
		batch := destinations[start:min(start+s.batchSize, len(destinations))]

		resp, err := s.client.SendEachForMulticast(ctx, buildMessage(batch, payload))
		if err != nil {
			return report, fmt.Errorf("send multicast: %w", err)
		}

		if len(resp.Responses) != len(batch) {
			return report, fmt.Errorf("%w: sent %d, got %d", ErrMismatchedResponses, len(batch), len(resp.Responses))
		}

		for i, r := range resp.Responses {
			res := Result{Destination: batch[i]}

			switch {
			case r.Success:
				res.Outcome = OutcomeDelivered
			default:
				res.Err = r.Error
				res.Outcome = s.classify(r.Error)
			}

			report.add(res)
		}
	}

	return report, nil
}

// classifyFCMError treats unregistered and foreign-sender tokens as invalid.
// INVALID_ARGUMENT is transient here: FCM also returns it for oversized or
// malformed payloads, which say nothing about the token.
func classifyFCMError(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeTransient
	case messaging.IsUnregistered(err),
		messaging.IsSenderIDMismatch(err):
		return OutcomeInvalidDestination
	default:
		return OutcomeTransient
	}
}
