package tasks

import (
	"context"
	"fmt"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// taskCreator is the part of *cloudtasks.Client the queue uses.
type taskCreator interface {
	CreateTask(ctx context.Context, req *cloudtaskspb.CreateTaskRequest, opts ...gax.CallOption) (*cloudtaskspb.Task, error)
}

// CloudTasksQueue enqueues HTTP tasks in Google Cloud Tasks.
type CloudTasksQueue struct {
	client    taskCreator
	closer    func() error
	projectID string
	location  string
	secret    string
	now       func() time.Time
}

// NewCloudTasksQueue connects to Cloud Tasks. Callback tokens are signed with secret.
func NewCloudTasksQueue(
	ctx context.Context,
	projectID, location, credentialsFile, secret string,
) (*CloudTasksQueue, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := cloudtasks.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create cloud tasks client: %w", err)
	}

	q := newCloudTasksQueue(client, projectID, location, secret)
	q.closer = client.Close

	return q, nil
}

func newCloudTasksQueue(client taskCreator, projectID, location, secret string) *CloudTasksQueue {
	return &CloudTasksQueue{
		client:    client,
		closer:    func() error { return nil },
		projectID: projectID,
		location:  location,
		secret:    secret,
		now:       time.Now,
	}
}

// Enqueue creates an authenticated POST task firing at req.ScheduleTime.
func (q *CloudTasksQueue) Enqueue(ctx context.Context, req *Request) (string, error) {
	if err := req.validate(true); err != nil {
		return "", err
	}

	token, err := SignCallbackToken(q.secret, q.now(), req.ScheduleTime)
	if err != nil {
		return "", err
	}

	task, err := q.client.CreateTask(ctx, &cloudtaskspb.CreateTaskRequest{
		Parent: q.queuePath(req.Queue),
		Task: &cloudtaskspb.Task{
			MessageType: &cloudtaskspb.Task_HttpRequest{
				HttpRequest: &cloudtaskspb.HttpRequest{
					Url:        req.TargetURL,
					HttpMethod: cloudtaskspb.HttpMethod_POST,
					Headers: map[string]string{
						"Content-Type":  "application/json",
						"Authorization": "Bearer " + token,
					},
					Body: req.Body,
				},
			},
			ScheduleTime: timestamppb.New(req.ScheduleTime),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create task in %q: %w", req.Queue, err)
	}

	return task.GetName(), nil
}

// Close releases the client.
func (q *CloudTasksQueue) Close() error {
	return q.closer()
}

func (q *CloudTasksQueue) queuePath(queue string) string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", q.projectID, q.location, queue)
}
