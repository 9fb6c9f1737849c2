package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/toko-billing/internal/common"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/events"
)

// QueueNotifications is the asynq queue notification tasks are placed on.
const QueueNotifications = "notifications"

// TaskType maps an event topic to its asynq task type.
func TaskType(topic string) string {
	return "notify:" + topic
}

// TaskPayload is the body of every notification task.
type TaskPayload struct {
	EventID    string          `json:"eventId"`
	Topic      string          `json:"topic"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Enqueuer is the subset of *asynq.Client used here.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskNotifier turns outbox events into asynq tasks. The event id doubles as
// the task id, so re-emitting the same event is a no-op.
type TaskNotifier struct {
	Client   Enqueuer
	Topics   map[string]bool
	MaxRetry int
}

// NewTaskNotifier enables the given topics, or events.DefaultTopics when none are passed.
func NewTaskNotifier(client Enqueuer, topics ...string) *TaskNotifier {
	if len(topics) == 0 {
		topics = events.DefaultTopics()
	}
	enabled := make(map[string]bool, len(topics))
	for _, t := range topics {
		enabled[t] = true
	}
	return &TaskNotifier{Client: client, Topics: enabled, MaxRetry: 5}
}

// Notify implements events.Notifier.
func (n *TaskNotifier) Notify(ctx context.Context, event dbgen.DomainEvent) error {
	if n == nil || n.Client == nil || !n.Topics[event.Topic] {
		return nil
	}
	eventID := common.UUIDString(event.ID)
	body, err := json.Marshal(TaskPayload{
		EventID:    eventID,
		Topic:      event.Topic,
		OccurredAt: event.OccurredAt.Time,
		Data:       json.RawMessage(event.Payload),
	})
	if err != nil {
		return fmt.Errorf("notify: encode task: %w", err)
	}
	task := asynq.NewTask(TaskType(event.Topic), body)
	_, err = n.Client.EnqueueContext(ctx, task,
		asynq.Queue(QueueNotifications),
		asynq.TaskID(eventID),
		asynq.MaxRetry(n.MaxRetry),
		asynq.Timeout(30*time.Second),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("notify: enqueue %s: %w", event.Topic, err)
	}
	return nil
}
