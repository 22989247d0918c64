package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeAttachmentDelete = "attachment:delete"
	TypeWebhookDeliver   = "webhook:deliver"
)

type AttachmentDeletePayload struct {
	Path string `json:"path"`
}

type WebhookDeliverPayload struct {
	WebhookID string          `json:"webhook_id"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
}

func NewAttachmentDeleteTask(p AttachmentDeletePayload) (*asynq.Task, error) {
	return newTask(TypeAttachmentDelete, p,
		asynq.Queue("low"), asynq.MaxRetry(5), asynq.Timeout(time.Minute))
}

func NewWebhookDeliverTask(p WebhookDeliverPayload) (*asynq.Task, error) {
	return newTask(TypeWebhookDeliver, p,
		asynq.Queue("default"), asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
}

func newTask(taskType string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(taskType, data, opts...), nil
}
