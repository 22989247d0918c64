package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/staffdesk/internal/queue"
)

type Deliverer interface {
	Deliver(ctx context.Context, p queue.WebhookDeliverPayload) error
}

type WebhookWorker struct {
	deliverer Deliverer
}

func NewWebhookWorker(d Deliverer) *WebhookWorker {
	return &WebhookWorker{deliverer: d}
}

func (w *WebhookWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.WebhookDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	return w.deliverer.Deliver(ctx, payload)
}
