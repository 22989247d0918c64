package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/staffdesk/internal/queue"
)

// Deleter removes a stored object by path.
type Deleter interface {
	Delete(ctx context.Context, path string) error
}

type AttachmentWorker struct {
	files Deleter
}

func NewAttachmentWorker(files Deleter) *AttachmentWorker {
	return &AttachmentWorker{files: files}
}

func (w *AttachmentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AttachmentDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.files.Delete(ctx, payload.Path); err != nil {
		return fmt.Errorf("delete attachment %s: %w", payload.Path, err)
	}
	slog.Info("attachment deleted", "path", payload.Path)
	return nil
}
