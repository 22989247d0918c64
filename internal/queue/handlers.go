package queue

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/hibiken/asynq"
)

// HandlersRegistry routes task types to workers and logs every run.
type HandlersRegistry struct {
	mux   *asynq.ServeMux
	types []string
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{mux: asynq.NewServeMux()}
}

func (r *HandlersRegistry) Register(taskType string, fn func(context.Context, *asynq.Task) error) {
	r.types = append(r.types, taskType)
	r.mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := fn(ctx, t)
		if err != nil {
			slog.Warn("task failed", "type", t.Type(), "duration", time.Since(start), "error", err)
			return err
		}
		slog.Info("task done", "type", t.Type(), "duration", time.Since(start))
		return nil
	})
}

// Types lists registered task types in order.
func (r *HandlersRegistry) Types() []string {
	out := append([]string(nil), r.types...)
	sort.Strings(out)
	return out
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}
