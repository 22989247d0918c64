package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/queue"
)

type fakeDeleter struct {
	paths []string
	err   error
}

func (f *fakeDeleter) Delete(_ context.Context, path string) error {
	f.paths = append(f.paths, path)
	return f.err
}

type fakeDeliverer struct {
	got []queue.WebhookDeliverPayload
}

func (f *fakeDeliverer) Deliver(_ context.Context, p queue.WebhookDeliverPayload) error {
	f.got = append(f.got, p)
	return nil
}

func TestAttachmentWorkerDeletesPath(t *testing.T) {
	files := &fakeDeleter{}
	task, err := queue.NewAttachmentDeleteTask(queue.AttachmentDeletePayload{Path: "products/a.png"})
	require.NoError(t, err)

	require.NoError(t, NewAttachmentWorker(files).ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"products/a.png"}, files.paths)
}

func TestAttachmentWorkerRetriesOnStoreError(t *testing.T) {
	files := &fakeDeleter{err: errors.New("storage down")}
	task, err := queue.NewAttachmentDeleteTask(queue.AttachmentDeletePayload{Path: "users/b.png"})
	require.NoError(t, err)

	err = NewAttachmentWorker(files).ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(queue.TypeWebhookDeliver, []byte("{"))

	err := NewWebhookWorker(&fakeDeliverer{}).ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWebhookWorkerForwardsPayload(t *testing.T) {
	d := &fakeDeliverer{}
	task, err := queue.NewWebhookDeliverTask(queue.WebhookDeliverPayload{
		WebhookID: "wh-1", Event: "vacation.approved", Payload: []byte(`{"id":"x"}`),
	})
	require.NoError(t, err)

	require.NoError(t, NewWebhookWorker(d).ProcessTask(context.Background(), task))
	require.Len(t, d.got, 1)
	assert.Equal(t, "vacation.approved", d.got[0].Event)
	assert.JSONEq(t, `{"id":"x"}`, string(d.got[0].Payload))
}
