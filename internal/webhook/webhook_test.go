package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/queue"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

type recordingQueue struct {
	got []queue.WebhookDeliverPayload
}

func (q *recordingQueue) EnqueueWebhookDeliver(_ context.Context, p queue.WebhookDeliverPayload) error {
	q.got = append(q.got, p)
	return nil
}

func TestDispatchQueuesMatchingWebhooks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	q := &recordingQueue{}
	svc := NewService(mock, q)
	provider, w1, w2 := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT id FROM webhooks`).
		WithArgs(provider, `["vacation_request.approved"]`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(w1).AddRow(w2))

	svc.Dispatch(context.Background(), provider, "vacation_request.approved", map[string]string{"id": "r1"})

	require.Len(t, q.got, 2)
	assert.Equal(t, w1.String(), q.got[0].WebhookID)
	assert.JSONEq(t, `{"id":"r1"}`, string(q.got[1].Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOtherProvidersWebhookIsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	sess := &tenant.Session{ProviderID: uuid.New()}
	id := uuid.New()
	mock.ExpectExec(`DELETE FROM webhooks WHERE id = \$1 AND provider_id = \$2`).
		WithArgs(id, sess.ProviderID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = NewService(mock, nil).Delete(context.Background(), sess, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeliverSignsAndRecords(t *testing.T) {
	var gotSig, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Webhook-Signature")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT url, secret, is_active FROM webhooks`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"url", "secret", "is_active"}).AddRow(srv.URL, "s3cret", true))
	mock.ExpectExec(`INSERT INTO webhook_deliveries`).
		WithArgs(id, "e", []byte(`{"id":"r1"}`), http.StatusOK, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	payload := json.RawMessage(`{"id":"r1"}`)
	err = NewDeliverer(mock).Deliver(context.Background(), queue.WebhookDeliverPayload{
		WebhookID: id.String(), Event: "e", Payload: payload,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"id":"r1"}`, gotBody)
	assert.Equal(t, sign(payload, "s3cret"), gotSig)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliverRetriesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT url, secret, is_active FROM webhooks`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"url", "secret", "is_active"}).AddRow(srv.URL, "s", true))
	mock.ExpectExec(`INSERT INTO webhook_deliveries`).
		WithArgs(id, "e", []byte(nil), http.StatusBadGateway, (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewDeliverer(mock).Deliver(context.Background(), queue.WebhookDeliverPayload{WebhookID: id.String(), Event: "e"})
	assert.ErrorContains(t, err, "502")
	assert.NoError(t, mock.ExpectationsWereMet())
}
