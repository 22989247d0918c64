package commission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/shape"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

type recorder struct{ events []string }

func (r *recorder) Dispatch(_ context.Context, _ uuid.UUID, name string, _ any) {
	r.events = append(r.events, name)
}

var requestColumns = []string{
	"id", "commission_id", "commission_name", "commission_type", "user_id", "provider_id", "created_by",
	"request_type", "sale_amount", "amount", "status", "source_request_id", "created_at", "updated_at",
	"u_id", "u_name", "u_user_type", "u_profile_image",
}

func setup(t *testing.T) (*Service, pgxmock.PgxPoolIface, *tenant.Session, *recorder) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	owner := uuid.New()
	rec := &recorder{}
	return NewService(mock, rec, shape.New("http://api.test")), mock, &tenant.Session{UserID: owner, ProviderID: owner}, rec
}

func requestRow(id uuid.UUID, sess *tenant.Session, kind models.RequestType, status models.RequestStatus, amount float64) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(requestColumns).AddRow(
		id, uuid.New(), "Sales", models.CommissionPercentage, sess.UserID, sess.ProviderID, sess.UserID,
		kind, 1000.0, amount, status, (*uuid.UUID)(nil), now, now,
		sess.UserID, "Owner", models.UserTypeCompany, "",
	)
}

func TestSubmitDerivesAmountFromCommission(t *testing.T) {
	svc, mock, sess, _ := setup(t)
	cid, rid := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users`).
		WithArgs(sess.UserID, sess.ProviderID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM commissions t WHERE EXISTS`).
		WithArgs(sess.ProviderID, cid).
		WillReturnRows(pgxmock.NewRows([]string{"id", "provider_id", "created_by", "name", "commission_type", "value", "created_at", "updated_at"}).
			AddRow(cid, sess.ProviderID, sess.UserID, "Sales", models.CommissionPercentage, 2.5, now, now))
	mock.ExpectQuery(`INSERT INTO commission_requests`).
		WithArgs(cid, sess.UserID, sess.ProviderID, sess.UserID, int16(models.RequestEarn), 1000.0, 25.0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(rid))
	mock.ExpectQuery(`FROM commission_requests t`).
		WithArgs(sess.ProviderID, rid).
		WillReturnRows(requestRow(rid, sess, models.RequestEarn, models.StatusPending, 25))

	r, err := svc.Submit(context.Background(), sess, SubmitRequest{CommissionID: cid, SaleAmount: 1000})
	require.NoError(t, err)
	assert.Equal(t, 25.0, r.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawRequiresApproved(t *testing.T) {
	svc, mock, sess, rec := setup(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT t.status FROM commission_requests t`).
		WithArgs(id, sess.ProviderID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(models.StatusPending))
	mock.ExpectRollback()

	_, err := svc.Withdraw(context.Background(), sess, id)
	assert.ErrorIs(t, err, apperr.ErrRequestNotApproved)
	assert.Empty(t, rec.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawRecordsEntryAndFlipsSource(t *testing.T) {
	svc, mock, sess, rec := setup(t)
	id, wid := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT t.status FROM commission_requests t`).
		WithArgs(id, sess.ProviderID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(models.StatusApproved))
	mock.ExpectQuery(`INSERT INTO commission_requests`).
		WithArgs(id, sess.UserID, int16(models.RequestWithdraw), int16(models.StatusApproved), int16(models.RequestEarn)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(wid))
	mock.ExpectExec(`UPDATE commission_requests SET status = \$1`).
		WithArgs(int16(models.StatusWithdrawn), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM commission_requests t`).
		WithArgs(sess.ProviderID, wid).
		WillReturnRows(requestRow(wid, sess, models.RequestWithdraw, models.StatusApproved, 25))

	r, err := svc.Withdraw(context.Background(), sess, id)
	require.NoError(t, err)
	assert.Equal(t, models.RequestWithdraw, r.RequestType)
	assert.Equal(t, []string{"commission_request.withdrawn"}, rec.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsNonDecision(t *testing.T) {
	svc, _, sess, _ := setup(t)
	_, err := svc.UpdateStatus(context.Background(), sess, uuid.New(), models.StatusWithdrawn)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCreateRejectsPercentageOverHundred(t *testing.T) {
	svc, _, sess, _ := setup(t)
	_, err := svc.Create(context.Background(), sess, CreateRequest{
		Name: "Too much", CommissionType: models.CommissionPercentage, Value: 120,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestDeleteRequestKeepsDecidedEntries(t *testing.T) {
	svc, mock, sess, _ := setup(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT t.status FROM commission_requests t`).
		WithArgs(id, sess.ProviderID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(models.StatusApproved))
	mock.ExpectRollback()

	err := svc.DeleteRequest(context.Background(), sess, id)
	assert.ErrorIs(t, err, apperr.ErrRequestDecided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRequestPending(t *testing.T) {
	svc, mock, sess, _ := setup(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT t.status FROM commission_requests t`).
		WithArgs(id, sess.ProviderID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(models.StatusPending))
	mock.ExpectExec(`UPDATE commission_requests SET is_deleted = true`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteRequest(context.Background(), sess, id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
