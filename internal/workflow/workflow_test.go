package workflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/query"
)

func TestLockPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	provider, id := uuid.New(), uuid.New()
	scope := query.Direct("t.provider_id", provider)

	mock.ExpectBegin()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT t.status FROM vacation_requests t WHERE t.id = \$1 AND t.provider_id = \$2 AND t.is_deleted = false FOR UPDATE`).
		WithArgs(id, provider).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(models.StatusPending))
	assert.NoError(t, LockPending(ctx, tx, "vacation_requests", scope, id))

	mock.ExpectQuery(`SELECT t.status`).
		WithArgs(id, provider).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(models.StatusApproved))
	assert.ErrorIs(t, LockPending(ctx, tx, "vacation_requests", scope, id), apperr.ErrRequestNotPending)

	mock.ExpectQuery(`SELECT t.status`).WithArgs(id, provider).WillReturnError(pgx.ErrNoRows)
	assert.ErrorIs(t, LockPending(ctx, tx, "vacation_requests", scope, id), apperr.ErrRequestNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateDecision(t *testing.T) {
	assert.NoError(t, ValidateDecision(models.StatusApproved))
	assert.NoError(t, ValidateDecision(models.StatusRejected))
	assert.ErrorIs(t, ValidateDecision(models.StatusPending), apperr.ErrInvalidInput)
	assert.ErrorIs(t, ValidateDecision(models.StatusWithdrawn), apperr.ErrInvalidInput)
}

func TestEvent(t *testing.T) {
	assert.Equal(t, "vacation_request.approved", Event("vacation", models.StatusApproved))
	assert.Equal(t, "point_request.withdrawn", Event("point", models.StatusWithdrawn))
}

func TestSoftDeleteScoped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	provider, id := uuid.New(), uuid.New()
	mock.ExpectExec(`UPDATE products t SET is_deleted = \$1, updated_at = now\(\) WHERE t.id = \$2 AND t.provider_id = \$3 AND t.is_deleted = false`).
		WithArgs(true, id, provider).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := SoftDelete(context.Background(), mock, "products", query.Direct("t.provider_id", provider), id)
	require.NoError(t, err)
	assert.False(t, ok)
}
