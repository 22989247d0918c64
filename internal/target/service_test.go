package target

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/shape"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, models.TargetAchieved, StatusFor(models.TargetInProgress, 100, 100))
	assert.Equal(t, models.TargetAchieved, StatusFor(models.TargetMissed, 100, 150))
	assert.Equal(t, models.TargetInProgress, StatusFor(models.TargetAchieved, 100, 99))
	assert.Equal(t, models.TargetMissed, StatusFor(models.TargetMissed, 100, 10))
	assert.Equal(t, models.TargetInProgress, StatusFor(0, 100, 10))
}

var columns = []string{
	"id", "provider_id", "created_by", "user_id", "product_id", "title", "target_value", "achieved_value",
	"start_date", "end_date", "status", "created_at", "updated_at", "u_id", "u_name", "u_user_type", "u_profile_image",
}

func row(id uuid.UUID, sess *tenant.Session, achieved float64, status models.TargetStatus) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(columns).AddRow(
		id, sess.ProviderID, sess.UserID, sess.UserID, (*uuid.UUID)(nil), "Q3 sales", 1000.0, achieved,
		models.NewDate(2024, time.July, 1), models.NewDate(2024, time.September, 30), status, now, now,
		sess.UserID, "Owner", models.UserTypeCompany, "",
	)
}

func TestUpdateAchievedFlipsStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	owner := uuid.New()
	sess := &tenant.Session{UserID: owner, ProviderID: owner}
	svc := NewService(mock, shape.New("http://api.test"))
	id := uuid.New()
	achieved := 1200.0

	mock.ExpectQuery(`FROM targets t JOIN users u ON u.id = t.user_id WHERE t.provider_id = \$1`).
		WithArgs(owner, id).
		WillReturnRows(row(id, sess, 400, models.TargetInProgress))
	mock.ExpectExec(`UPDATE targets t SET achieved_value = \$1, status = \$2, updated_at = now\(\) WHERE t.id = \$3 AND t.provider_id = \$4`).
		WithArgs(achieved, int16(models.TargetAchieved), id, owner).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`FROM targets t`).
		WithArgs(owner, id).
		WillReturnRows(row(id, sess, achieved, models.TargetAchieved))

	got, err := svc.Update(context.Background(), sess, id, UpdateRequest{AchievedValue: &achieved})
	require.NoError(t, err)
	assert.Equal(t, models.TargetAchieved, got.Status)
	assert.Equal(t, 100.0, got.Progress())
	assert.NoError(t, mock.ExpectationsWereMet())
}
