package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/cache"
	"github.com/nikhilbhutani/staffdesk/internal/models"
)

func setup(t *testing.T) (*Service, pgxmock.PgxPoolIface, *miniredis.Miniredis) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewService(mock, cache.NewCache(client), time.Minute), mock, mr
}

func TestSessionLoadsAndCaches(t *testing.T) {
	svc, mock, mr := setup(t)
	ctx := context.Background()
	userID, providerID, roleID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT COALESCE\(account_provider_id, id\), user_type, role_id, is_active`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"provider", "user_type", "role_id", "is_active"}).
			AddRow(providerID, models.UserTypeEmployee, &roleID, true))
	mock.ExpectQuery(`SELECT p.key FROM role_permissions`).
		WithArgs(roleID).
		WillReturnRows(pgxmock.NewRows([]string{"key"}).AddRow("vacations:read").AddRow("vacations:write"))

	sess, err := svc.Session(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, providerID, sess.ProviderID)
	assert.False(t, sess.IsOwner())
	assert.True(t, sess.Can("vacations:write"))
	assert.False(t, sess.Can("roles:delete"))

	// second read is served from redis
	again, err := svc.Session(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, sess, again)
	assert.NoError(t, mock.ExpectationsWereMet())

	svc.InvalidateRole(ctx, roleID)
	assert.False(t, mr.Exists("session:"+userID.String()))
}

func TestInvalidateDropsCachedSession(t *testing.T) {
	svc, mock, mr := setup(t)
	ctx := context.Background()
	owner := uuid.New()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(owner).
		WillReturnRows(pgxmock.NewRows([]string{"provider", "user_type", "role_id", "is_active"}).
			AddRow(owner, models.UserTypeCompany, (*uuid.UUID)(nil), true))

	sess, err := svc.Session(ctx, owner)
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+owner.String()))

	svc.Invalidate(ctx, owner)
	assert.False(t, mr.Exists("session:"+owner.String()))

	got := FromContext(WithSession(ctx, sess))
	assert.Same(t, sess, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionUnknownUser(t *testing.T) {
	svc, mock, _ := setup(t)
	userID := uuid.New()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(userID).WillReturnError(pgx.ErrNoRows)

	_, err := svc.Session(context.Background(), userID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestSessionInactiveUser(t *testing.T) {
	svc, mock, _ := setup(t)
	userID := uuid.New()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"provider", "user_type", "role_id", "is_active"}).
			AddRow(userID, models.UserTypeCompany, (*uuid.UUID)(nil), false))

	_, err := svc.Session(context.Background(), userID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestOwnerHoldsEveryPermission(t *testing.T) {
	id := uuid.New()
	s := &Session{UserID: id, ProviderID: id, UserType: models.UserTypeCompany}
	assert.True(t, s.IsOwner())
	assert.True(t, s.Can("salaries:delete"))
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))
	assert.Equal(t, uuid.Nil, ProviderFromContext(ctx))

	s := &Session{UserID: uuid.New(), ProviderID: uuid.New()}
	ctx = WithSession(ctx, s)
	assert.Same(t, s, FromContext(ctx))
	assert.Equal(t, s.ProviderID, ProviderFromContext(ctx))
}
