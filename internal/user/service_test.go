package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/attachment"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/shape"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

type fakeFiles struct{ discarded []string }

func (f *fakeFiles) Save(_ context.Context, folder string, up *attachment.Upload) (string, error) {
	if up == nil {
		return "", nil
	}
	return folder + "/" + up.Filename, nil
}

func (f *fakeFiles) Discard(_ context.Context, p string) { f.discarded = append(f.discarded, p) }

type invalidations []uuid.UUID

func (i *invalidations) Invalidate(_ context.Context, ids ...uuid.UUID) { *i = append(*i, ids...) }

var userColumns = []string{
	"id", "account_provider_id", "provider_id", "role_id", "role_name", "user_type", "name", "email", "phone",
	"profile_image", "cover_image", "is_active", "created_by", "created_at", "updated_at", "company", "doctor", "pharmacy",
}

func setup(t *testing.T) (*Service, pgxmock.PgxPoolIface, *tenant.Session, *invalidations) {
	svc, mock, sess, inv, _ := setupWithFiles(t)
	return svc, mock, sess, inv
}

func setupWithFiles(t *testing.T) (*Service, pgxmock.PgxPoolIface, *tenant.Session, *invalidations, *fakeFiles) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	owner := uuid.New()
	inv := &invalidations{}
	files := &fakeFiles{}
	svc := NewService(mock, files, inv, shape.New("http://api.test"))
	return svc, mock, &tenant.Session{UserID: owner, ProviderID: owner, UserType: models.UserTypeCompany}, inv, files
}

func employeeRow(id uuid.UUID, sess *tenant.Session, profileImage string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(userColumns).AddRow(
		id, &sess.ProviderID, sess.ProviderID, (*uuid.UUID)(nil), (*string)(nil), models.UserTypeEmployee,
		"Sara", "sara@example.com", "", profileImage, "", true,
		&sess.UserID, now, now, []byte(nil), []byte(nil), []byte(nil),
	)
}

func TestGetResolvesProfileAndRewritesImages(t *testing.T) {
	svc, mock, sess, _ := setup(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`(?s)FROM users t.* WHERE COALESCE\(t.account_provider_id, t.id\) = \$1 AND t.is_deleted = false AND t.id = \$2`).
		WithArgs(sess.ProviderID, id).
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(
			id, &sess.ProviderID, sess.ProviderID, (*uuid.UUID)(nil), (*string)(nil), models.UserTypePharmacy,
			"Nile Pharmacy", "nile@example.com", "", "users/p.png", "", true,
			&sess.UserID, now, now,
			[]byte(nil), []byte(`{"specialty":"x"}`), []byte(`{"user_id":"x","pharmacy_name":"Nile","logo":"logos/n.png"}`),
		))

	u, err := svc.Get(context.Background(), sess, id)
	require.NoError(t, err)

	require.NotNil(t, u.Profile)
	assert.Equal(t, models.UserTypePharmacy, u.Profile.Kind)
	assert.Nil(t, u.Profile.Doctor)
	assert.Equal(t, "Nile", u.Profile.Pharmacy.PharmacyName)
	assert.Equal(t, "http://api.test/api/v1/attachments?filePath=logos%2Fn.png", u.Profile.Pharmacy.Logo)
	assert.Equal(t, "http://api.test/api/v1/attachments?filePath=users%2Fp.png", u.ProfileImage)
	assert.Empty(t, u.CoverImage)
}

func TestGetOtherProviderIsNotFound(t *testing.T) {
	svc, mock, sess, _ := setup(t)
	id := uuid.New()
	mock.ExpectQuery(`FROM users t`).
		WithArgs(sess.ProviderID, id).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Get(context.Background(), sess, id)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSelfNotAllowed(t *testing.T) {
	svc, _, sess, _ := setup(t)
	err := svc.Delete(context.Background(), sess, sess.UserID)
	assert.ErrorIs(t, err, apperr.ErrCannotDeleteSelf)
	assert.Equal(t, 406, apperr.StatusOf(err))
}

func TestDeleteIsSoftAndScoped(t *testing.T) {
	svc, mock, sess, inv := setup(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE users t SET is_deleted = \$1, updated_at = now\(\) WHERE t.id = \$2 AND COALESCE\(t.account_provider_id, t.id\) = \$3 AND t.is_deleted = false`).
		WithArgs(true, id, sess.ProviderID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, svc.Delete(context.Background(), sess, id))
	assert.Equal(t, invalidations{id}, *inv)

	other := uuid.New()
	mock.ExpectExec(`UPDATE users t SET is_deleted`).
		WithArgs(true, other, sess.ProviderID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, svc.Delete(context.Background(), sess, other), apperr.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsForeignRole(t *testing.T) {
	svc, mock, sess, _ := setup(t)
	roleID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM roles WHERE id = \$1 AND provider_id = \$2\)`).
		WithArgs(roleID, sess.ProviderID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), sess, CreateRequest{
		Name: "Sara", Email: "sara@example.com", Password: "password123", RoleID: &roleID,
	})
	assert.ErrorIs(t, err, apperr.ErrRoleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOwnerByEmployeeNotAllowed(t *testing.T) {
	svc, mock, owner, _ := setup(t)
	employee := &tenant.Session{
		UserID: uuid.New(), ProviderID: owner.ProviderID, UserType: models.UserTypeEmployee,
		Permissions: []string{"users:write"},
	}
	inactive := false

	_, err := svc.Update(context.Background(), employee, owner.ProviderID, UpdateRequest{IsActive: &inactive})
	assert.ErrorIs(t, err, apperr.ErrCannotModifyOwner)
	assert.Equal(t, 406, apperr.StatusOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateImageFailureDiscardsNewFile(t *testing.T) {
	svc, mock, sess, inv, files := setupWithFiles(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM users t`).
		WithArgs(sess.ProviderID, id).
		WillReturnRows(employeeRow(id, sess, "users/old.png"))
	mock.ExpectQuery(`SELECT t.profile_image, t.cover_image FROM users t WHERE t.id = \$1`).
		WithArgs(id, sess.ProviderID).
		WillReturnRows(pgxmock.NewRows([]string{"profile_image", "cover_image"}).AddRow("users/old.png", ""))
	mock.ExpectExec(`UPDATE users t SET profile_image = \$1`).
		WithArgs("users/new.png", id, sess.ProviderID).
		WillReturnError(assert.AnError)

	_, err := svc.Update(context.Background(), sess, id, UpdateRequest{
		ProfileImage: &attachment.Upload{Filename: "new.png", Reader: strings.NewReader("png")},
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"users/new.png"}, files.discarded)
	assert.Empty(t, *inv)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateImageDiscardsReplacedFile(t *testing.T) {
	svc, mock, sess, inv, files := setupWithFiles(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM users t`).
		WithArgs(sess.ProviderID, id).
		WillReturnRows(employeeRow(id, sess, "users/old.png"))
	mock.ExpectQuery(`SELECT t.profile_image, t.cover_image FROM users t`).
		WithArgs(id, sess.ProviderID).
		WillReturnRows(pgxmock.NewRows([]string{"profile_image", "cover_image"}).AddRow("users/old.png", ""))
	mock.ExpectExec(`UPDATE users t SET profile_image = \$1`).
		WithArgs("users/new.png", id, sess.ProviderID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`FROM users t`).
		WithArgs(sess.ProviderID, id).
		WillReturnRows(employeeRow(id, sess, "users/new.png"))

	u, err := svc.Update(context.Background(), sess, id, UpdateRequest{
		ProfileImage: &attachment.Upload{Filename: "new.png", Reader: strings.NewReader("png")},
	})
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/api/v1/attachments?filePath=users%2Fnew.png", u.ProfileImage)
	assert.Equal(t, []string{"users/old.png"}, files.discarded)
	assert.Equal(t, invalidations{id}, *inv)
	assert.NoError(t, mock.ExpectationsWereMet())
}
