package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/auth"
	"github.com/nikhilbhutani/staffdesk/internal/config"
	"github.com/nikhilbhutani/staffdesk/internal/models"
)

const secret = "test-secret-test-secret-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{AllowedOrigins: []string{"*"}, RateLimitRPS: 100, RateLimitBurst: 100},
		Auth:      config.AuthConfig{JWTSecret: secret, SessionTTL: time.Minute},
		API:       config.APIConfig{PublicURL: "http://api.test", DefaultLimit: 20, MaxUploadMB: 5},
		Telemetry: config.TelemetryConfig{ServiceName: "staffdesk-test"},
	}
}

func setup(t *testing.T) (http.Handler, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRouter(mock, nil, nil, testConfig(), nil).Setup(), mock
}

func TestHealthzIsPublic(t *testing.T) {
	h, _ := setup(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	h, _ := setup(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMissingPermissionIsForbidden(t *testing.T) {
	h, mock := setup(t)
	provider, employee, roleID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT COALESCE\(account_provider_id, id\), user_type, role_id, is_active`).
		WithArgs(employee).
		WillReturnRows(pgxmock.NewRows([]string{"provider", "user_type", "role_id", "is_active"}).
			AddRow(provider, models.UserTypeEmployee, &roleID, true))
	mock.ExpectQuery(`SELECT p.key FROM role_permissions`).
		WithArgs(roleID).
		WillReturnRows(pgxmock.NewRows([]string{"key"}).AddRow(auth.PermVacationsRead))

	token, err := auth.IssueToken(secret, employee, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/salaries", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Language", "ar")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ليس لديك صلاحية")
	assert.NoError(t, mock.ExpectationsWereMet())
}
