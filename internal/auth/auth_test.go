package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

const secret = "test-secret"

type fakeSessions map[uuid.UUID]*tenant.Session

func (f fakeSessions) Session(_ context.Context, id uuid.UUID) (*tenant.Session, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, apperr.ErrUnauthenticated
}

func echoProvider(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(tenant.ProviderFromContext(r.Context()).String()))
}

func TestAuthenticate(t *testing.T) {
	userID, providerID := uuid.New(), uuid.New()
	mw := NewJWTMiddleware(secret, fakeSessions{userID: {UserID: userID, ProviderID: providerID}})
	h := mw.Authenticate(http.HandlerFunc(echoProvider))

	token, err := IssueToken(secret, userID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, providerID.String(), rec.Body.String())
}

func TestAuthenticateRejects(t *testing.T) {
	known := uuid.New()
	mw := NewJWTMiddleware(secret, fakeSessions{known: {UserID: known, ProviderID: known}})
	h := mw.Authenticate(http.HandlerFunc(echoProvider))

	expired, err := IssueToken(secret, known, -time.Minute)
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", known, time.Hour)
	require.NoError(t, err)
	unknown, err := IssueToken(secret, uuid.New(), time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing": "",
		"expired": "Bearer " + expired,
		"forged":  "Bearer " + forged,
		"unknown": "Bearer " + unknown,
		"scheme":  "Basic abc",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequirePermission(PermRolesDelete)(ok)

	owner := uuid.New()
	cases := []struct {
		name string
		sess *tenant.Session
		want int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"owner", &tenant.Session{UserID: owner, ProviderID: owner}, http.StatusNoContent},
		{"granted", &tenant.Session{UserID: uuid.New(), ProviderID: owner, Permissions: []string{PermRolesDelete}}, http.StatusNoContent},
		{"denied", &tenant.Session{UserID: uuid.New(), ProviderID: owner, Permissions: []string{PermRolesRead}}, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		if tc.sess != nil {
			req = req.WithContext(tenant.WithSession(req.Context(), tc.sess))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.name)
	}
}
