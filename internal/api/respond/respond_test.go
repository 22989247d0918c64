package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/query"
)

func TestPageEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	res := query.Result[string]{
		Items:      []string{"a", "b"},
		Pagination: query.NewPagination(query.Page{Number: 1, Limit: 2}, 5),
	}
	Page(rec, "fetched", res)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success": true,
		"message": "fetched",
		"data": ["a", "b"],
		"pagination": {"currentPage": 1, "totalPages": 3, "resultCount": 5}
	}`, rec.Body.String())
}

func TestErrorUsesRequestLanguage(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/roles/1", nil)
	req = req.WithContext(apperr.WithLang(req.Context(), apperr.Arabic))
	rec := httptest.NewRecorder()

	Error(rec, req, fmt.Errorf("delete: %w", apperr.ErrRoleIsAssociatedToOtherUsers))

	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, false, env["success"])
	assert.Equal(t, apperr.ErrRoleIsAssociatedToOtherUsers.AR, env["message"])
	assert.Equal(t, map[string]any{}, env["data"])
}

func TestErrorHidesInternalDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()

	Error(rec, req, errors.New("pq: relation \"secret_table\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret_table")
	assert.Contains(t, rec.Body.String(), apperr.ErrInternal.EN)
}
