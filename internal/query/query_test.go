package query

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/models"
)

func TestParsePageDefaults(t *testing.T) {
	p, err := ParsePage(url.Values{}, 0)
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 1, Limit: 200}, p)
	assert.Equal(t, 0, p.Skip())

	p, err = ParsePage(url.Values{"page": {"3"}, "limit": {"25"}}, 200)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Skip())
}

func TestParsePageRejectsMalformed(t *testing.T) {
	for _, v := range []url.Values{
		{"page": {"0"}},
		{"page": {"x"}},
		{"limit": {"-1"}},
		{"limit": {"ten"}},
	} {
		_, err := ParsePage(v, 200)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, v.Encode())
	}
}

func TestParsePageClampsLimit(t *testing.T) {
	p, err := ParsePage(url.Values{"limit": {"5000"}}, 200)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, p.Limit)
}

func TestTotalPagesIsCeiling(t *testing.T) {
	for _, limit := range []int{1, 2, 3, 7, 200} {
		for _, count := range []int{0, 1, 6, 7, 8, 199, 200, 201, 1000} {
			p := NewPagination(Page{Number: 1, Limit: limit}, count)
			want := count / limit
			if count%limit != 0 {
				want++
			}
			assert.Equal(t, want, p.TotalPages, "count=%d limit=%d", count, limit)
			assert.Equal(t, count, p.ResultCount)
		}
	}
}

var vacationFields = []Field{
	Contains("name", "t.name"),
	Enum("duration_type", "t.duration_type", models.ParseDurationType),
	Range("max_days", "t.max_days", KindInt),
	Eq("created_by", "t.created_by", KindUUID),
	Range("created_at", "t.created_at::date", KindDate),
}

func TestBuildCoercesRecognisedFields(t *testing.T) {
	id := uuid.New()
	spec, err := Build(url.Values{
		"name":            {"annual"},
		"duration_type":   {"yearly"},
		"max_days_from":   {"10"},
		"created_by":      {id.String()},
		"created_at_to":   {"2024-12-31"},
		"unknown_field":   {"ignored"},
		"created_at_from": {""},
	}, 200, vacationFields...)
	require.NoError(t, err)

	assert.Equal(t, []Filter{
		{Column: "t.name", Op: OpContains, Value: "annual"},
		{Column: "t.duration_type", Op: OpEq, Value: int16(2)},
		{Column: "t.max_days", Op: OpRange, From: 10},
		{Column: "t.created_by", Op: OpEq, Value: id},
		{Column: "t.created_at::date", Op: OpRange, To: models.NewDate(2024, time.December, 31)},
	}, spec.Filters())
}

func TestBuildRejectsMalformedValues(t *testing.T) {
	for _, v := range []url.Values{
		{"duration_type": {"weekly"}},
		{"max_days_to": {"ten"}},
		{"created_by": {"not-a-uuid"}},
		{"created_at_from": {"31-12-2024"}},
	} {
		_, err := Build(v, 200, vacationFields...)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, v.Encode())
	}
}

func TestSpecWithDoesNotMutate(t *testing.T) {
	base, err := Build(url.Values{"name": {"a"}}, 200, vacationFields...)
	require.NoError(t, err)

	narrowed := base.With(Filter{Column: "t.user_id", Value: uuid.New()})
	other := base.With(Filter{Column: "t.status", Value: int16(1)})

	assert.Len(t, base.Filters(), 1)
	assert.True(t, narrowed.Has("t.user_id"))
	assert.False(t, narrowed.Has("t.status"))
	assert.True(t, other.Has("t.status"))
	assert.False(t, base.Has("t.user_id"))
}

func TestWhereNumbersPlaceholders(t *testing.T) {
	w := &Where{}
	Direct("t.provider_id", uuid.Nil).Apply(w)
	w.apply(Filter{Column: "t.max_days", Op: OpRange, From: 1, To: 5})
	w.apply(Filter{Column: "t.name", Op: OpPrefix, Value: "50%_off"})
	w.apply(Filter{Column: "t.max_days", Op: OpRange, To: 9})

	assert.Equal(t, "t.provider_id = $1 AND t.max_days BETWEEN $2 AND $3 AND t.name ILIKE $4 AND t.max_days <= $5", w.SQL())
	assert.Equal(t, []any{uuid.Nil, 1, 5, `50\%\_off%`, 9}, w.Args())
}

func TestViaCreatorScopeIsParameterised(t *testing.T) {
	provider := uuid.New()
	w := &Where{}
	ViaCreator("t.created_by", provider).Apply(w)

	assert.Equal(t, "EXISTS (SELECT 1 FROM users su WHERE su.id = t.created_by AND COALESCE(su.account_provider_id, su.id) = $1)", w.SQL())
	assert.NotContains(t, w.SQL(), provider.String())
	assert.Equal(t, []any{provider}, w.Args())
}

var testTable = Table{
	From:    "vacations t",
	Columns: "t.id, t.name",
	Live:    "t.is_deleted = false",
}

type row struct {
	ID   uuid.UUID
	Name string
}

func scanRow(r pgx.Row) (row, error) {
	var v row
	err := r.Scan(&v.ID, &v.Name)
	return v, err
}

func TestListScopesFiltersAndPaginates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	provider := uuid.New()
	spec, err := Build(url.Values{"name": {"sick"}, "page": {"2"}, "limit": {"2"}}, 200, vacationFields...)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vacations t WHERE t.provider_id = \$1 AND t.is_deleted = false AND t.name ILIKE \$2`).
		WithArgs(provider, "%sick%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT t.id, t.name FROM vacations t WHERE .+ ORDER BY t.created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(provider, "%sick%", 2, 2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(uuid.New(), "sick leave"))

	res, err := List(context.Background(), mock, testTable, Direct("t.provider_id", provider), spec, scanRow)
	require.NoError(t, err)

	assert.Len(t, res.Items, 1)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 2, ResultCount: 3}, res.Pagination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSkipsDataQueryPastTheEnd(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	spec, err := Build(url.Values{"page": {"5"}}, 200)
	require.NoError(t, err)

	provider := uuid.New()
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(provider).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(10))

	res, err := List(context.Background(), mock, testTable, Direct("t.provider_id", provider), spec, scanRow)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 1, res.Pagination.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOutsideScopeIsNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, provider := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT t.id, t.name FROM vacations t WHERE t.provider_id = \$1 AND t.is_deleted = false AND t.id = \$2`).
		WithArgs(provider, id).
		WillReturnError(pgx.ErrNoRows)

	_, err = Get(context.Background(), mock, testTable, Direct("t.provider_id", provider), id, scanRow)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSharesPlaceholders(t *testing.T) {
	id, provider := uuid.New(), uuid.New()
	u := NewUpdate("vacations").
		Set("name", "Annual").
		Set("max_days", 21).
		SetExpr("updated_at = now()").
		Where("t.id = %s", id).
		Scope(Direct("t.provider_id", provider)).
		Where("t.is_deleted = false")

	assert.False(t, u.Empty())
	assert.Equal(t, "UPDATE vacations t SET name = $1, max_days = $2, updated_at = now() WHERE t.id = $3 AND t.provider_id = $4 AND t.is_deleted = false", u.SQL())
	assert.Equal(t, []any{"Annual", 21, id, provider}, u.Args())
	assert.True(t, NewUpdate("x").Empty())
}
