package query

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nikhilbhutani/staffdesk/internal/database"
)

// Table describes how a resource is read. Columns are qualified with the
// alias used in From.
type Table struct {
	From    string
	Columns string
	// Live is a condition excluding soft-deleted rows, empty for hard-delete tables.
	Live    string
	OrderBy string
}

type ScanFunc[T any] func(row pgx.Row) (T, error)

// Result is one page of a list.
type Result[T any] struct {
	Items      []T
	Pagination Pagination
}

func (t Table) where(scope Scope) *Where {
	w := &Where{}
	scope.Apply(w)
	if t.Live != "" {
		w.Add(t.Live)
	}
	return w
}

// List runs the count and page queries for spec inside scope.
func List[T any](ctx context.Context, db database.DBTX, t Table, scope Scope, spec Spec, scan ScanFunc[T]) (Result[T], error) {
	w := t.where(scope)
	for _, f := range spec.filters {
		w.apply(f)
	}

	var count int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", t.From, w.SQL())
	if err := db.QueryRow(ctx, countSQL, w.Args()...).Scan(&count); err != nil {
		return Result[T]{}, fmt.Errorf("count: %w", err)
	}

	items := make([]T, 0)
	if count > spec.Page.Skip() {
		orderBy := t.OrderBy
		if orderBy == "" {
			orderBy = "t.created_at DESC"
		}
		limit := w.Arg(spec.Page.Limit)
		offset := w.Arg(spec.Page.Skip())
		dataSQL := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
			t.Columns, t.From, w.SQL(), orderBy, limit, offset)

		rows, err := db.Query(ctx, dataSQL, w.Args()...)
		if err != nil {
			return Result[T]{}, fmt.Errorf("list: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scan(rows)
			if err != nil {
				return Result[T]{}, fmt.Errorf("scan: %w", err)
			}
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			return Result[T]{}, fmt.Errorf("iterate: %w", err)
		}
	}

	return Result[T]{Items: items, Pagination: NewPagination(spec.Page, count)}, nil
}

// Get reads one row by id inside scope. A row outside the scope and a
// missing row both surface as pgx.ErrNoRows.
func Get[T any](ctx context.Context, db database.DBTX, t Table, scope Scope, id any, scan ScanFunc[T]) (T, error) {
	w := t.where(scope)
	w.Add("t.id = %s", id)
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", t.Columns, t.From, w.SQL())
	return scan(db.QueryRow(ctx, sql, w.Args()...))
}

// ByID starts a condition set for a single scoped row, for UPDATE and DELETE
// statements that alias their table as t.
func ByID(scope Scope, id any) *Where {
	w := &Where{}
	w.Add("t.id = %s", id)
	scope.Apply(w)
	return w
}
