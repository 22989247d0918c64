package query

import (
	"fmt"
	"strings"
)

// Update builds an UPDATE over a table aliased t. Assignments and conditions
// share one placeholder sequence.
type Update struct {
	table string
	sets  []string
	where Where
}

func NewUpdate(table string) *Update {
	return &Update{table: table}
}

func (u *Update) Set(column string, v any) *Update {
	u.sets = append(u.sets, column+" = "+u.where.Arg(v))
	return u
}

// SetExpr adds an assignment without a bound value, e.g. "updated_at = now()".
func (u *Update) SetExpr(expr string) *Update {
	u.sets = append(u.sets, expr)
	return u
}

func (u *Update) Where(format string, vals ...any) *Update {
	u.where.Add(format, vals...)
	return u
}

func (u *Update) Scope(s Scope) *Update {
	s.Apply(&u.where)
	return u
}

func (u *Update) Empty() bool {
	return len(u.sets) == 0
}

func (u *Update) SQL() string {
	return fmt.Sprintf("UPDATE %s t SET %s WHERE %s", u.table, strings.Join(u.sets, ", "), u.where.SQL())
}

func (u *Update) Args() []any {
	return u.where.Args()
}
