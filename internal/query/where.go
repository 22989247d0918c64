package query

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Where accumulates AND-ed conditions with numbered bind parameters.
type Where struct {
	clauses []string
	args    []any
}

// Add appends a condition. Each %s in format is replaced by the next $n
// placeholder, bound to the matching value.
func (w *Where) Add(format string, vals ...any) {
	marks := make([]any, len(vals))
	for i, v := range vals {
		w.args = append(w.args, v)
		marks[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.clauses = append(w.clauses, fmt.Sprintf(format, marks...))
}

// Arg binds v without adding a condition and returns its placeholder.
func (w *Where) Arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *Where) Args() []any {
	return w.args
}

func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(w.clauses, " AND ")
}

func (w *Where) apply(f Filter) {
	switch f.Op {
	case OpContains:
		w.Add(f.Column+" ILIKE %s", "%"+escapeLike(f.Value.(string))+"%")
	case OpPrefix:
		w.Add(f.Column+" ILIKE %s", escapeLike(f.Value.(string))+"%")
	case OpRange:
		switch {
		case f.From != nil && f.To != nil:
			w.Add(f.Column+" BETWEEN %s AND %s", f.From, f.To)
		case f.From != nil:
			w.Add(f.Column+" >= %s", f.From)
		default:
			w.Add(f.Column+" <= %s", f.To)
		}
	default:
		w.Add(f.Column+" = %s", f.Value)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

// Scope restricts rows to one provider.
type Scope struct {
	column     string
	provider   uuid.UUID
	viaCreator bool
}

// Direct compares the row's own provider column.
func Direct(column string, provider uuid.UUID) Scope {
	return Scope{column: column, provider: provider}
}

// ViaCreator follows the creator column to its user and compares that
// user's account provider.
func ViaCreator(column string, provider uuid.UUID) Scope {
	return Scope{column: column, provider: provider, viaCreator: true}
}

func (s Scope) Provider() uuid.UUID {
	return s.provider
}

func (s Scope) Apply(w *Where) {
	if s.viaCreator {
		w.Add("EXISTS (SELECT 1 FROM users su WHERE su.id = "+s.column+
			" AND COALESCE(su.account_provider_id, su.id) = %s)", s.provider)
		return
	}
	w.Add(s.column+" = %s", s.provider)
}
